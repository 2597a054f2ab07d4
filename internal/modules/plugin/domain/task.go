package domain

import (
	"context"
	"fmt"
	"sort"
)

// Property is one configurable key of a plugin configuration.
type Property struct {
	Key          string
	Value        string
	DefaultValue string
	Required     bool
	Secure       bool
	DisplayName  string
	DisplayOrder int
}

// Configuration is an ordered set of properties keyed by Property.Key.
type Configuration struct {
	properties []Property
}

func NewConfiguration(props ...Property) Configuration {
	var c Configuration
	for _, p := range props {
		c = c.With(p)
	}
	return c
}

// With returns a copy holding p, replacing any property with the same key.
func (c Configuration) With(p Property) Configuration {
	out := make([]Property, 0, len(c.properties)+1)
	replaced := false
	for _, existing := range c.properties {
		if existing.Key == p.Key {
			out = append(out, p)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, p)
	}
	return Configuration{properties: out}
}

// WithValue sets the value for key, keeping any other metadata already declared.
func (c Configuration) WithValue(key, value string) Configuration {
	p, _ := c.Property(key)
	p.Key = key
	p.Value = value
	return c.With(p)
}

func (c Configuration) Property(key string) (Property, bool) {
	for _, p := range c.properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// Value returns the value for key, falling back to its default.
func (c Configuration) Value(key string) string {
	p, ok := c.Property(key)
	if !ok {
		return ""
	}
	if p.Value == "" {
		return p.DefaultValue
	}
	return p.Value
}

func (c Configuration) Keys() []string {
	keys := make([]string, 0, len(c.properties))
	for _, p := range c.properties {
		keys = append(keys, p.Key)
	}
	return keys
}

// Properties returns the properties sorted by display order, then insertion order.
func (c Configuration) Properties() []Property {
	out := append([]Property(nil), c.properties...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func (c Configuration) Len() int {
	return len(c.properties)
}

type ValidationError struct {
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

type ValidationResult struct {
	errors []ValidationError
}

func (r *ValidationResult) AddError(err ValidationError) {
	r.errors = append(r.errors, err)
}

func (r ValidationResult) IsSuccessful() bool {
	return len(r.errors) == 0
}

func (r ValidationResult) Errors() []ValidationError {
	return append([]ValidationError(nil), r.errors...)
}

// TaskView is what the UI renders when a task is configured.
type TaskView struct {
	DisplayValue string
	Template     string
}

type TaskContext struct {
	WorkingDir  string
	Environment map[string]string
}

// Task is the task extension as seen by callers, whichever contract serves it.
type Task interface {
	Config(ctx context.Context) (Configuration, error)
	View(ctx context.Context) (TaskView, error)
	Validate(ctx context.Context, config Configuration) (ValidationResult, error)
	Execute(ctx context.Context, config Configuration, taskCtx TaskContext) (ExecutionResult, error)
}
