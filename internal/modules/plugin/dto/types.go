package dto

import "time"

type Capability struct {
	Extension string
	Contract  string
}

type PluginInfo struct {
	ID           string
	Name         string
	Version      string
	Vendor       string
	Capabilities []Capability
	RegisteredAt time.Time
}

type TaskInput struct {
	PluginID   string
	Config     map[string]string
	WorkingDir string
	Env        map[string]string
}

type ExecutionOutput struct {
	PluginID string
	Success  bool
	Messages []string
}

type ValidationError struct {
	Key     string
	Message string
}

type ValidationOutput struct {
	PluginID string
	Valid    bool
	Errors   []ValidationError
}

type Property struct {
	Key          string
	DisplayName  string
	DefaultValue string
	Required     bool
	Secure       bool
}

type TaskInfo struct {
	PluginID     string
	Contract     string
	DisplayValue string
	Template     string
	Properties   []Property
}

type NotifyInput struct {
	PluginID string
	Name     string
	Payload  map[string]any
}
