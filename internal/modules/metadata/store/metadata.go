package store

import (
	"errors"
	"fmt"

	plugindomain "extrt/internal/modules/plugin/domain"
)

var ErrNoMetadata = errors.New("no metadata registered")

// Info is implemented by every per-extension plugin info type.
type Info interface {
	Validate() error
}

// MetadataStore maps plugin id to the metadata one extension point keeps
// about it. Entries exist between plugin load and unload; absence means
// "no metadata yet", not an error.
type MetadataStore[T Info] struct {
	point   plugindomain.ExtensionPoint
	entries *keyed[T]
}

func NewMetadataStore[T Info](point plugindomain.ExtensionPoint) *MetadataStore[T] {
	return &MetadataStore[T]{point: point, entries: newKeyed[T]()}
}

func (s *MetadataStore[T]) Point() plugindomain.ExtensionPoint {
	return s.point
}

func (s *MetadataStore[T]) Set(pluginID string, info T) error {
	if pluginID == "" {
		return fmt.Errorf("plugin id is required")
	}
	if err := info.Validate(); err != nil {
		return fmt.Errorf("set %s metadata for %s: %w", s.point, pluginID, err)
	}
	s.entries.put(pluginID, info)
	return nil
}

func (s *MetadataStore[T]) Get(pluginID string) (T, bool) {
	return s.entries.get(pluginID)
}

func (s *MetadataStore[T]) Has(pluginID string) bool {
	_, ok := s.entries.get(pluginID)
	return ok
}

func (s *MetadataStore[T]) Remove(pluginID string) {
	s.entries.remove(pluginID)
}

// PluginIDs returns the ids with metadata, sorted.
func (s *MetadataStore[T]) PluginIDs() []string {
	return s.entries.keys()
}

// Update read-modify-writes the entry for pluginID. Updating a plugin that
// was never Set is a caller error.
func (s *MetadataStore[T]) Update(pluginID string, fn func(*T)) error {
	found, err := s.entries.update(pluginID, func(current T) (T, error) {
		fn(&current)
		if err := current.Validate(); err != nil {
			return current, err
		}
		return current, nil
	})
	if err != nil {
		return fmt.Errorf("update %s metadata for %s: %w", s.point, pluginID, err)
	}
	if !found {
		return fmt.Errorf("%w for plugin %s in %s store", ErrNoMetadata, pluginID, s.point)
	}
	return nil
}
