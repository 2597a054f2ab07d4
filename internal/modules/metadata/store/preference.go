package store

// PreferenceStore caches one preference per plugin id. The last write wins
// and entries stay until removed explicitly.
type PreferenceStore[P any] struct {
	entries *keyed[P]
}

func NewPreferenceStore[P any]() *PreferenceStore[P] {
	return &PreferenceStore[P]{entries: newKeyed[P]()}
}

func (s *PreferenceStore[P]) SetPreferenceFor(pluginID string, preference P) {
	s.entries.put(pluginID, preference)
}

func (s *PreferenceStore[P]) RemovePreferenceFor(pluginID string) {
	s.entries.remove(pluginID)
}

func (s *PreferenceStore[P]) PreferenceFor(pluginID string) (P, bool) {
	return s.entries.get(pluginID)
}

func (s *PreferenceStore[P]) HasPreferenceFor(pluginID string) bool {
	_, ok := s.entries.get(pluginID)
	return ok
}

// PluginsWithPreference returns the ids with a preference, sorted.
func (s *PreferenceStore[P]) PluginsWithPreference() []string {
	return s.entries.keys()
}
