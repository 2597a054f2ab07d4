package store

import (
	"sort"
	"sync"
)

// keyed is a map whose entries are locked individually: writers for one key
// exclude each other, while writers for different keys and all readers run
// concurrently. The map lock is only held to find, add or drop an entry.
type keyed[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
}

type entry[V any] struct {
	mu      sync.RWMutex
	value   V
	set     bool
	removed bool
}

func newKeyed[V any]() *keyed[V] {
	return &keyed[V]{entries: make(map[string]*entry[V])}
}

func (k *keyed[V]) lookup(key string) *entry[V] {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.entries[key]
}

func (k *keyed[V]) lookupOrCreate(key string) *entry[V] {
	if e := k.lookup(key); e != nil {
		return e
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if e, ok := k.entries[key]; ok {
		return e
	}
	e := &entry[V]{}
	k.entries[key] = e
	return e
}

func (k *keyed[V]) put(key string, value V) {
	for {
		e := k.lookupOrCreate(key)
		e.mu.Lock()
		if e.removed {
			// lost a race with remove; the next lookup creates a fresh entry
			e.mu.Unlock()
			continue
		}
		e.value = value
		e.set = true
		e.mu.Unlock()
		return
	}
}

func (k *keyed[V]) get(key string) (V, bool) {
	var zero V
	e := k.lookup(key)
	if e == nil {
		return zero, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.removed || !e.set {
		return zero, false
	}
	return e.value, true
}

// update applies fn to the current value. It reports false when there is no value.
func (k *keyed[V]) update(key string, fn func(V) (V, error)) (bool, error) {
	e := k.lookup(key)
	if e == nil {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || !e.set {
		return false, nil
	}
	next, err := fn(e.value)
	if err != nil {
		return true, err
	}
	e.value = next
	return true, nil
}

func (k *keyed[V]) remove(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	delete(k.entries, key)
	k.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
}

func (k *keyed[V]) keys() []string {
	k.mu.RLock()
	candidates := make(map[string]*entry[V], len(k.entries))
	for key, e := range k.entries {
		candidates[key] = e
	}
	k.mu.RUnlock()

	out := make([]string, 0, len(candidates))
	for key, e := range candidates {
		e.mu.RLock()
		if e.set && !e.removed {
			out = append(out, key)
		}
		e.mu.RUnlock()
	}
	sort.Strings(out)
	return out
}
