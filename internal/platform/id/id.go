package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID issues random RFC 4122 identifiers for message envelopes.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}
