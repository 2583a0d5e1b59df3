package utils

import "github.com/google/uuid"

// IDGenerator produces the opaque 36-character identifiers used for all
// cross-table linkage. It is injected into handlers and repositories so tests
// can supply deterministic ids.
type IDGenerator func() string

// NewUUIDGenerator returns a collision-free IDGenerator backed by random
// UUIDv4 strings.
func NewUUIDGenerator() IDGenerator {
	return uuid.NewString
}
