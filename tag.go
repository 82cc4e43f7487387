package crdt

import "github.com/google/uuid"

// TagSource is the pluggable source of unique tags consulted by
// ObserveRemoveSet (and, transitively, ObserveRemoveMap's key set) on every
// Add. Collision probability must be negligible, since a collision between
// two unrelated add events would make one add silently absorb the other's
// tombstone.
type TagSource interface {
	NewTag() uuid.UUID
}

// RandomTagSource is the default TagSource: a 128-bit random UUID (v4) per
// tag, backed by a CSPRNG.
type RandomTagSource struct{}

// NewTag returns a fresh random UUID.
func (RandomTagSource) NewTag() uuid.UUID {
	return uuid.New()
}
