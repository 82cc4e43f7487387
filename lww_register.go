package crdt

import (
	"sync"
	"time"
)

// LWWRegister is a last-writer-wins register CRDT: a single replicated
// cell holding the value set by whichever Set/Apply/Merge carried the
// greatest wall-clock timestamp. Ties (equal timestamps from distinct
// replicas) favor the local side: a remote write only wins by being
// strictly newer.
type LWWRegister[T any] struct {
	mu        sync.RWMutex
	clock     Clock
	value     T
	timestamp time.Time
}

// SetLWW is the operation descriptor produced by LWWRegister.Set and
// consumed by LWWRegister.Apply.
type SetLWW[T any] struct {
	Value     T         `cbor:"value"`
	Timestamp time.Time `cbor:"timestamp"`
}

// NewLWWRegister returns an empty register (zero value, epoch timestamp)
// that sources timestamps from clock on every Set.
func NewLWWRegister[T any](clock Clock) *LWWRegister[T] {
	return &LWWRegister[T]{
		clock:     clock,
		timestamp: time.Unix(0, 0).UTC(),
	}
}

// NewLWWRegisterSystemClock is a convenience constructor for the common
// case of timestamping Sets with the process wall clock.
func NewLWWRegisterSystemClock[T any]() *LWWRegister[T] {
	return NewLWWRegister[T](SystemClock{})
}

// Value returns the register's current value.
func (r *LWWRegister[T]) Value() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set records value with the clock's current timestamp, applies it
// locally, and returns the resulting operation.
func (r *LWWRegister[T]) Set(value T) SetLWW[T] {
	op := SetLWW[T]{Value: value, Timestamp: r.clock.Now()}
	r.Apply(op)
	return op
}

// Apply adopts op's value iff op.Timestamp strictly exceeds the register's
// current timestamp. On a tie, the local side wins: Apply is a no-op.
func (r *LWWRegister[T]) Apply(op SetLWW[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op.Timestamp.After(r.timestamp) {
		r.value = op.Value
		r.timestamp = op.Timestamp
	}
}

// Merge adopts other's full state iff its timestamp strictly exceeds the
// local timestamp.
func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) {
	other.mu.RLock()
	otherValue, otherTimestamp := other.value, other.timestamp
	other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if otherTimestamp.After(r.timestamp) {
		r.value = otherValue
		r.timestamp = otherTimestamp
	}
}

// LWWRegisterSnapshot is the wire representation of an LWWRegister.
type LWWRegisterSnapshot[T any] struct {
	Value     T         `cbor:"value"`
	Timestamp time.Time `cbor:"timestamp"`
}

// MarshalBinary encodes the register's value and timestamp as
// self-describing CBOR.
func (r *LWWRegister[T]) MarshalBinary() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return marshalCBOR(LWWRegisterSnapshot[T]{Value: r.value, Timestamp: r.timestamp})
}

// UnmarshalBinary decodes a register previously produced by
// MarshalBinary, replacing the receiver's value and timestamp. The
// receiver's Clock is left untouched.
func (r *LWWRegister[T]) UnmarshalBinary(data []byte) error {
	var snap LWWRegisterSnapshot[T]
	if err := unmarshalCBOR(data, &snap); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = snap.Value
	r.timestamp = snap.Timestamp
	return nil
}
