package crdt

import "sync"

// OpCounter is a plain, non-replicated operation counter: a reference
// baseline. It is deliberately not a CRDT against state-level divergence:
// there is no Merge, and redelivering the same IncrementOp twice
// double-counts it. It exists for composition with transports that already
// guarantee exactly-once delivery, and as the simplest possible Applier to
// contrast GCounter/PNCounter against.
type OpCounter[T Number] struct {
	mu    sync.Mutex
	total T
}

// IncrementOp is the operation descriptor produced by OpCounter.Add and
// consumed by OpCounter.Apply.
type IncrementOp[T Number] struct {
	Value T `cbor:"value"`
}

// NewOpCounter returns an empty OpCounter.
func NewOpCounter[T Number]() *OpCounter[T] {
	return &OpCounter[T]{}
}

// Value returns the current accumulator.
func (c *OpCounter[T]) Value() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Add unconditionally increments the counter by v (v may be negative) and
// returns the operation. Add never rejects: there is no invalid delta.
func (c *OpCounter[T]) Add(v T) IncrementOp[T] {
	op := IncrementOp[T]{Value: v}
	c.Apply(op)
	return op
}

// Apply adds op.Value to the accumulator. Commutative trivially (addition
// commutes), but not idempotent: applying the same IncrementOp twice
// double-counts it.
func (c *OpCounter[T]) Apply(op IncrementOp[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += op.Value
}

// MarshalBinary encodes the counter's current total as self-describing
// CBOR.
func (c *OpCounter[T]) MarshalBinary() ([]byte, error) {
	return marshalCBOR(c.Value())
}

// UnmarshalBinary decodes a total previously produced by MarshalBinary,
// replacing the receiver's state.
func (c *OpCounter[T]) UnmarshalBinary(data []byte) error {
	var total T
	if err := unmarshalCBOR(data, &total); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	return nil
}
