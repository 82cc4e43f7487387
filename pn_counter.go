package crdt

// PNCounter is a positive-negative counter CRDT: unlike GCounter, which is
// increment-only, PNCounter allows both increments and decrements. It
// achieves this by internally managing two independent GCounters (pos
// tracks the sum of all increments, neg tracks the sum of all decrements),
// so the underlying state remains monotonic (grow-only) even though the
// logical value can fall.
//
// Deviation from the classical PN-Counter: rather than shipping per-call
// deltas, Add emits the cumulative per-replica totals for both sides
// (SetPN), the same shape GCounter.Add already produces. That makes
// PNCounter.Apply a pair of plain GCounter.Apply calls and restores full
// apply-idempotence, at the cost of a slightly larger operation.
type PNCounter[H comparable, T Number] struct {
	pos GCounter[H, T]
	neg GCounter[H, T]
}

// SetPN is the operation descriptor produced by PNCounter.Add and consumed
// by PNCounter.Apply. PosTotal and NegTotal are ID's cumulative totals on
// the positive and negative sides respectively, after the Add call that
// produced this operation.
type SetPN[H comparable, T Number] struct {
	ID       H `cbor:"id"`
	PosTotal T `cbor:"pos_total"`
	NegTotal T `cbor:"neg_total"`
}

// NewPNCounter initializes an empty PNCounter owned by replica id.
func NewPNCounter[H comparable, T Number](id H) *PNCounter[H, T] {
	return &PNCounter[H, T]{
		pos: *NewGCounter[H, T](id),
		neg: *NewGCounter[H, T](id),
	}
}

// Value is pos.Value() - neg.Value(): the drift between every increment
// and every decrement known to this replica.
func (c *PNCounter[H, T]) Value() T {
	return c.pos.Value() - c.neg.Value()
}

// Add applies delta v to the counter: a non-negative v increases the
// positive side, a negative v increases the negative side by its
// magnitude. The returned operation carries both sides' current
// cumulative totals for v's owning replica and has already been applied
// locally.
func (c *PNCounter[H, T]) Add(v T) SetPN[H, T] {
	id := c.pos.id
	if v >= 0 {
		c.pos.Add(v)
	} else {
		c.neg.Add(-v)
	}
	return SetPN[H, T]{
		ID:       id,
		PosTotal: c.pos.totalFor(id),
		NegTotal: c.neg.totalFor(id),
	}
}

// Apply integrates a remote SetPN by taking the element-wise max on both
// the positive and negative GCounters, exactly as GCounter.Apply does.
// Re-delivering the same operation is therefore a no-op.
func (c *PNCounter[H, T]) Apply(op SetPN[H, T]) {
	c.pos.Apply(SetGCounter[H, T]{ID: op.ID, Value: op.PosTotal})
	c.neg.Apply(SetGCounter[H, T]{ID: op.ID, Value: op.NegTotal})
}

// Merge merges the positive and negative GCounters independently. Both
// satisfy the join-semilattice laws, so PNCounter.Merge does too.
func (c *PNCounter[H, T]) Merge(other *PNCounter[H, T]) {
	c.pos.Merge(&other.pos)
	c.neg.Merge(&other.neg)
}

// PNCounterSnapshot is the wire representation of a PNCounter.
type PNCounterSnapshot[H comparable, T Number] struct {
	Pos GCounterSnapshot[H, T] `cbor:"pos"`
	Neg GCounterSnapshot[H, T] `cbor:"neg"`
}

// MarshalBinary encodes the PNCounter's full state as self-describing CBOR.
func (c *PNCounter[H, T]) MarshalBinary() ([]byte, error) {
	posBytes, err := c.pos.MarshalBinary()
	if err != nil {
		return nil, err
	}
	negBytes, err := c.neg.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var pos, neg GCounterSnapshot[H, T]
	if err := unmarshalCBOR(posBytes, &pos); err != nil {
		return nil, err
	}
	if err := unmarshalCBOR(negBytes, &neg); err != nil {
		return nil, err
	}

	return marshalCBOR(PNCounterSnapshot[H, T]{Pos: pos, Neg: neg})
}

// UnmarshalBinary decodes a PNCounter previously produced by
// MarshalBinary, replacing the receiver's state.
func (c *PNCounter[H, T]) UnmarshalBinary(data []byte) error {
	var snap PNCounterSnapshot[H, T]
	if err := unmarshalCBOR(data, &snap); err != nil {
		return err
	}

	posBytes, err := marshalCBOR(snap.Pos)
	if err != nil {
		return err
	}
	negBytes, err := marshalCBOR(snap.Neg)
	if err != nil {
		return err
	}

	if err := c.pos.UnmarshalBinary(posBytes); err != nil {
		return err
	}
	return c.neg.UnmarshalBinary(negBytes)
}
