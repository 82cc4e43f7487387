package crdt

import (
	"errors"
	"sync"
)

// errUnmarshalableValue is returned by ObserveRemoveMap's MarshalBinary/
// UnmarshalBinary when V does not implement the standard library's binary
// (de)serialization interfaces.
var errUnmarshalableValue = errors.New("crdt: map value type does not implement encoding.BinaryMarshaler/BinaryUnmarshaler")

// ObserveRemoveMap is an OR-Map CRDT: a map whose keys are governed by an
// ObserveRemoveSet (so key membership gets add-wins semantics) and whose
// values are themselves operation-convergent replicated types, the
// recursive composition case. V must implement Applier[Op]; if V also
// implements Merger[V], ObserveRemoveMap.Merge propagates value-level state
// convergence too (detected at runtime via a capability probe, since Go
// cannot express "V sometimes implements Merger[V]" as a static
// constraint on a single type parameter list).
//
// Key visibility follows the OR-Set exactly. Value state for a removed key
// (there is no key-removal operation in this version) persists once
// materialized: resurrecting a key via a later Add exposes whatever the
// value accumulated in the meantime, which is the intended behavior for
// counter-valued maps.
type ObserveRemoveMap[K comparable, Op any, V Applier[Op]] struct {
	mu        sync.RWMutex
	keys      *ObserveRemoveSet[K]
	values    map[K]V
	makeValue func() V
}

// KeyedOp pairs a map key with the operation to apply to its value.
type KeyedOp[K comparable, Op any] struct {
	Key K  `cbor:"key"`
	Op  Op `cbor:"op"`
}

// MapOp is the operation descriptor produced by ObserveRemoveMap.Update
// and consumed by ObserveRemoveMap.Apply. Either field may be nil: KeyOp
// is present only when the key was not yet visible, ValueOp only when the
// update function produced a value-level operation.
type MapOp[K comparable, Op any] struct {
	KeyOp   *ORSetOp[K]     `cbor:"key_op,omitempty"`
	ValueOp *KeyedOp[K, Op] `cbor:"value_op,omitempty"`
}

// NewObserveRemoveMap returns an empty ObserveRemoveMap. makeValue must be
// a pure, deterministic factory that produces a fresh V bound to the
// containing replica's identity; it must not capture mutable state.
func NewObserveRemoveMap[K comparable, Op any, V Applier[Op]](makeValue func() V) *ObserveRemoveMap[K, Op, V] {
	return &ObserveRemoveMap[K, Op, V]{
		keys:      NewObserveRemoveSet[K](),
		values:    make(map[K]V),
		makeValue: makeValue,
	}
}

// Get returns the value at key and true, but only when key is currently
// visible in the underlying key set. A key whose value exists only because
// a remote value-level operation arrived before its key-add (see Apply)
// is not returned here.
func (m *ObserveRemoveMap[K, Op, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.keys.Value().Contains(key) {
		var zero V
		return zero, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the currently visible key set.
func (m *ObserveRemoveMap[K, Op, V]) Keys() Set[K] {
	return m.keys.Value()
}

// Update applies updateFn to the value stored at key (materializing a
// fresh one via makeValue if key has never been seen locally), adding key
// to the key set first if it was not already visible. updateFn returns the
// value-level operation it produced, or (zero, false) if it made no
// change. Update returns the composite operation and true if either the
// key set or the value changed; otherwise (nil, false) and nothing need be
// shipped.
func (m *ObserveRemoveMap[K, Op, V]) Update(key K, updateFn func(V) (Op, bool)) (*MapOp[K, Op], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keyOp *ORSetOp[K]
	if !m.keys.Value().Contains(key) {
		op := m.keys.Add(key)
		keyOp = &op
	}

	value, ok := m.values[key]
	if !ok {
		value = m.makeValue()
		m.values[key] = value
	}

	valueOp, changed := updateFn(value)

	if keyOp == nil && !changed {
		return nil, false
	}

	var vop *KeyedOp[K, Op]
	if changed {
		vop = &KeyedOp[K, Op]{Key: key, Op: valueOp}
	}
	return &MapOp[K, Op]{KeyOp: keyOp, ValueOp: vop}, true
}

func (m *ObserveRemoveMap[K, Op, V]) getOrCreateLocked(key K) V {
	v, ok := m.values[key]
	if !ok {
		v = m.makeValue()
		m.values[key] = v
	}
	return v
}

// Apply integrates a remote MapOp: KeyOp (if present) is applied to the
// key set; ValueOp (if present) is applied to the value at its key, lazily
// materializing that value first. A value-level operation may arrive for a
// key whose own Add has not (or will never) arrive; the value state is
// still recorded, but Get won't surface it until the key becomes visible.
func (m *ObserveRemoveMap[K, Op, V]) Apply(op *MapOp[K, Op]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if op.KeyOp != nil {
		m.keys.Apply(*op.KeyOp)
	}
	if op.ValueOp != nil {
		value := m.getOrCreateLocked(op.ValueOp.Key)
		value.Apply(op.ValueOp.Op)
	}
}

// Merge merges the underlying key OR-Set, then, for every key present on
// either side, merges the values, but only if V also implements
// Merger[V]; otherwise value state is left untouched by Merge (only Apply
// propagates it).
func (m *ObserveRemoveMap[K, Op, V]) Merge(other *ObserveRemoveMap[K, Op, V]) {
	other.mu.RLock()
	otherValues := make(map[K]V, len(other.values))
	for k, v := range other.values {
		otherValues[k] = v
	}
	other.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys.Merge(other.keys)

	for k, ov := range otherValues {
		lv := m.getOrCreateLocked(k)
		if merger, ok := any(lv).(Merger[V]); ok {
			merger.Merge(ov)
		}
	}
}

// ORMapSnapshot is the wire representation of an ObserveRemoveMap's key
// set and every value's own encoded bytes.
type ORMapSnapshot[K comparable] struct {
	Keys   []byte       `cbor:"keys"`
	Values map[K][]byte `cbor:"values"`
}

// MarshalBinary encodes the map's key set and every value's own
// MarshalBinary output as self-describing CBOR. It returns an error if V
// does not implement encoding.BinaryMarshaler. ObserveRemoveMap cannot
// require that statically without narrowing which value types it accepts,
// so the capability is probed at the call site instead (see Merge).
func (m *ObserveRemoveMap[K, Op, V]) MarshalBinary() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keysBytes, err := m.keys.MarshalBinary()
	if err != nil {
		return nil, err
	}

	values := make(map[K][]byte, len(m.values))
	for k, v := range m.values {
		marshaler, ok := any(v).(interface{ MarshalBinary() ([]byte, error) })
		if !ok {
			return nil, errUnmarshalableValue
		}
		b, err := marshaler.MarshalBinary()
		if err != nil {
			return nil, err
		}
		values[k] = b
	}

	return marshalCBOR(ORMapSnapshot[K]{Keys: keysBytes, Values: values})
}

// UnmarshalBinary decodes a map previously produced by MarshalBinary,
// replacing the receiver's state. It returns an error if V does not
// implement encoding.BinaryUnmarshaler.
func (m *ObserveRemoveMap[K, Op, V]) UnmarshalBinary(data []byte) error {
	var snap ORMapSnapshot[K]
	if err := unmarshalCBOR(data, &snap); err != nil {
		return err
	}

	keys := NewObserveRemoveSet[K]()
	if err := keys.UnmarshalBinary(snap.Keys); err != nil {
		return err
	}

	values := make(map[K]V, len(snap.Values))
	for k, b := range snap.Values {
		v := m.makeValue()
		unmarshaler, ok := any(v).(interface{ UnmarshalBinary([]byte) error })
		if !ok {
			return errUnmarshalableValue
		}
		if err := unmarshaler.UnmarshalBinary(b); err != nil {
			return err
		}
		values[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = keys
	m.values = values
	return nil
}
