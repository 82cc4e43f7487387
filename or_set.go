package crdt

import (
	"sync"

	"github.com/google/uuid"
)

// ORSetOpKind distinguishes the two operation shapes ObserveRemoveSet
// emits.
type ORSetOpKind uint8

const (
	ORSetAdd ORSetOpKind = iota
	ORSetRemove
)

// ORSetOp is the operation descriptor produced by ObserveRemoveSet.Add/
// Remove and consumed by ObserveRemoveSet.Apply. For an Add, Value and Tag
// are populated; for a Remove, Tags holds a snapshot of every tag the
// removing replica observed for the removed value.
type ORSetOp[T comparable] struct {
	Kind  ORSetOpKind            `cbor:"kind"`
	Value T                      `cbor:"value,omitempty"`
	Tag   uuid.UUID              `cbor:"tag,omitempty"`
	Tags  map[uuid.UUID]struct{} `cbor:"tags,omitempty"`
}

// ObserveRemoveSet is an OR-Set CRDT: add-wins semantics under concurrent
// add/remove of the same element. Each Add tags the value with a fresh
// unique identifier; Remove only tombstones the tags it has observed, so a
// concurrent Add, whose tag the remover never saw, keeps the element
// visible after a full merge.
type ObserveRemoveSet[T comparable] struct {
	mu         sync.RWMutex
	tagSource  TagSource
	members    map[T]map[uuid.UUID]struct{}
	tombstones map[uuid.UUID]struct{}
}

// NewObserveRemoveSet returns an empty ObserveRemoveSet using the default
// random tag source.
func NewObserveRemoveSet[T comparable]() *ObserveRemoveSet[T] {
	return NewObserveRemoveSetWithTagSource[T](RandomTagSource{})
}

// NewObserveRemoveSetWithTagSource returns an empty ObserveRemoveSet that
// sources tags from the given TagSource; useful for deterministic tests.
func NewObserveRemoveSetWithTagSource[T comparable](tagSource TagSource) *ObserveRemoveSet[T] {
	return &ObserveRemoveSet[T]{
		tagSource:  tagSource,
		members:    make(map[T]map[uuid.UUID]struct{}),
		tombstones: make(map[uuid.UUID]struct{}),
	}
}

// Value returns every key in members whose tag set is not entirely
// contained in tombstones, i.e. every value with at least one live tag.
func (s *ObserveRemoveSet[T]) Value() Set[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(Set[T], len(s.members))
	for v, tags := range s.members {
		if !subsetLocked(tags, s.tombstones) {
			out[v] = struct{}{}
		}
	}
	return out
}

func subsetLocked[K comparable](subset, superset map[K]struct{}) bool {
	for k := range subset {
		if _, ok := superset[k]; !ok {
			return false
		}
	}
	return true
}

// Add always succeeds: it mints a fresh unique tag for v, applies the
// resulting operation locally, and returns it.
func (s *ObserveRemoveSet[T]) Add(v T) ORSetOp[T] {
	tag := s.tagSource.NewTag()
	op := ORSetOp[T]{Kind: ORSetAdd, Value: v, Tag: tag}
	s.Apply(op)
	return op
}

// Remove snapshots v's currently observed tag set and emits a Remove
// carrying that snapshot. If v has never been added locally, Remove is a
// no-op and returns (zero, false).
func (s *ObserveRemoveSet[T]) Remove(v T) (ORSetOp[T], bool) {
	s.mu.Lock()
	tags, ok := s.members[v]
	if !ok {
		s.mu.Unlock()
		return ORSetOp[T]{}, false
	}
	snapshot := make(map[uuid.UUID]struct{}, len(tags))
	for t := range tags {
		snapshot[t] = struct{}{}
	}
	s.mu.Unlock()

	op := ORSetOp[T]{Kind: ORSetRemove, Tags: snapshot}
	s.Apply(op)
	return op, true
}

// Apply integrates a remote ORSetOp: Add inserts Tag into members[Value]'s
// tag set (creating it if absent); Remove unions Tags into tombstones.
func (s *ObserveRemoveSet[T]) Apply(op ORSetOp[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch op.Kind {
	case ORSetAdd:
		tags, ok := s.members[op.Value]
		if !ok {
			tags = make(map[uuid.UUID]struct{})
			s.members[op.Value] = tags
		}
		tags[op.Tag] = struct{}{}
	case ORSetRemove:
		for t := range op.Tags {
			s.tombstones[t] = struct{}{}
		}
	}
}

// Merge unions each value's tag set across both sides, then unions the
// tombstone sets.
func (s *ObserveRemoveSet[T]) Merge(other *ObserveRemoveSet[T]) {
	if other == s {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	for v, tags := range other.members {
		local, ok := s.members[v]
		if !ok {
			local = make(map[uuid.UUID]struct{}, len(tags))
			s.members[v] = local
		}
		for t := range tags {
			local[t] = struct{}{}
		}
	}
	for t := range other.tombstones {
		s.tombstones[t] = struct{}{}
	}
}

// ORSetSnapshot is the wire representation of an ObserveRemoveSet.
type ORSetSnapshot[T comparable] struct {
	Members    []orSetMemberSnapshot[T] `cbor:"members"`
	Tombstones []uuid.UUID              `cbor:"tombstones"`
}

type orSetMemberSnapshot[T comparable] struct {
	Value T          `cbor:"value"`
	Tags  []uuid.UUID `cbor:"tags"`
}

// MarshalBinary encodes the ObserveRemoveSet's full state as
// self-describing CBOR.
func (s *ObserveRemoveSet[T]) MarshalBinary() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]orSetMemberSnapshot[T], 0, len(s.members))
	for v, tags := range s.members {
		tagList := make([]uuid.UUID, 0, len(tags))
		for t := range tags {
			tagList = append(tagList, t)
		}
		members = append(members, orSetMemberSnapshot[T]{Value: v, Tags: tagList})
	}
	tombstones := make([]uuid.UUID, 0, len(s.tombstones))
	for t := range s.tombstones {
		tombstones = append(tombstones, t)
	}
	return marshalCBOR(ORSetSnapshot[T]{Members: members, Tombstones: tombstones})
}

// UnmarshalBinary decodes an ObserveRemoveSet previously produced by
// MarshalBinary, replacing the receiver's state. The receiver's TagSource
// is left untouched.
func (s *ObserveRemoveSet[T]) UnmarshalBinary(data []byte) error {
	var snap ORSetSnapshot[T]
	if err := unmarshalCBOR(data, &snap); err != nil {
		return err
	}

	members := make(map[T]map[uuid.UUID]struct{}, len(snap.Members))
	for _, m := range snap.Members {
		tags := make(map[uuid.UUID]struct{}, len(m.Tags))
		for _, t := range m.Tags {
			tags[t] = struct{}{}
		}
		members[m.Value] = tags
	}
	tombstones := make(map[uuid.UUID]struct{}, len(snap.Tombstones))
	for _, t := range snap.Tombstones {
		tombstones[t] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = members
	s.tombstones = tombstones
	return nil
}
