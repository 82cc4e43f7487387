// Package crdt provides a suite of Conflict-free Replicated Data Types (CRDTs).
//
// CRDTs are distributed data structures that guarantee convergence: if
// multiple replicas receive the same set of updates, they will eventually
// reach the same state regardless of the order in which updates were
// processed, how many times an update is redelivered, or how long replicas
// are partitioned from one another.
//
// This package implements both state-based CRDTs (CvRDTs, reconciled via
// Merge) and operation-based CRDTs (CmRDTs, reconciled via Apply):
// counters (OpCounter, GCounter, PNCounter), a last-writer-wins register
// (LWWRegister), sets (GSet, TwoPhaseSet, ObserveRemoveSet), and a
// recursive map of operation-convergent values (ObserveRemoveMap).
//
// Every type in this package is a single-threaded cooperative owner: all
// mutation, Apply, Merge, and query calls on one instance must be
// serialized by the caller. Distinct instances are independent and may be
// driven concurrently by different goroutines: the convergence guarantees
// below are what make that safe, not shared memory.
//
// The package performs no I/O, serialization wire-format selection,
// network transport, or clock synchronization of its own; those are the
// responsibility of an external carrier that delivers operations or state
// snapshots between replicas at-least-once, in any order, with arbitrary
// delay.
package crdt

// Applier is implemented by any operation-convergent replicated type: one
// that exposes a first-class operation descriptor of type Op and can fold
// a single remote occurrence of it into the local state.
//
// Implementations of Apply must be:
//
//  1. Commutative: for any two operations produced anywhere, applying them
//     in either order yields the same observable value (subject to the
//     type's own delivery prerequisites, documented per type).
//  2. Idempotent: re-delivering the same operation leaves the state
//     unchanged, except where a type's own semantics make duplicates
//     distinct events (ObserveRemoveSet.Add, whose uniqueness tag makes two
//     adds of equal value observably identical but distinct occurrences).
//     OpCounter does not meet this: its Apply double-counts a redelivered
//     operation.
//
// Apply never fails. Because Op is a type parameter fixed by the concrete
// type, there is no type-mismatch case to reject at runtime; the
// structural check happens at compile time instead.
type Applier[Op any] interface {
	Apply(op Op)
}

// Merger is implemented by any state-convergent replicated type: one whose
// entire state can absorb another full snapshot of the same type via
// Merge. Self is the concrete receiver type, e.g. *GCounter[string, int]
// implements Merger[*GCounter[string, int]].
//
// Merge must be a join-semilattice operation:
//
//  1. Commutative: a.Merge(b) leaves a in the same state b.Merge(a) would
//     leave b.
//  2. Associative: the grouping of a sequence of merges doesn't matter.
//  3. Idempotent: merging a state into itself (or into an equal copy) is a
//     no-op.
//
// Merge never fails.
type Merger[Self any] interface {
	Merge(other Self)
}

// Number is the constraint satisfied by every payload type the counters in
// this package accept: an ordered, additive numeric type with a usable
// zero value.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Set is the query-surface value returned by every set-shaped CRDT in this
// package (GSet, TwoPhaseSet, ObserveRemoveSet). It is a plain Go set
// (map[T]struct{}) so callers can range over it directly; Contains, Len,
// and Slice are convenience accessors.
type Set[T comparable] map[T]struct{}

// Contains reports whether v is a member of the set.
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// Slice returns the set's elements as a newly allocated slice. Order is
// unspecified.
func (s Set[T]) Slice() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

