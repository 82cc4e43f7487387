package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// sequentialTagSource is a deterministic TagSource for tests that need
// predictable tag values instead of random ones.
type sequentialTagSource struct {
	next int
}

func (s *sequentialTagSource) NewTag() uuid.UUID {
	s.next++
	var u uuid.UUID
	u[len(u)-1] = byte(s.next)
	return u
}

func TestORSet_AddWinsConcurrentAddRemove(t *testing.T) {
	// A concurrent Add and Remove of the same value must converge to the
	// value being present, because the Add's tag was never observed by
	// the remover.
	s1 := NewObserveRemoveSet[string]()
	s2 := NewObserveRemoveSet[string]()

	addOp := s1.Add("a")

	s2.Apply(addOp)
	removeOp, ok := s2.Remove("a")
	require.True(t, ok)

	concurrentAdd := s1.Add("a")

	s1.Apply(removeOp)
	s2.Apply(concurrentAdd)

	require.True(t, s1.Value().Contains("a"), "add-wins: concurrent add must survive the remove")
	require.True(t, s2.Value().Contains("a"))
}

func TestORSet_RemoveUnknownIsNoop(t *testing.T) {
	s := NewObserveRemoveSet[string]()
	_, ok := s.Remove("missing")
	require.False(t, ok)
}

func TestORSet_FullRemoveHidesValue(t *testing.T) {
	s := NewObserveRemoveSet[string]()
	s.Add("a")
	removeOp, ok := s.Remove("a")
	require.True(t, ok)
	require.False(t, s.Value().Contains("a"))

	other := NewObserveRemoveSet[string]()
	other.Apply(removeOp)
	require.False(t, other.Value().Contains("a"))
}

func TestORSet_MergeUnionsTags(t *testing.T) {
	s1 := NewObserveRemoveSetWithTagSource[string](&sequentialTagSource{})
	s2 := NewObserveRemoveSetWithTagSource[string](&sequentialTagSource{})

	s1.Add("a")
	s2.Add("a")

	s1.Merge(s2)
	s2.Merge(s1)

	require.True(t, s1.Value().Contains("a"))
	require.True(t, s2.Value().Contains("a"))

	s1.Merge(s1)
	require.True(t, s1.Value().Contains("a"), "merge must be idempotent")
}

func TestORSet_RoundTrip(t *testing.T) {
	s := NewObserveRemoveSet[string]()
	s.Add("a")
	s.Add("b")
	s.Remove("a")

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	decoded := NewObserveRemoveSet[string]()
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, s.Value(), decoded.Value())
}
