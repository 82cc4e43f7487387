package crdt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwoPhaseSet_RemovePermanence(t *testing.T) {
	// Once removed, a value can never resurface,
	// even across a re-Add, because tombstone-set union always dominates.
	s := NewTwoPhaseSet[int]()

	_, ok := s.Add(123)
	require.True(t, ok)
	_, ok = s.Add(456)
	require.True(t, ok)

	_, ok = s.Remove(123)
	require.True(t, ok)
	require.Equal(t, Set[int]{456: struct{}{}}, s.Value())

	_, ok = s.Add(123)
	require.True(t, ok, "a tombstoned value is not currently visible, so the current-visibility check accepts the re-add")
	require.False(t, s.Value().Contains(123))
}

func TestTwoPhaseSet_RemoveAbsentIsNoop(t *testing.T) {
	s := NewTwoPhaseSet[int]()
	_, ok := s.Remove(999)
	require.False(t, ok)
}

func TestTwoPhaseSet_MergeDominance(t *testing.T) {
	s1 := NewTwoPhaseSet[int]()
	s2 := NewTwoPhaseSet[int]()

	s1.Add(123)
	s2.Add(123)
	s1.Remove(123)

	s2.Merge(s1)
	require.False(t, s2.Value().Contains(123), "tombstone from s1 must dominate s2's concurrent add")

	s1.Merge(s2)
	require.False(t, s1.Value().Contains(123))
}

func TestTwoPhaseSet_RoundTrip(t *testing.T) {
	s := NewTwoPhaseSet[int]()
	s.Add(1)
	s.Add(2)
	s.Remove(1)

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	decoded := NewTwoPhaseSet[int]()
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, s.Value(), decoded.Value())

	_, ok := decoded.Add(1)
	require.True(t, ok)
	require.False(t, decoded.Value().Contains(1), "permanence must survive a round-trip through the wire format")
}
