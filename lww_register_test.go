package crdt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a deterministic Clock for tests that need a guaranteed total
// order between two Sets: every Now call advances it by one microsecond.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Microsecond)
	return c.t
}

func TestLWWRegister_EmptyValue(t *testing.T) {
	r := NewLWWRegisterSystemClock[string]()
	require.Equal(t, "", r.Value())
}

func TestLWWRegister_Set(t *testing.T) {
	r := NewLWWRegisterSystemClock[string]()
	r.Set("test")
	require.Equal(t, "test", r.Value())
}

func TestLWWRegister_LastWriterWins(t *testing.T) {
	// The replica with the later timestamp must win after cross-apply.
	clock := &fakeClock{t: time.Unix(0, 0).UTC()}
	r1 := NewLWWRegister[string](clock)
	r2 := NewLWWRegister[string](clock)

	op1 := r1.Set("first")
	op2 := r2.Set("last")

	r1.Apply(op2)
	r2.Apply(op1)

	require.Equal(t, "last", r1.Value())
	require.Equal(t, "last", r2.Value())
}

func TestLWWRegister_MergeLastWriterWins(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0).UTC()}
	r1 := NewLWWRegister[string](clock)
	r2 := NewLWWRegister[string](clock)

	r1.Set("first")
	r2.Set("last")

	r1.Merge(r2)
	r2.Merge(r1)

	require.Equal(t, "last", r1.Value())
	require.Equal(t, "last", r2.Value())
}

func TestLWWRegister_TieFavorsLocal(t *testing.T) {
	tied := time.Unix(100, 0).UTC()
	r := NewLWWRegisterSystemClock[string]()
	r.Apply(SetLWW[string]{Value: "local", Timestamp: tied})

	r.Apply(SetLWW[string]{Value: "remote", Timestamp: tied})

	require.Equal(t, "local", r.Value(), "equal timestamp must not overwrite the local value")
}

func TestLWWRegister_RoundTrip(t *testing.T) {
	r := NewLWWRegisterSystemClock[string]()
	r.Set("hello")

	data, err := r.MarshalBinary()
	require.NoError(t, err)

	decoded := NewLWWRegisterSystemClock[string]()
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, r.Value(), decoded.Value())
}
