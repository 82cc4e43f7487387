package crdt

import "testing"

func TestOpCounter_Basic(t *testing.T) {
	c := NewOpCounter[int]()
	if c.Value() != 0 {
		t.Fatalf("expected zero value, got %d", c.Value())
	}

	c.Add(10)
	if c.Value() != 10 {
		t.Errorf("expected 10, got %d", c.Value())
	}
}

func TestOpCounter_ApplyCommutes(t *testing.T) {
	c1 := NewOpCounter[int]()
	c2 := NewOpCounter[int]()

	op1 := c1.Add(5)
	op2 := c2.Add(7)

	c2.Apply(op1)
	c1.Apply(op2)

	if c1.Value() != 12 || c2.Value() != 12 {
		t.Errorf("expected 12, got c1=%d c2=%d", c1.Value(), c2.Value())
	}
}

func TestOpCounter_RoundTrip(t *testing.T) {
	c := NewOpCounter[int]()
	c.Add(42)

	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	decoded := NewOpCounter[int]()
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if decoded.Value() != c.Value() {
		t.Errorf("round-trip mismatch: got %d want %d", decoded.Value(), c.Value())
	}
}
