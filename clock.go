package crdt

import "time"

// Clock is the pluggable source of wall-clock timestamps consumed by
// LWWRegister on every Set. Replica clocks need not be synchronized for
// convergence to hold; skew only degrades last-writer fairness, since
// every replica still converges to the globally-maximum timestamp's value.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by the process wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
