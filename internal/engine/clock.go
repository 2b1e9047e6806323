package engine

import "time"

// Clock abstracts wall-clock reads.
//
// Time conditions compare the current local hour and calendar day, so every
// read inside a cycle goes through this interface to keep evaluation
// deterministic under test. Production uses SystemClock; tests use the
// frozen clock from internal/testutil.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }
