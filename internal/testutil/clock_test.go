package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrozenClock(t *testing.T) {
	start := time.Date(2025, 8, 31, 9, 0, 0, 0, time.UTC)
	c := NewFrozenClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "reads do not advance the clock")

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	reset := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	c.Set(reset)
	assert.Equal(t, reset, c.Now())
}
