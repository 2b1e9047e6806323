// Package testutil provides deterministic test doubles shared across
// package tests.
package testutil

import (
	"sync"
	"time"
)

// FrozenClock is a settable wall clock for tests.
//
// Time conditions depend on the local hour and calendar day, so tests pin
// the clock to an exact instant and advance it explicitly between cycles.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FrozenClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFrozenClock creates a clock frozen at the given instant.
func NewFrozenClock(at time.Time) *FrozenClock {
	return &FrozenClock{now: at}
}

// Now returns the frozen instant. Satisfies engine.Clock.
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to an exact instant.
func (c *FrozenClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// Advance moves the clock forward by d.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
