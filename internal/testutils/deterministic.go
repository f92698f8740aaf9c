// Package testutils provides deterministic clocks, throwaway git repositories and an
// in-memory repository fake for changelog and release tests.
package testutils

import (
	"fmt"
	"sync"
	"time"
)

// BaseTime is the first instant handed out by a Clock: 2025-01-01T00:00:00Z.
var BaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock returns incrementing deterministic timestamps.
type Clock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewClock creates a clock starting at BaseTime that advances step per call.
func NewClock(step time.Duration) *Clock {
	return &Clock{next: BaseTime, step: step}
}

// Now returns the current deterministic time and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// FixedClock returns a clock function that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// UUIDSequence returns a generator of UUID-shaped ids:
// 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002, ...
func UUIDSequence() func() string {
	var (
		mu      sync.Mutex
		counter uint64
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()

		counter++
		return fmt.Sprintf("%08x-0000-4000-8000-%012x", counter, counter)
	}
}
