package testutil

import (
	"sync"

	"github.com/roach88/tinyprof/prof"
)

// ManualTicks is a tick source whose reading is set by the test.
//
// Tests move time explicitly with Set or Advance, so every span has an exact,
// known length. Reads counts how many times the profiler sampled the source.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ManualTicks struct {
	mu    sync.Mutex
	now   prof.Tick
	reads int
}

// NewManualTicks creates a tick source reading start.
func NewManualTicks(start prof.Tick) *ManualTicks {
	return &ManualTicks{now: start}
}

// Now returns the current reading and counts the read.
func (m *ManualTicks) Now() prof.Tick {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.now
}

// Source returns Now as a prof.TickSource.
func (m *ManualTicks) Source() prof.TickSource {
	return m.Now
}

// Set moves the reading to t. Moving backwards is allowed so tests can
// exercise wraparound.
func (m *ManualTicks) Set(t prof.Tick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the reading forward by d and returns the new reading.
func (m *ManualTicks) Advance(d prof.Tick) prof.Tick {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}

// Reads returns how many times Now has been called.
func (m *ManualTicks) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Reset sets the reading to 0 and clears the read counter.
func (m *ManualTicks) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = 0
	m.reads = 0
}
