// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for the reactor loop: accepts, polls, wakes, timer
// pops, teardowns. Thread-safe so probes can read while the loop runs.

package control

import (
	"sync"
	"time"
)

// Metrics is a registry of monotonic counters keyed by name.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]uint64
	updated  time.Time
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]uint64)}
}

// Inc bumps a counter by one.
func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

// Add bumps a counter by n.
func (m *Metrics) Add(name string, n uint64) {
	m.mu.Lock()
	m.counters[name] += n
	m.updated = time.Now()
	m.mu.Unlock()
}

// Get returns one counter's current value.
func (m *Metrics) Get(name string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// Counter names the loop maintains.
const (
	CounterAccepts   = "loop.accepts"
	CounterPolls     = "loop.polls"
	CounterWakes     = "loop.wakes"
	CounterSpurious  = "loop.spurious_readiness"
	CounterTimerPops = "loop.timer_pops"
	CounterTeardowns = "loop.conn_teardowns"
	CounterTaskDone  = "loop.tasks_completed"
	CounterTaskErr   = "loop.tasks_errored"
)
