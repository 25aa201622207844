// File: fake/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Scripted readiness multiplexer for loop tests.

package fake

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/reactor"
)

// Reactor implements reactor.Reactor over an in-memory event queue.
// Tests queue readiness and step the loop; Wait never blocks.
type Reactor struct {
	interests map[int]api.Ready
	queue     []reactor.Event

	AddErr    error // forced failure for registration-error paths
	ModifyErr error

	Waits       int
	LastTimeout time.Duration
	closed      bool
}

// NewReactor creates an empty scripted multiplexer.
func NewReactor() *Reactor {
	return &Reactor{interests: make(map[int]api.Ready)}
}

// Queue schedules a readiness event for the next Wait.
func (r *Reactor) Queue(fd int, ready api.Ready) {
	r.queue = append(r.queue, reactor.Event{FD: fd, Ready: ready})
}

// Interest returns the currently registered mask for fd.
func (r *Reactor) Interest(fd int) (api.Ready, bool) {
	m, ok := r.interests[fd]
	return m, ok
}

// Registered reports whether fd is in the interest table.
func (r *Reactor) Registered(fd int) bool {
	_, ok := r.interests[fd]
	return ok
}

// Add implements reactor.Reactor.
func (r *Reactor) Add(fd int, interest api.Ready) error {
	if r.AddErr != nil {
		return r.AddErr
	}
	r.interests[fd] = interest
	return nil
}

// Modify implements reactor.Reactor.
func (r *Reactor) Modify(fd int, interest api.Ready) error {
	if r.ModifyErr != nil {
		return r.ModifyErr
	}
	if _, ok := r.interests[fd]; !ok {
		return api.ErrNotFound
	}
	r.interests[fd] = interest
	return nil
}

// Delete implements reactor.Reactor.
func (r *Reactor) Delete(fd int) error {
	if _, ok := r.interests[fd]; !ok {
		return api.ErrNotFound
	}
	delete(r.interests, fd)
	return nil
}

// Wait implements reactor.Reactor: it drains queued events immediately
// and records the timeout the loop computed.
func (r *Reactor) Wait(events []reactor.Event, timeout time.Duration) (int, error) {
	if r.closed {
		return 0, api.ErrReactorClosed
	}
	r.Waits++
	r.LastTimeout = timeout
	n := copy(events, r.queue)
	r.queue = r.queue[n:]
	return n, nil
}

// Close implements reactor.Reactor.
func (r *Reactor) Close() error {
	r.closed = true
	return nil
}
