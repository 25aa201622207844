// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness multiplexer interface.

package reactor

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
)

// Event is one readiness report from Wait.
type Event struct {
	FD    int
	Ready api.Ready
}

// Reactor is a level-triggered readiness multiplexer. It is an explicit
// value owned by the loop that drives it; there is no process-wide
// instance.
//
// Interest masks are exact: Add and Modify register precisely the
// requested directions, and error/hangup conditions are always
// delivered regardless of the mask. An empty mask keeps the descriptor
// registered but quiet, which is how the loop silences a direction with
// no parked waker.
type Reactor interface {
	// Add registers a descriptor with an initial interest mask.
	Add(fd int, interest api.Ready) error

	// Modify replaces the registered interest mask of a descriptor.
	Modify(fd int, interest api.Ready) error

	// Delete removes a descriptor from the multiplexer.
	Delete(fd int) error

	// Wait blocks until readiness is available or the timeout elapses,
	// filling events and returning the count. A negative timeout blocks
	// indefinitely; zero polls without blocking. An interrupted wait
	// returns (0, nil) so the caller re-evaluates its deadlines.
	Wait(events []Event, timeout time.Duration) (int, error)

	// Close releases the multiplexer. Registered descriptors are not
	// closed; their owners close them.
	Close() error
}
