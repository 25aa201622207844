//go:build linux

// File: reactor/notifier_linux.go
// Author: momentics <momentics@gmail.com>
//
// Eventfd-backed pseudo-descriptor. Lets out-of-band events, signal
// delivery above all, travel through the same multiplexer as socket
// readiness instead of interrupting the loop asynchronously.

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Notifier is registered in the reactor like any connection. Notify may
// be called from another goroutine (the os/signal relay); everything
// else stays on the loop goroutine.
type Notifier struct {
	fd     int
	closed bool
}

// NewNotifier creates a non-blocking eventfd.
func NewNotifier() (*Notifier, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Notifier{fd: fd}, nil
}

// FD returns the pseudo-descriptor to register with the reactor.
func (n *Notifier) FD() int { return n.fd }

// Notify makes the descriptor readable. Safe to call from any
// goroutine; the kernel serializes the counter update.
func (n *Notifier) Notify() error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(n.fd, one[:])
	if err == unix.EAGAIN {
		// Counter saturated; the pending notification already guarantees
		// a wakeup.
		return nil
	}
	return err
}

// Drain consumes all pending notifications, returning how many Notify
// calls were coalesced. Zero with no error means a spurious wakeup.
func (n *Notifier) Drain() (uint64, error) {
	var buf [8]byte
	_, err := unix.Read(n.fd, buf[:])
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, fmt.Errorf("eventfd read: %w", err)
	}
	var count uint64
	for i := 7; i >= 0; i-- {
		count = count<<8 | uint64(buf[i])
	}
	return count, nil
}

// Close releases the eventfd exactly once.
func (n *Notifier) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	return unix.Close(n.fd)
}
