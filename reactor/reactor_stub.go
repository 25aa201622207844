//go:build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "github.com/momentics/hioload-reactor/api"

// New returns an error on platforms without a readiness multiplexer
// implementation.
func New() (Reactor, error) {
	return nil, api.ErrNotSupported
}

// Notifier is unavailable off Linux.
type Notifier struct{}

// NewNotifier returns an error on platforms without eventfd.
func NewNotifier() (*Notifier, error) {
	return nil, api.ErrNotSupported
}

func (n *Notifier) FD() int                { return -1 }
func (n *Notifier) Notify() error          { return api.ErrNotSupported }
func (n *Notifier) Drain() (uint64, error) { return 0, api.ErrNotSupported }
func (n *Notifier) Close() error           { return nil }
