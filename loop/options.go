// File: loop/options.go
// Package loop defines configuration and functional options for the
// reactor loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package loop

import (
	"os"
	"syscall"

	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/reactor"
)

// Config holds the loop's tunables.
type Config struct {
	MaxEvents     int          // readiness batch size per Wait
	AcceptBacklog int          // listen(2) backlog for Listen helpers
	Signals       []os.Signal  // signals that trigger graceful shutdown
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxEvents:     128,
		AcceptBacklog: 32,
		Signals:       []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
	}
}

// Option customizes loop initialization.
type Option func(*Loop)

// WithMaxEvents overrides the readiness batch size.
func WithMaxEvents(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.cfg.MaxEvents = n
		}
	}
}

// WithSignals replaces the shutdown signal set. An empty set disables
// signal handling entirely; Shutdown remains available.
func WithSignals(sigs ...os.Signal) Option {
	return func(l *Loop) {
		l.cfg.Signals = sigs
	}
}

// WithReactor injects a readiness multiplexer, used by tests to drive
// the loop from a scripted event source.
func WithReactor(r reactor.Reactor) Option {
	return func(l *Loop) {
		l.reactor = r
	}
}

// WithMetrics attaches a counter registry.
func WithMetrics(m *control.Metrics) Option {
	return func(l *Loop) {
		l.metrics = m
	}
}

// WithProbes attaches a debug probe registry; the loop registers a
// connection-table probe on it.
func WithProbes(p *control.DebugProbes) Option {
	return func(l *Loop) {
		l.probes = p
	}
}
