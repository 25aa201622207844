// File: loop/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package loop drives the waker-mediated reactor cycle: drain every
// ready task from the executor, converge each connection's registered
// interest mask to the directions actually holding a parked waker,
// block on the OS multiplexer no longer than the executor's next timer
// deadline, then map readiness back onto waker wake-ups and go around
// again. It owns the fd-to-connection table, the accept drain for
// listening sockets, and signal-driven graceful shutdown delivered
// through the same multiplexer as socket readiness.
package loop
