// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package reactor provides the OS readiness multiplexer behind the
// reactor loop: a platform-neutral Reactor interface, its Linux epoll
// implementation, and an eventfd-backed Notifier used to deliver
// shutdown signals through the same multiplexer as socket readiness.
package reactor
