// File: api/shutdown.go
// Package api defines the unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that can stop cleanly,
// releasing descriptors and parked wakers before returning.
type GracefulShutdown interface {
	// Shutdown stops the component and releases its resources. It is safe
	// to call more than once; later calls are no-ops.
	Shutdown() error
}
