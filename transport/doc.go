// File: transport/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package transport provides the non-blocking socket plumbing under the
// I/O channel adapter: listener and client socket creation, accept
// draining, and a Socket type that maps raw descriptor reads and writes
// onto the pollio.Transport contract.
package transport
