// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the shared contracts of the hioload-reactor core:
// pollable I/O status codes, readiness direction masks, and the common
// error vocabulary used across the executor, the I/O channel adapter and
// the reactor loop.
package api
