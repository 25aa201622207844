// File: api/io.go
// Author: momentics <momentics@gmail.com>
//
// Outcome codes for a single attempt on a pollable I/O channel.

package api

// IOStatus classifies the outcome of one try_read/try_write attempt on
// a non-blocking transport.
type IOStatus int

const (
	// IODone means the attempt completed synchronously and the byte count
	// is valid. A zero-byte read with IODone is a clean EOF from the peer,
	// not an error and not a pending condition.
	IODone IOStatus = iota

	// IOPending means the transport would block. The callee must have
	// stored a waker for the blocked direction before returning this,
	// otherwise the operation is never retried.
	IOPending

	// IOError means an unrecoverable transport failure. The connection is
	// unusable; the owning task is expected to resolve to an error and the
	// connection registration to be torn down.
	IOError
)

// String returns the symbolic name of the status.
func (s IOStatus) String() string {
	switch s {
	case IODone:
		return "done"
	case IOPending:
		return "pending"
	case IOError:
		return "error"
	default:
		return "unknown"
	}
}
