// File: pollio/io.go
// Author: momentics <momentics@gmail.com>
//
// The I/O channel adapter: pollable read/write over a registered
// non-blocking transport.

package pollio

import (
	"errors"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/exec"
)

// IO is what an engine's protocol state machine drives. Both operations
// follow the same shape: attempt the non-blocking transport call; on
// success (including a zero-byte read, which is a clean EOF) report
// done; on would-block park a fresh waker on the connection and report
// pending; on anything else report an unrecoverable error without
// touching the waker slots.
type IO struct {
	conn *Conn
}

// NewIO makes the adapter for a registered connection.
func NewIO(c *Conn) *IO {
	return &IO{conn: c}
}

// Conn exposes the underlying registration record, mainly so completed
// tasks tagged with an IO can reach teardown.
func (io *IO) Conn() *Conn { return io.conn }

// TryRead attempts one non-blocking read into p.
func (io *IO) TryRead(cx *exec.Context, p []byte) (int, api.IOStatus) {
	if io.conn.closed {
		return 0, api.IOError
	}
	n, err := io.conn.tr.Read(p)
	switch {
	case err == nil:
		return n, api.IODone
	case errors.Is(err, api.ErrWouldBlock):
		io.conn.StoreReadWaker(cx.Waker())
		return 0, api.IOPending
	default:
		return 0, api.IOError
	}
}

// TryWrite attempts one non-blocking write of p.
func (io *IO) TryWrite(cx *exec.Context, p []byte) (int, api.IOStatus) {
	if io.conn.closed {
		return 0, api.IOError
	}
	n, err := io.conn.tr.Write(p)
	switch {
	case err == nil:
		return n, api.IODone
	case errors.Is(err, api.ErrWouldBlock):
		io.conn.StoreWriteWaker(cx.Waker())
		return 0, api.IOPending
	default:
		return 0, api.IOError
	}
}
