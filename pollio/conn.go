// File: pollio/conn.go
// Author: momentics <momentics@gmail.com>
//
// Per-transport connection registration: descriptor, waker slots and
// the interest mask converged against the OS reactor.

package pollio

import (
	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/exec"
)

// Transport is the raw duplex the adapter drives. Read and Write must
// never block: they return api.ErrWouldBlock when the operation cannot
// proceed, and (0, nil) on Read means the peer closed cleanly.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	FD() int
}

// Registrar is the reactor-loop side of a Conn. The Conn notifies it
// whenever the set of directions holding a stored waker changes, so the
// loop can converge the OS interest mask before it next blocks, and
// when the Conn is torn down, so the loop can deregister the
// descriptor.
type Registrar interface {
	InterestChanged(c *Conn)
	Detach(c *Conn)
}

// Conn is the registration record for one transport. It owns at most
// one live waker per direction; storing a new one releases the old one
// first, so the single-live-waker invariant holds structurally rather
// than by call-site discipline.
type Conn struct {
	tr     Transport
	reg    Registrar
	readW  *exec.Waker
	writeW *exec.Waker
	armed  api.Ready // mask currently registered with the OS reactor
	closed bool
}

// NewConn wraps a transport into a registration record. The registrar
// is told about interest changes and teardown; it is the caller's job
// to have added the descriptor to the reactor already.
func NewConn(tr Transport, reg Registrar) *Conn {
	return &Conn{tr: tr, reg: reg}
}

// FD returns the transport's descriptor.
func (c *Conn) FD() int { return c.tr.FD() }

// Closed reports whether the Conn has been torn down.
func (c *Conn) Closed() bool { return c.closed }

// StoreReadWaker parks a waker for read readiness, releasing any
// previously stored one.
func (c *Conn) StoreReadWaker(w *exec.Waker) {
	c.readW.Release()
	c.readW = w
	c.interestChanged()
}

// StoreWriteWaker parks a waker for write readiness, releasing any
// previously stored one.
func (c *Conn) StoreWriteWaker(w *exec.Waker) {
	c.writeW.Release()
	c.writeW = w
	c.interestChanged()
}

// TakeReadWaker clears and returns the stored read waker, or nil.
func (c *Conn) TakeReadWaker() *exec.Waker {
	w := c.readW
	if w == nil {
		return nil
	}
	c.readW = nil
	c.interestChanged()
	return w
}

// TakeWriteWaker clears and returns the stored write waker, or nil.
func (c *Conn) TakeWriteWaker() *exec.Waker {
	w := c.writeW
	if w == nil {
		return nil
	}
	c.writeW = nil
	c.interestChanged()
	return w
}

// Want returns the directions currently holding a stored waker. The
// mask registered with the OS reactor must always be a superset of
// this; the loop converges it to exactly this before blocking.
func (c *Conn) Want() api.Ready {
	var r api.Ready
	if c.readW != nil {
		r |= api.Readable
	}
	if c.writeW != nil {
		r |= api.Writable
	}
	return r
}

// Armed returns the interest mask last registered with the OS reactor.
func (c *Conn) Armed() api.Ready { return c.armed }

// SetArmed records the interest mask the loop has registered.
func (c *Conn) SetArmed(r api.Ready) { c.armed = r }

func (c *Conn) interestChanged() {
	if c.closed || c.reg == nil {
		return
	}
	c.reg.InterestChanged(c)
}

// Close tears the registration down exactly once: both waker slots are
// released, the registrar deregisters the descriptor, and the transport
// is closed. Every exit path of an owning task funnels through here, so
// a task dropped while a direction is still parked leaks neither waker
// nor descriptor.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.readW.Release()
	c.readW = nil
	c.writeW.Release()
	c.writeW = nil
	if c.reg != nil {
		c.reg.Detach(c)
	}
	return c.tr.Close()
}
