// File: engine/client.go
// Author: momentics <momentics@gmail.com>
//
// Client side of the demo protocol: handshake, request send, body
// streaming. Each operation is one task; the caller tags and pushes it.

package engine

import (
	"fmt"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/exec"
	"github.com/momentics/hioload-reactor/pollio"
)

// ClientConn is the handle a successful handshake resolves to.
type ClientConn struct {
	io *pollio.IO
	lr *lineReader
}

// IO exposes the underlying channel, mainly for teardown.
func (c *ClientConn) IO() *pollio.IO { return c.io }

// Response is the typed payload of a completed send task.
type Response struct {
	Status string
	body   *Body
}

// Body returns the streaming body handle for this response.
func (r *Response) Body() *Body { return r.body }

// Body streams response lines as chunk tasks.
type Body struct {
	lr *lineReader
}

// Handshake returns a task that resolves to KindConn carrying a
// *ClientConn once the greeting exchange completes.
func Handshake(io *pollio.IO) *exec.Task {
	lw := &lineWriter{io: io}
	lw.queue(hello)
	lr := &lineReader{io: io}
	sent := false
	return exec.NewTask(func(cx *exec.Context) (exec.Value, bool) {
		if !sent {
			switch lw.pollFlush(cx) {
			case api.IODone:
				sent = true
			case api.IOPending:
				return exec.Value{}, false
			default:
				return errValue(fmt.Errorf("handshake write failed")), true
			}
		}
		line, eof, st := lr.pollLine(cx)
		switch st {
		case api.IODone:
			if eof {
				return errValue(fmt.Errorf("peer closed during handshake")), true
			}
			if line != hello {
				return errValue(fmt.Errorf("unexpected greeting %q", line)), true
			}
			conn := &ClientConn{io: io, lr: lr}
			return exec.Value{Kind: exec.KindConn, Payload: conn}, true
		case api.IOPending:
			return exec.Value{}, false
		default:
			return errValue(fmt.Errorf("handshake read failed")), true
		}
	})
}

// Send returns a task that writes one request line and resolves to
// KindResponse once the status line arrives. The response body is
// consumed afterwards through Body.Next tasks.
func (c *ClientConn) Send(request string) *exec.Task {
	lw := &lineWriter{io: c.io}
	lw.queue(request)
	sent := false
	return exec.NewTask(func(cx *exec.Context) (exec.Value, bool) {
		if !sent {
			switch lw.pollFlush(cx) {
			case api.IODone:
				sent = true
			case api.IOPending:
				return exec.Value{}, false
			default:
				return errValue(fmt.Errorf("request write failed")), true
			}
		}
		line, eof, st := c.lr.pollLine(cx)
		switch st {
		case api.IODone:
			if eof {
				return errValue(fmt.Errorf("peer closed awaiting response")), true
			}
			if len(line) == 0 || line[0] != '+' {
				return errValue(fmt.Errorf("malformed status line %q", line)), true
			}
			resp := &Response{Status: line[1:], body: &Body{lr: c.lr}}
			return exec.Value{Kind: exec.KindResponse, Payload: resp}, true
		case api.IOPending:
			return exec.Value{}, false
		default:
			return errValue(fmt.Errorf("response read failed")), true
		}
	})
}

// Next returns a task resolving to KindChunk with the next body line,
// or KindEmpty once the terminator arrives.
func (b *Body) Next() *exec.Task {
	return exec.NewTask(func(cx *exec.Context) (exec.Value, bool) {
		line, eof, st := b.lr.pollLine(cx)
		switch st {
		case api.IODone:
			if eof {
				return errValue(fmt.Errorf("peer closed mid-body")), true
			}
			if line == terminator {
				return exec.Value{Kind: exec.KindEmpty}, true
			}
			return exec.Value{Kind: exec.KindChunk, Payload: []byte(line)}, true
		case api.IOPending:
			return exec.Value{}, false
		default:
			return errValue(fmt.Errorf("body read failed")), true
		}
	})
}
