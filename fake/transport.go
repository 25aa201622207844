// File: fake/transport.go
// Author: momentics <momentics@gmail.com>

// Package fake provides scriptable implementations of the transport
// and reactor contracts so the bridge can be exercised without
// sockets.
package fake

import (
	"bytes"

	"github.com/momentics/hioload-reactor/api"
)

type readStep struct {
	data []byte
	eof  bool
	err  error
}

type writeStep struct {
	limit int // max bytes accepted; 0 with err/block set means refuse
	err   error
}

// Transport is a scripted duplex implementing pollio.Transport. Reads
// consume a queue of scripted outcomes and report would-block once the
// queue is empty; writes are recorded and succeed unless a would-block
// or error step is queued.
type Transport struct {
	fd         int
	reads      []readStep
	writes     []writeStep
	wrote      bytes.Buffer
	closed     bool
	closeCount int
}

// NewTransport creates a fake transport with a synthetic descriptor.
func NewTransport(fd int) *Transport {
	return &Transport{fd: fd}
}

// FD returns the synthetic descriptor.
func (t *Transport) FD() int { return t.fd }

// QueueRead scripts one successful read returning a copy of data.
func (t *Transport) QueueRead(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	t.reads = append(t.reads, readStep{data: cp})
}

// QueueReadWouldBlock scripts one would-block read outcome.
func (t *Transport) QueueReadWouldBlock() {
	t.reads = append(t.reads, readStep{err: api.ErrWouldBlock})
}

// QueueReadError scripts one fatal read outcome.
func (t *Transport) QueueReadError(err error) {
	t.reads = append(t.reads, readStep{err: err})
}

// QueueEOF scripts a clean zero-byte read.
func (t *Transport) QueueEOF() {
	t.reads = append(t.reads, readStep{eof: true})
}

// QueueWriteWouldBlock makes the next write report would-block.
func (t *Transport) QueueWriteWouldBlock() {
	t.writes = append(t.writes, writeStep{err: api.ErrWouldBlock})
}

// QueueWriteError makes the next write fail fatally.
func (t *Transport) QueueWriteError(err error) {
	t.writes = append(t.writes, writeStep{err: err})
}

// QueueWriteShort makes the next write accept at most limit bytes.
func (t *Transport) QueueWriteShort(limit int) {
	t.writes = append(t.writes, writeStep{limit: limit})
}

// Read implements pollio.Transport. An exhausted script would-blocks,
// mimicking an idle socket.
func (t *Transport) Read(p []byte) (int, error) {
	if t.closed {
		return 0, api.ErrConnClosed
	}
	if len(t.reads) == 0 {
		return 0, api.ErrWouldBlock
	}
	step := t.reads[0]
	t.reads = t.reads[1:]
	if step.err != nil {
		return 0, step.err
	}
	if step.eof {
		return 0, nil
	}
	n := copy(p, step.data)
	if n < len(step.data) {
		// Remainder stays queued for the next read.
		rest := step.data[n:]
		t.reads = append([]readStep{{data: rest}}, t.reads...)
	}
	return n, nil
}

// Write implements pollio.Transport, recording everything accepted.
func (t *Transport) Write(p []byte) (int, error) {
	if t.closed {
		return 0, api.ErrConnClosed
	}
	if len(t.writes) > 0 {
		step := t.writes[0]
		t.writes = t.writes[1:]
		if step.err != nil {
			return 0, step.err
		}
		if step.limit < len(p) {
			t.wrote.Write(p[:step.limit])
			return step.limit, nil
		}
	}
	t.wrote.Write(p)
	return len(p), nil
}

// Close implements pollio.Transport and counts invocations so tests
// can assert single-teardown.
func (t *Transport) Close() error {
	t.closeCount++
	t.closed = true
	return nil
}

// Written returns everything accepted by Write so far.
func (t *Transport) Written() []byte { return t.wrote.Bytes() }

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool { return t.closed }

// CloseCount returns how many times Close was called.
func (t *Transport) CloseCount() int { return t.closeCount }
