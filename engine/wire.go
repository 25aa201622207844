// File: engine/wire.go
// Author: momentics <momentics@gmail.com>
//
// Pollable line reader/writer shared by the client and server state
// machines. Both follow the adapter contract: synchronous progress
// when the transport cooperates, pending after a waker is parked,
// error on anything fatal.

package engine

import (
	"bytes"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/exec"
	"github.com/momentics/hioload-reactor/pollio"
)

const (
	hello      = "HELLO"
	terminator = "."
	readChunk  = 4096
)

// lineReader accumulates transport bytes and hands out complete lines.
type lineReader struct {
	io  *pollio.IO
	buf []byte
	eof bool
}

// pollLine returns the next complete line without its newline. eof
// reports a clean peer close with no buffered partial line.
func (lr *lineReader) pollLine(cx *exec.Context) (line string, eof bool, st api.IOStatus) {
	for {
		if i := bytes.IndexByte(lr.buf, '\n'); i >= 0 {
			line = string(lr.buf[:i])
			lr.buf = lr.buf[i+1:]
			return line, false, api.IODone
		}
		if lr.eof {
			return "", true, api.IODone
		}
		tmp := make([]byte, readChunk)
		n, status := lr.io.TryRead(cx, tmp)
		switch status {
		case api.IODone:
			if n == 0 {
				lr.eof = true
				continue
			}
			lr.buf = append(lr.buf, tmp[:n]...)
		default:
			return "", false, status
		}
	}
}

// lineWriter flushes a pending byte slice across partial writes.
type lineWriter struct {
	io      *pollio.IO
	pending []byte
}

func (lw *lineWriter) queue(lines ...string) {
	for _, s := range lines {
		lw.pending = append(lw.pending, s...)
		lw.pending = append(lw.pending, '\n')
	}
}

// pollFlush pushes pending bytes until drained, pending, or fatal.
func (lw *lineWriter) pollFlush(cx *exec.Context) api.IOStatus {
	for len(lw.pending) > 0 {
		n, status := lw.io.TryWrite(cx, lw.pending)
		if status != api.IODone {
			return status
		}
		lw.pending = lw.pending[n:]
	}
	return api.IODone
}

func errValue(err error) exec.Value {
	return exec.Value{Kind: exec.KindError, Err: err}
}
