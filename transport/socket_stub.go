//go:build !linux

// File: transport/socket_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package transport

import (
	"errors"

	"github.com/momentics/hioload-reactor/api"
)

// Socket is unavailable off Linux.
type Socket struct{}

// NewSocket wraps a descriptor; off Linux the socket is inert.
func NewSocket(fd int) *Socket { return &Socket{} }

func (s *Socket) FD() int                    { return -1 }
func (s *Socket) Read(p []byte) (int, error) { return 0, api.ErrNotSupported }
func (s *Socket) Write(p []byte) (int, error) {
	return 0, api.ErrNotSupported
}
func (s *Socket) Close() error { return nil }

// Listen returns an error on platforms without raw socket support.
func Listen(host string, port, backlog int) (int, error) {
	return -1, api.ErrNotSupported
}

// Dial returns an error on platforms without raw socket support.
func Dial(host string, port int) (*Socket, error) {
	return nil, api.ErrNotSupported
}

// Accept returns an error on platforms without raw socket support.
func Accept(listenFD int) (*Socket, error) {
	return nil, api.ErrNotSupported
}

// IsWouldBlock reports whether err is the drained-queue signal.
func IsWouldBlock(err error) bool {
	return errors.Is(err, api.ErrWouldBlock)
}

// LocalPort returns an error on platforms without raw socket support.
func LocalPort(fd int) (int, error) {
	return 0, api.ErrNotSupported
}
