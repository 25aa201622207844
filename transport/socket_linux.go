//go:build linux

// File: transport/socket_linux.go
// Author: momentics <momentics@gmail.com>
//
// Raw non-blocking TCP sockets over golang.org/x/sys/unix. The Go net
// package is used only to parse addresses; descriptors stay outside the
// runtime netpoller so the reactor owns their readiness.

package transport

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-reactor/api"
)

// Socket adapts a raw descriptor to the pollio.Transport contract.
// EAGAIN becomes api.ErrWouldBlock, EINTR is retried, and a zero-byte
// read passes through as the clean-EOF signal.
type Socket struct {
	fd     int
	closed bool
}

// NewSocket wraps an already non-blocking descriptor.
func NewSocket(fd int) *Socket {
	return &Socket{fd: fd}
}

// FD returns the underlying descriptor.
func (s *Socket) FD() int { return s.fd }

// Read performs one non-blocking read.
func (s *Socket) Read(p []byte) (int, error) {
	if s.closed {
		return 0, api.ErrConnClosed
	}
	for {
		n, err := unix.Read(s.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, api.ErrWouldBlock
		default:
			return 0, fmt.Errorf("read fd=%d: %w", s.fd, err)
		}
	}
}

// Write performs one non-blocking write.
func (s *Socket) Write(p []byte) (int, error) {
	if s.closed {
		return 0, api.ErrConnClosed
	}
	for {
		n, err := unix.Write(s.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, api.ErrWouldBlock
		default:
			return 0, fmt.Errorf("write fd=%d: %w", s.fd, err)
		}
	}
}

// Close releases the descriptor exactly once.
func (s *Socket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

func sockaddr(host string, port int) (unix.Sockaddr, int, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, 0, fmt.Errorf("%w: host %q", api.ErrInvalidArgument, host)
	}
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET, nil
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, unix.AF_INET6, nil
}

// Listen opens a non-blocking, close-on-exec listening socket with
// SO_REUSEADDR, returning its descriptor.
func Listen(host string, port, backlog int) (int, error) {
	sa, family, err := sockaddr(host, port)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind %s:%d: %w", host, port, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}

// Dial connects to host:port with a blocking connect, then flips the
// socket non-blocking before handing it to the reactor, matching the
// client lifecycle of the original design.
func Dial(host string, port int) (*Socket, error) {
	sa, family, err := sockaddr(host, port)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("connect %s:%d: %w", host, port, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	return NewSocket(fd), nil
}

// Accept takes one queued connection off a listening descriptor,
// already non-blocking and close-on-exec. It returns api.ErrWouldBlock
// when the queue is drained; accept loops run until they see it, since
// the multiplexer may coalesce several arrivals into one readiness
// notification.
func Accept(listenFD int) (*Socket, error) {
	for {
		nfd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
			return NewSocket(nfd), nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return nil, api.ErrWouldBlock
		case unix.ECONNABORTED:
			// Peer gave up while queued; try the next one.
			continue
		default:
			return nil, fmt.Errorf("accept: %w", err)
		}
	}
}

// IsWouldBlock reports whether err is the drained-queue signal.
func IsWouldBlock(err error) bool {
	return errors.Is(err, api.ErrWouldBlock)
}

// LocalPort reports the port a descriptor is bound to, which is how a
// listener opened on port 0 learns its kernel-assigned port.
func LocalPort(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, fmt.Errorf("getsockname: %w", err)
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port, nil
	case *unix.SockaddrInet6:
		return a.Port, nil
	default:
		return 0, api.ErrNotSupported
	}
}
