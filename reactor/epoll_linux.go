//go:build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) implementation of the readiness multiplexer.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-reactor/api"
)

type epollReactor struct {
	epfd   int
	raw    []unix.EpollEvent
	closed bool
}

// New constructs the platform reactor; on Linux that is epoll.
func New() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollReactor{epfd: epfd}, nil
}

func toEpoll(r api.Ready) uint32 {
	var ev uint32
	if r&api.Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if r&api.Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func fromEpoll(ev uint32) api.Ready {
	var r api.Ready
	if ev&unix.EPOLLIN != 0 {
		r |= api.Readable
	}
	if ev&unix.EPOLLOUT != 0 {
		r |= api.Writable
	}
	if ev&unix.EPOLLERR != 0 {
		r |= api.ReadyErr
	}
	if ev&unix.EPOLLHUP != 0 {
		r |= api.ReadyHup
	}
	return r
}

// Add registers fd with the given interest mask. The descriptor itself
// is the lookup token: the loop keeps the fd-to-connection table, not
// the kernel.
func (r *epollReactor) Add(fd int, interest api.Ready) error {
	if r.closed {
		return api.ErrReactorClosed
	}
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
	}
	return nil
}

// Modify replaces the interest mask of an already registered fd.
func (r *epollReactor) Modify(fd int, interest api.Ready) error {
	if r.closed {
		return api.ErrReactorClosed
	}
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod fd=%d: %w", fd, err)
	}
	return nil
}

// Delete removes fd from the interest set.
func (r *epollReactor) Delete(fd int) error {
	if r.closed {
		return api.ErrReactorClosed
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Wait blocks until readiness or timeout. EINTR is not an error: the
// caller loops and recomputes its deadline.
func (r *epollReactor) Wait(events []Event, timeout time.Duration) (int, error) {
	if r.closed {
		return 0, api.ErrReactorClosed
	}
	if cap(r.raw) < len(events) {
		r.raw = make([]unix.EpollEvent, len(events))
	}
	raw := r.raw[:len(events)]

	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
		// Round a sub-millisecond deadline up so we never spin hot.
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}

	n, err := unix.EpollWait(r.epfd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		events[i] = Event{FD: int(raw[i].Fd), Ready: fromEpoll(raw[i].Events)}
	}
	return n, nil
}

// Close releases the epoll descriptor.
func (r *epollReactor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return unix.Close(r.epfd)
}
