// File: loop/loop.go
// Author: momentics <momentics@gmail.com>
//
// The reactor loop: DRAIN_READY -> COMPUTE_TIMEOUT -> BLOCK_ON_READINESS
// -> DISPATCH_EVENTS, repeated until a shutdown signal arrives through
// the notifier pseudo-descriptor.

package loop

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/exec"
	"github.com/momentics/hioload-reactor/pollio"
	"github.com/momentics/hioload-reactor/reactor"
	"github.com/momentics/hioload-reactor/transport"
)

// AcceptFunc is invoked for every inbound connection the accept drain
// registers. Implementations typically build an engine serve task
// tagged with the connection and push it onto the loop's executor.
// Returning an error drops the connection without affecting the loop.
type AcceptFunc func(l *Loop, c *pollio.Conn, io *pollio.IO) error

// TaskHandler receives every completed task. When nil, the loop falls
// back to tag-based teardown: tasks tagged with their *pollio.Conn
// close it on completion, error outcomes are logged, and the task is
// freed.
type TaskHandler func(l *Loop, t *exec.Task)

// Loop owns the executor, the readiness multiplexer, and the
// fd-to-connection registration table. All methods except Shutdown
// must be called from the goroutine running Run.
type Loop struct {
	cfg      *Config
	executor *exec.Executor
	reactor  reactor.Reactor
	notifier *reactor.Notifier
	metrics  *control.Metrics
	probes   *control.DebugProbes

	conns map[int]*pollio.Conn
	dirty map[int]*pollio.Conn

	listenFD int
	onAccept AcceptFunc
	onTask   TaskHandler

	events   []reactor.Event
	sigCh    chan os.Signal
	stopping atomic.Bool
	closed   bool
}

// New builds a loop with the platform reactor unless one is injected.
func New(opts ...Option) (*Loop, error) {
	l := &Loop{
		cfg:      DefaultConfig(),
		executor: exec.NewExecutor(),
		conns:    make(map[int]*pollio.Conn),
		dirty:    make(map[int]*pollio.Conn),
		listenFD: -1,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = control.NewMetrics()
	}
	if l.reactor == nil {
		r, err := reactor.New()
		if err != nil {
			return nil, err
		}
		l.reactor = r
	}
	n, err := reactor.NewNotifier()
	if err != nil {
		l.reactor.Close()
		return nil, err
	}
	l.notifier = n
	if err := l.reactor.Add(n.FD(), api.Readable); err != nil {
		n.Close()
		l.reactor.Close()
		return nil, fmt.Errorf("register notifier: %w", err)
	}
	l.events = make([]reactor.Event, l.cfg.MaxEvents)
	if l.probes != nil {
		l.probes.Register("loop.conns", l.connProbe)
	}
	return l, nil
}

// Executor returns the loop's task executor.
func (l *Loop) Executor() *exec.Executor { return l.executor }

// Metrics returns the loop's counter registry.
func (l *Loop) Metrics() *control.Metrics { return l.metrics }

// Push hands a task to the executor.
func (l *Loop) Push(t *exec.Task) error { return l.executor.Push(t) }

// OnTask installs the completed-task dispatcher.
func (l *Loop) OnTask(h TaskHandler) { l.onTask = h }

// Listen opens a listening socket and arms the accept drain on it.
func (l *Loop) Listen(host string, port int, accept AcceptFunc) error {
	fd, err := transport.Listen(host, port, l.cfg.AcceptBacklog)
	if err != nil {
		return err
	}
	if err := l.ServeFD(fd, accept); err != nil {
		return err
	}
	return nil
}

// ServeFD arms the accept drain on an existing non-blocking listening
// descriptor.
func (l *Loop) ServeFD(fd int, accept AcceptFunc) error {
	if l.listenFD >= 0 {
		return api.ErrInvalidArgument
	}
	if accept == nil {
		return api.ErrInvalidArgument
	}
	if err := l.reactor.Add(fd, api.Readable); err != nil {
		return fmt.Errorf("register listener: %w", err)
	}
	l.listenFD = fd
	l.onAccept = accept
	return nil
}

// Dial connects out and attaches the socket, returning the pollable IO
// to hand to an engine handshake.
func (l *Loop) Dial(host string, port int) (*pollio.IO, error) {
	sock, err := transport.Dial(host, port)
	if err != nil {
		return nil, err
	}
	io, err := l.Attach(sock)
	if err != nil {
		sock.Close()
		return nil, err
	}
	return io, nil
}

// Attach registers a transport with the loop. The descriptor starts
// with an empty interest mask; the first parked waker arms it. A
// registration failure drops only this connection, never the loop.
func (l *Loop) Attach(tr pollio.Transport) (*pollio.IO, error) {
	c := pollio.NewConn(tr, l)
	if err := l.reactor.Add(tr.FD(), 0); err != nil {
		return nil, api.NewError(api.ErrCodeRegistration, "attach transport").
			WithContext("fd", tr.FD()).
			WithContext("cause", err.Error())
	}
	l.conns[tr.FD()] = c
	return pollio.NewIO(c), nil
}

// InterestChanged implements pollio.Registrar. The conn is queued for
// mask convergence before the next block.
func (l *Loop) InterestChanged(c *pollio.Conn) {
	l.dirty[c.FD()] = c
}

// Detach implements pollio.Registrar: forget the conn and remove its
// descriptor from the multiplexer. Called exactly once, from
// Conn.Close.
func (l *Loop) Detach(c *pollio.Conn) {
	fd := c.FD()
	delete(l.conns, fd)
	delete(l.dirty, fd)
	if err := l.reactor.Delete(fd); err != nil && !l.closed {
		log.Printf("[loop] deregister fd=%d: %v", fd, err)
	}
	l.metrics.Inc(control.CounterTeardowns)
}

// Shutdown requests a graceful stop. Safe to call from any goroutine;
// the loop observes it through the notifier on its next wakeup.
func (l *Loop) Shutdown() error {
	if !l.stopping.CompareAndSwap(false, true) {
		return nil
	}
	return l.notifier.Notify()
}

// Run drives the loop until Shutdown or a caught termination signal.
func (l *Loop) Run() error {
	if len(l.cfg.Signals) > 0 {
		l.sigCh = make(chan os.Signal, 4)
		signal.Notify(l.sigCh, l.cfg.Signals...)
		go func() {
			for sig := range l.sigCh {
				log.Printf("[loop] caught %v, shutting down", sig)
				l.Shutdown()
			}
		}()
		defer func() {
			signal.Stop(l.sigCh)
			close(l.sigCh)
		}()
	}

	defer l.teardown()
	for {
		if err := l.Tick(); err != nil {
			return err
		}
		if l.stopping.Load() {
			return nil
		}
	}
}

// Tick runs one full reactor iteration. Exposed so tests can step the
// loop against a scripted readiness source.
func (l *Loop) Tick() error {
	l.drainReady()
	if l.stopping.Load() {
		return nil
	}

	l.convergeInterest()

	timeout := time.Duration(-1)
	if d, armed := l.executor.NextTimerPop(time.Now()); armed {
		timeout = d
	}

	n, err := l.reactor.Wait(l.events, timeout)
	if err != nil {
		return err
	}
	l.metrics.Inc(control.CounterPolls)

	if fired := l.executor.FireTimers(time.Now()); fired > 0 {
		l.metrics.Add(control.CounterTimerPops, uint64(fired))
	}

	for i := 0; i < n; i++ {
		l.dispatchEvent(l.events[i])
	}
	return nil
}

// drainReady pulls every completed task out of the executor and routes
// it. All currently ready tasks advance before the loop blocks again,
// so nothing starves while its waker keeps firing.
func (l *Loop) drainReady() {
	for {
		t := l.executor.Poll()
		if t == nil {
			return
		}
		if t.Kind() == exec.KindError {
			l.metrics.Inc(control.CounterTaskErr)
		} else {
			l.metrics.Inc(control.CounterTaskDone)
		}
		if l.onTask != nil {
			l.onTask(l, t)
			continue
		}
		l.defaultDispatch(t)
	}
}

// defaultDispatch implements the serve-task convention: a task tagged
// with its *pollio.Conn owns that connection, so completion or error
// tears the connection down without touching any other.
func (l *Loop) defaultDispatch(t *exec.Task) {
	v, err := t.Value()
	if err != nil {
		l.executor.Free(t)
		return
	}
	if c, ok := t.Tag().(*pollio.Conn); ok && c != nil {
		if v.Kind == exec.KindError {
			log.Printf("[loop] connection fd=%d failed: %v", c.FD(), v.Err)
		}
		c.Close()
	} else if v.Kind == exec.KindError {
		log.Printf("[loop] task failed: %v", v.Err)
	}
	l.executor.Free(t)
}

// convergeInterest narrows or widens each touched connection's
// registered mask to exactly the directions holding an unconsumed
// waker. Under-registration loses wakeups; leaving stale directions
// armed spins on level-triggered readiness nobody consumes.
func (l *Loop) convergeInterest() {
	for fd, c := range l.dirty {
		delete(l.dirty, fd)
		if c.Closed() {
			continue
		}
		want := c.Want()
		if want == c.Armed() {
			continue
		}
		if err := l.reactor.Modify(fd, want); err != nil {
			log.Printf("[loop] converge fd=%d mask=%v: %v", fd, want, err)
			c.Close()
			continue
		}
		c.SetArmed(want)
	}
}

func (l *Loop) dispatchEvent(ev reactor.Event) {
	switch {
	case ev.FD == l.notifier.FD():
		l.notifier.Drain()
	case ev.FD == l.listenFD:
		l.drainAccept()
	default:
		l.dispatchConn(ev)
	}
}

// dispatchConn wakes the parked waker for each ready direction, or
// queues a mask shrink when readiness arrives with nothing parked (a
// consumed or never-armed direction on a level-triggered multiplexer).
func (l *Loop) dispatchConn(ev reactor.Event) {
	c := l.conns[ev.FD]
	if c == nil {
		// Torn down after the event was harvested; stale notification.
		return
	}
	if ev.Ready.HasError() {
		// Wake both directions so the owning task observes the failure
		// synchronously on its next transport call.
		if w := c.TakeReadWaker(); w != nil {
			w.Wake()
			l.metrics.Inc(control.CounterWakes)
		}
		if w := c.TakeWriteWaker(); w != nil {
			w.Wake()
			l.metrics.Inc(control.CounterWakes)
		}
		return
	}
	if ev.Ready.IsReadable() {
		if w := c.TakeReadWaker(); w != nil {
			w.Wake()
			l.metrics.Inc(control.CounterWakes)
		} else {
			l.metrics.Inc(control.CounterSpurious)
			l.InterestChanged(c)
		}
	}
	if ev.Ready.IsWritable() {
		if w := c.TakeWriteWaker(); w != nil {
			w.Wake()
			l.metrics.Inc(control.CounterWakes)
		} else {
			l.metrics.Inc(control.CounterSpurious)
			l.InterestChanged(c)
		}
	}
}

// drainAccept accepts until the queue reports would-block, since one
// readiness notification may cover several queued arrivals. Each
// connection gets its own registration and serve task; a failure on
// one drops only that one.
func (l *Loop) drainAccept() {
	for {
		sock, err := transport.Accept(l.listenFD)
		if err != nil {
			if !transport.IsWouldBlock(err) {
				log.Printf("[loop] accept: %v", err)
			}
			return
		}
		io, err := l.Attach(sock)
		if err != nil {
			log.Printf("[loop] attach accepted fd=%d: %v", sock.FD(), err)
			sock.Close()
			continue
		}
		l.metrics.Inc(control.CounterAccepts)
		if err := l.onAccept(l, io.Conn(), io); err != nil {
			log.Printf("[loop] accept handler: %v", err)
			io.Conn().Close()
		}
	}
}

func (l *Loop) connProbe() any {
	type connState struct {
		FD    int
		Want  string
		Armed string
	}
	out := make([]connState, 0, len(l.conns))
	for fd, c := range l.conns {
		out = append(out, connState{FD: fd, Want: c.Want().String(), Armed: c.Armed().String()})
	}
	return out
}

// teardown closes every live connection, the listener, the notifier
// and the multiplexer. Idempotent.
func (l *Loop) teardown() {
	if l.closed {
		return
	}
	l.closed = true
	for _, c := range l.conns {
		c.Close()
	}
	if l.listenFD >= 0 {
		l.reactor.Delete(l.listenFD)
		transport.NewSocket(l.listenFD).Close()
		l.listenFD = -1
	}
	l.executor.Close()
	l.notifier.Close()
	l.reactor.Close()
	if l.probes != nil {
		l.probes.Unregister("loop.conns")
	}
}

var _ api.GracefulShutdown = (*Loop)(nil)
var _ pollio.Registrar = (*Loop)(nil)
