// File: exec/waker.go
// Author: momentics <momentics@gmail.com>
//
// Waker: one-shot clonable resumption handle, and the per-poll Context
// that mints it.

package exec

// suspension identifies one (task, suspension point) pair. Every clone
// of a waker shares the same suspension, so the first wake of any clone
// wins and the rest are no-ops.
type suspension struct {
	task  *Task
	fired bool
}

// A Waker is stashed by a blocked task and later invoked by an external
// party, typically the reactor loop, to signal "try again". Wake and
// Release both consume the handle; a consumed waker is inert.
//
// Waking a task that has already completed or been freed is a safe
// no-op. The original design left that case undefined; here the
// suspension keeps a task reference that is validated on every wake.
type Waker struct {
	s        *suspension
	consumed bool
}

// Clone returns a second handle to the same suspension point. Either
// handle may wake or be released independently; the task resumes at
// most once per suspension regardless.
func (w *Waker) Clone() *Waker {
	return &Waker{s: w.s}
}

// Wake consumes the waker and marks the referenced task ready in its
// owning executor. Duplicate wakes coalesce: a task already queued is
// not queued twice.
func (w *Waker) Wake() {
	if w == nil || w.consumed {
		return
	}
	w.consumed = true
	s := w.s
	if s.fired {
		return
	}
	s.fired = true
	t := s.task
	if t == nil || t.freed || t.exec == nil {
		return
	}
	t.exec.makeReady(t)
}

// Release consumes the waker without waking. Used when a direction is
// torn down before it ever became ready.
func (w *Waker) Release() {
	if w == nil || w.consumed {
		return
	}
	w.consumed = true
}

// Context is handed to a task's step function on every poll. It is only
// valid for the duration of that poll.
type Context struct {
	exec *Executor
	task *Task
}

// Waker mints a resumption handle for the current suspension point.
// Each call creates an independent suspension; a step that blocks on
// two directions takes two wakers.
func (cx *Context) Waker() *Waker {
	return &Waker{s: &suspension{task: cx.task}}
}

// Executor returns the executor polling this task, giving step
// functions access to the timer registry.
func (cx *Context) Executor() *Executor { return cx.exec }
