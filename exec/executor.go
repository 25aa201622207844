// File: exec/executor.go
// Author: momentics <momentics@gmail.com>
//
// Executor: single-threaded cooperative scheduler over ready and
// completed task queues.

package exec

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-reactor/api"
)

// Executor holds the set of live tasks, advances the ones whose wakers
// have fired, and hands newly completed tasks back to the caller one at
// a time.
//
// The Executor is not safe for concurrent use. Push, Poll, Free and all
// waker invocations are expected to happen on the goroutine driving the
// reactor loop; that single-threaded discipline is what makes the
// waker/registration bookkeeping race-free.
type Executor struct {
	ready  *queue.Queue // *Task, wakers fired since last Poll
	done   *queue.Queue // *Task, completed but not yet returned
	timers timerHeap
	closed bool
}

// NewExecutor creates an empty executor.
func NewExecutor() *Executor {
	return &Executor{
		ready: queue.New(),
		done:  queue.New(),
	}
}

// Push adds a new task in the pending state and immediately queues it
// for the next Poll, so a task that can complete synchronously is
// returned without a reactor block in between.
func (e *Executor) Push(t *Task) error {
	if e.closed {
		return api.ErrExecutorClosed
	}
	if t == nil || t.step == nil {
		return api.ErrInvalidArgument
	}
	if t.exec != nil && t.exec != e {
		return api.ErrInvalidArgument
	}
	t.exec = e
	e.makeReady(t)
	return nil
}

// makeReady moves a task onto the ready queue unless it is already
// queued, completed or freed. Duplicate wake-ups coalesce here.
func (e *Executor) makeReady(t *Task) {
	if e.closed || t.freed || t.state != statePending {
		return
	}
	t.state = stateReady
	e.ready.Add(t)
}

// Poll advances every task currently on the ready queue by one step,
// then returns one completed task, or nil when none completed. Repeated
// calls drain the completed set without re-stepping anything; calling
// Poll when nothing is ready returns nil and mutates no state.
//
// No completion order is promised among simultaneously ready tasks;
// callers dispatch on task tags, not on ordering.
func (e *Executor) Poll() *Task {
	for e.ready.Length() > 0 {
		t := e.ready.Remove().(*Task)
		// Skip freed tasks and stale entries: a task that woke itself
		// mid-step and then completed leaves its queue slot behind.
		if t.freed || t.state != stateReady {
			continue
		}
		t.state = statePending
		cx := Context{exec: e, task: t}
		v, finished := t.step(&cx)
		if finished {
			t.state = stateCompleted
			t.value = v
			e.done.Add(t)
		}
		// A task that stepped without finishing stays pending until its
		// waker fires again. If the step woke itself synchronously it is
		// already back on the ready queue and this loop picks it up.
	}
	if e.done.Length() > 0 {
		return e.done.Remove().(*Task)
	}
	return nil
}

// Free releases a task. Any waker still referencing it becomes a no-op,
// and the executor will skip it if it is still sitting in a queue.
// Freeing a task does not tear down resources the task merely borrows;
// connection teardown is the owner's job.
func (e *Executor) Free(t *Task) {
	if t == nil {
		return
	}
	t.free()
}

// Close shuts the executor down. Queued tasks are dropped; pushing or
// waking afterwards is a no-op.
func (e *Executor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	for e.ready.Length() > 0 {
		e.ready.Remove()
	}
	for e.done.Length() > 0 {
		e.done.Remove()
	}
	e.timers.drop()
	return nil
}
