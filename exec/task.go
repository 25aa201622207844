// File: exec/task.go
// Author: momentics <momentics@gmail.com>
//
// Task: one asynchronous computation with a tagged, read-once result.

package exec

import "github.com/momentics/hioload-reactor/api"

// Kind discriminates the final value a Task resolves to. The set is
// closed: engines produce exactly these outcome shapes.
type Kind int

const (
	// KindEmpty is a completion carrying no payload, e.g. a server
	// connection that has been fully served, or a drained body.
	KindEmpty Kind = iota
	// KindError is a failed completion; Value.Err holds the cause.
	// An error result is a normal completion, not an exception.
	KindError
	// KindConn carries a ready connection handle from a handshake.
	KindConn
	// KindResponse carries a response object from a completed exchange.
	KindResponse
	// KindChunk carries one body chunk as []byte in Value.Payload.
	KindChunk
)

// String returns the symbolic name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindError:
		return "error"
	case KindConn:
		return "conn"
	case KindResponse:
		return "response"
	case KindChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// Value is the tagged result of a completed Task. Payload holds the
// kind-specific handle: an engine connection for KindConn, a response
// object for KindResponse, a []byte for KindChunk. Err is set only for
// KindError.
type Value struct {
	Kind    Kind
	Err     error
	Payload any
}

// StepFunc advances a task by one poll. It either returns the final
// Value with done=true, or done=false after storing a waker obtained
// from cx somewhere that guarantees a later wake. Returning done=false
// without a stored waker parks the task forever.
type StepFunc func(cx *Context) (Value, bool)

type taskState int

const (
	statePending taskState = iota
	stateReady
	stateCompleted
)

// Task represents one asynchronous computation held by an Executor.
// A Task is created by an engine (handshake, send and body-read
// operations all produce tasks), pushed onto an Executor, and freed by
// the caller once its value has been consumed.
type Task struct {
	step  StepFunc
	exec  *Executor
	state taskState
	value Value
	tag   any
	taken bool
	freed bool
}

// NewTask wraps step into a Task. The task does nothing until pushed
// onto an Executor.
func NewTask(step StepFunc) *Task {
	return &Task{step: step}
}

// SetTag attaches an opaque routing tag. Applications dispatch completed
// tasks by type-switching on the tag rather than by completion order.
func (t *Task) SetTag(tag any) { t.tag = tag }

// Tag returns the tag set via SetTag, or nil.
func (t *Task) Tag() any { return t.tag }

// Completed reports whether the task has resolved. Until it does, the
// task's kind and value must not be queried.
func (t *Task) Completed() bool { return t.state == stateCompleted }

// Kind returns the outcome kind of a completed task. It is only
// meaningful after the Executor has returned the task from Poll.
func (t *Task) Kind() Kind { return t.value.Kind }

// Value returns the task's result exactly once. It fails with
// api.ErrTaskNotComplete before completion and api.ErrValueConsumed on
// a second read.
func (t *Task) Value() (Value, error) {
	if t.freed {
		return Value{}, api.ErrTaskFreed
	}
	if t.state != stateCompleted {
		return Value{}, api.ErrTaskNotComplete
	}
	if t.taken {
		return Value{}, api.ErrValueConsumed
	}
	t.taken = true
	return t.value, nil
}

// free marks the task dead. Outstanding wakers targeting it become
// no-ops; the executor skips it if it is still queued.
func (t *Task) free() {
	t.freed = true
	t.step = nil
	t.tag = nil
	t.value = Value{}
}
