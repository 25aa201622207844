// File: exec/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package exec implements the cooperative single-threaded task core:
// Task (an opaque pollable computation with a tagged result), Waker
// (a one-shot clonable resumption handle), Context (the per-poll source
// of wakers), Executor (the ready/completed scheduler) and an
// engine-owned timer registry that bounds how long the reactor may
// block.
//
// The model is strictly cooperative. A task runs only inside an explicit
// Executor.Poll call and must never block; when it cannot make progress
// it stores a waker somewhere an external party can find it and reports
// itself pending. Waking the waker puts the task back on the ready queue.
// All of this happens on one goroutine: the same one that drives the
// reactor loop.
package exec
