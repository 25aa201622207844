// File: exec/timer.go
// Author: momentics <momentics@gmail.com>
//
// Engine-owned deadline registry. The executor does not enforce
// timeouts itself; it only tells the reactor loop how long it may
// block, and wakes the armed waker once the deadline passes.

package exec

import (
	"container/heap"
	"time"
)

// TimerID names one armed deadline for cancellation.
type TimerID uint64

type timerEntry struct {
	id       TimerID
	at       time.Time
	waker    *Waker
	canceled bool
}

// entryHeap orders timer entries by deadline, earliest first.
type entryHeap []*timerEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)         { *h = append(*h, x.(*timerEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

type timerHeap struct {
	entries entryHeap
	nextID  TimerID
}

func (th *timerHeap) drop() {
	for _, e := range th.entries {
		e.waker.Release()
	}
	th.entries = nil
}

// ArmTimer registers a deadline. When it passes, the waker is woken by
// the next FireTimers call. The executor takes ownership of the waker.
func (e *Executor) ArmTimer(at time.Time, w *Waker) TimerID {
	e.timers.nextID++
	entry := &timerEntry{id: e.timers.nextID, at: at, waker: w}
	heap.Push(&e.timers.entries, entry)
	return entry.id
}

// CancelTimer disarms a deadline and releases its waker. It reports
// whether the timer was still armed. Canceled entries are dropped
// lazily when they reach the top of the heap.
func (e *Executor) CancelTimer(id TimerID) bool {
	for _, entry := range e.timers.entries {
		if entry.id == id && !entry.canceled {
			entry.canceled = true
			entry.waker.Release()
			entry.waker = nil
			return true
		}
	}
	return false
}

// NextTimerPop returns how long the reactor may block before the
// earliest armed deadline, and false when no timer is armed (block
// indefinitely). An already due deadline yields zero: poll, don't block.
func (e *Executor) NextTimerPop(now time.Time) (time.Duration, bool) {
	e.pruneCanceled()
	if len(e.timers.entries) == 0 {
		return 0, false
	}
	d := e.timers.entries[0].at.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// FireTimers wakes every waker whose deadline has passed, returning the
// count of timers fired.
func (e *Executor) FireTimers(now time.Time) int {
	fired := 0
	for len(e.timers.entries) > 0 {
		top := e.timers.entries[0]
		if top.canceled {
			heap.Pop(&e.timers.entries)
			continue
		}
		if top.at.After(now) {
			break
		}
		heap.Pop(&e.timers.entries)
		top.waker.Wake()
		fired++
	}
	return fired
}

func (e *Executor) pruneCanceled() {
	for len(e.timers.entries) > 0 && e.timers.entries[0].canceled {
		heap.Pop(&e.timers.entries)
	}
}
