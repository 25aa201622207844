// File: engine/server.go
// Author: momentics <momentics@gmail.com>
//
// Server side of the demo protocol: one serve task per connection,
// driven to completion by the reactor loop. The request-read deadline
// is armed through the executor's timer registry, so the loop's block
// is bounded by it.

package engine

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/exec"
	"github.com/momentics/hioload-reactor/pollio"
)

// Handler produces a status and body lines for one request line.
type Handler func(request string) (status string, body []string)

type serveStage int

const (
	stageGreetRead serveStage = iota
	stageGreetWrite
	stageRequest
	stageRespond
)

// Serve returns a task that speaks the server side of the protocol
// until the peer closes, resolving to KindEmpty. Protocol violations
// and transport failures resolve to KindError; the loop's dispatch
// tears the tagged connection down either way.
//
// readTimeout bounds how long the task waits for the next request
// (zero disables it). The deadline is armed as an executor timer whose
// waker re-polls this task; an expired deadline resolves the task with
// a timeout error.
func Serve(io *pollio.IO, h Handler, readTimeout time.Duration) *exec.Task {
	lr := &lineReader{io: io}
	lw := &lineWriter{io: io}
	stage := stageGreetRead

	var deadline time.Time
	var timerID exec.TimerID
	timerArmed := false

	armDeadline := func(cx *exec.Context) {
		if readTimeout <= 0 || timerArmed {
			return
		}
		deadline = time.Now().Add(readTimeout)
		timerID = cx.Executor().ArmTimer(deadline, cx.Waker())
		timerArmed = true
	}
	disarmDeadline := func(cx *exec.Context) {
		if timerArmed {
			cx.Executor().CancelTimer(timerID)
			timerArmed = false
		}
	}

	return exec.NewTask(func(cx *exec.Context) (exec.Value, bool) {
		for {
			switch stage {
			case stageGreetRead:
				line, eof, st := lr.pollLine(cx)
				switch st {
				case api.IODone:
					if eof {
						return errValue(fmt.Errorf("peer closed before greeting")), true
					}
					if line != hello {
						return errValue(fmt.Errorf("bad greeting %q", line)), true
					}
					lw.queue(hello)
					stage = stageGreetWrite
				case api.IOPending:
					return exec.Value{}, false
				default:
					return errValue(fmt.Errorf("greeting read failed")), true
				}

			case stageGreetWrite:
				switch lw.pollFlush(cx) {
				case api.IODone:
					stage = stageRequest
				case api.IOPending:
					return exec.Value{}, false
				default:
					return errValue(fmt.Errorf("greeting write failed")), true
				}

			case stageRequest:
				if timerArmed && !time.Now().Before(deadline) {
					return errValue(api.NewError(api.ErrCodeTimeout, "request read timed out")), true
				}
				armDeadline(cx)
				line, eof, st := lr.pollLine(cx)
				switch st {
				case api.IODone:
					disarmDeadline(cx)
					if eof {
						// Clean end of the connection between requests.
						return exec.Value{Kind: exec.KindEmpty}, true
					}
					status, body := h(line)
					lw.queue("+" + status)
					lw.queue(body...)
					lw.queue(terminator)
					stage = stageRespond
				case api.IOPending:
					return exec.Value{}, false
				default:
					disarmDeadline(cx)
					return errValue(fmt.Errorf("request read failed")), true
				}

			case stageRespond:
				switch lw.pollFlush(cx) {
				case api.IODone:
					stage = stageRequest
				case api.IOPending:
					return exec.Value{}, false
				default:
					return errValue(fmt.Errorf("response write failed")), true
				}
			}
		}
	})
}
