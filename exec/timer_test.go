package exec_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-reactor/exec"
)

// parkedTask pushes a task that stores a waker on its first poll and
// counts how often it has been stepped.
func parkedTask(t *testing.T, e *exec.Executor) (*exec.Waker, *int) {
	t.Helper()
	polls := new(int)
	var waker *exec.Waker
	task := exec.NewTask(func(cx *exec.Context) (exec.Value, bool) {
		*polls++
		if *polls == 1 {
			waker = cx.Waker()
		}
		return exec.Value{}, false
	})
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	e.Poll()
	return waker, polls
}

func TestTimer_NextPopWithNothingArmed(t *testing.T) {
	e := exec.NewExecutor()
	if _, armed := e.NextTimerPop(time.Now()); armed {
		t.Fatal("NextTimerPop reported an armed timer on an empty registry")
	}
}

func TestTimer_BoundsBlockAndFires(t *testing.T) {
	e := exec.NewExecutor()
	waker, polls := parkedTask(t, e)

	now := time.Now()
	e.ArmTimer(now.Add(50*time.Millisecond), waker)

	d, armed := e.NextTimerPop(now)
	if !armed {
		t.Fatal("NextTimerPop reported no armed timer")
	}
	if d != 50*time.Millisecond {
		t.Errorf("NextTimerPop = %v, want 50ms", d)
	}

	if fired := e.FireTimers(now); fired != 0 {
		t.Fatalf("FireTimers before the deadline fired %d", fired)
	}
	if fired := e.FireTimers(now.Add(51 * time.Millisecond)); fired != 1 {
		t.Fatalf("FireTimers past the deadline fired %d, want 1", fired)
	}

	e.Poll()
	if *polls != 2 {
		t.Errorf("timer pop did not re-step the task (polls=%d)", *polls)
	}
	if _, armed := e.NextTimerPop(time.Now()); armed {
		t.Error("fired timer still reported armed")
	}
}

func TestTimer_PastDeadlineMeansPollDontBlock(t *testing.T) {
	e := exec.NewExecutor()
	waker, _ := parkedTask(t, e)

	now := time.Now()
	e.ArmTimer(now.Add(-time.Second), waker)
	d, armed := e.NextTimerPop(now)
	if !armed || d != 0 {
		t.Fatalf("NextTimerPop = (%v, %v), want (0, true)", d, armed)
	}
}

func TestTimer_Cancel(t *testing.T) {
	e := exec.NewExecutor()
	waker, polls := parkedTask(t, e)

	now := time.Now()
	id := e.ArmTimer(now.Add(10*time.Millisecond), waker)
	if !e.CancelTimer(id) {
		t.Fatal("CancelTimer returned false for an armed timer")
	}
	if e.CancelTimer(id) {
		t.Error("second CancelTimer returned true")
	}
	if _, armed := e.NextTimerPop(now); armed {
		t.Error("canceled timer still bounds the block timeout")
	}
	if fired := e.FireTimers(now.Add(time.Second)); fired != 0 {
		t.Errorf("canceled timer fired (%d)", fired)
	}
	e.Poll()
	if *polls != 1 {
		t.Errorf("canceled timer woke the task (polls=%d)", *polls)
	}
}

func TestTimer_EarliestDeadlineWins(t *testing.T) {
	e := exec.NewExecutor()
	w1, _ := parkedTask(t, e)
	w2, _ := parkedTask(t, e)

	now := time.Now()
	e.ArmTimer(now.Add(80*time.Millisecond), w1)
	e.ArmTimer(now.Add(20*time.Millisecond), w2)

	d, armed := e.NextTimerPop(now)
	if !armed || d != 20*time.Millisecond {
		t.Fatalf("NextTimerPop = (%v, %v), want (20ms, true)", d, armed)
	}
	if fired := e.FireTimers(now.Add(30 * time.Millisecond)); fired != 1 {
		t.Fatalf("FireTimers fired %d, want only the earlier timer", fired)
	}
	d, armed = e.NextTimerPop(now)
	if !armed || d != 80*time.Millisecond {
		t.Fatalf("after first pop NextTimerPop = (%v, %v), want (80ms, true)", d, armed)
	}
}
