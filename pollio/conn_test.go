package pollio_test

import (
	"testing"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/exec"
	"github.com/momentics/hioload-reactor/fake"
	"github.com/momentics/hioload-reactor/pollio"
)

// recordingRegistrar counts registrar callbacks so tests can assert the
// conn reports interest changes and detaches exactly when promised.
type recordingRegistrar struct {
	interestCalls int
	detachCalls   int
}

func (r *recordingRegistrar) InterestChanged(c *pollio.Conn) { r.interestCalls++ }
func (r *recordingRegistrar) Detach(c *pollio.Conn)          { r.detachCalls++ }

// mintWakers polls a throwaway pending task once and returns n wakers
// minted at its suspension point, plus the task's poll counter.
func mintWakers(t *testing.T, e *exec.Executor, n int) ([]*exec.Waker, *int) {
	t.Helper()
	polls := new(int)
	var out []*exec.Waker
	task := exec.NewTask(func(cx *exec.Context) (exec.Value, bool) {
		*polls++
		if *polls == 1 {
			for i := 0; i < n; i++ {
				out = append(out, cx.Waker())
			}
		}
		return exec.Value{}, false
	})
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	e.Poll()
	return out, polls
}

func TestConn_StoreReplacesPriorWaker(t *testing.T) {
	e := exec.NewExecutor()
	wakers, polls := mintWakers(t, e, 2)
	w1, w2 := wakers[0], wakers[1]

	reg := &recordingRegistrar{}
	c := pollio.NewConn(fake.NewTransport(3), reg)

	c.StoreReadWaker(w1)
	if c.Want() != api.Readable {
		t.Fatalf("Want = %v, want readable", c.Want())
	}
	c.StoreReadWaker(w2)

	// The replaced waker was released; waking it must do nothing.
	w1.Wake()
	e.Poll()
	if *polls != 1 {
		t.Fatalf("replaced waker woke the task (polls=%d)", *polls)
	}

	got := c.TakeReadWaker()
	if got != w2 {
		t.Fatal("TakeReadWaker did not return the replacement waker")
	}
	if c.Want() != 0 {
		t.Errorf("Want after take = %v, want none", c.Want())
	}
	got.Wake()
	e.Poll()
	if *polls != 2 {
		t.Errorf("live waker failed to wake the task (polls=%d)", *polls)
	}
	// Two stores and one successful take, each an interest change.
	if reg.interestCalls != 3 {
		t.Errorf("interest callbacks = %d, want 3", reg.interestCalls)
	}
}

func TestConn_WantTracksBothDirections(t *testing.T) {
	e := exec.NewExecutor()
	wakers, _ := mintWakers(t, e, 2)

	c := pollio.NewConn(fake.NewTransport(4), &recordingRegistrar{})
	c.StoreReadWaker(wakers[0])
	c.StoreWriteWaker(wakers[1])
	if c.Want() != api.Readable|api.Writable {
		t.Fatalf("Want = %v, want readable|writable", c.Want())
	}
	if c.TakeWriteWaker() == nil {
		t.Fatal("TakeWriteWaker returned nil with a waker stored")
	}
	if c.Want() != api.Readable {
		t.Errorf("Want = %v, want readable", c.Want())
	}
	if c.TakeWriteWaker() != nil {
		t.Error("second TakeWriteWaker returned a waker")
	}
}

func TestConn_CloseReleasesWakersAndDetachesOnce(t *testing.T) {
	e := exec.NewExecutor()
	wakers, polls := mintWakers(t, e, 2)

	reg := &recordingRegistrar{}
	tr := fake.NewTransport(5)
	c := pollio.NewConn(tr, reg)
	c.StoreReadWaker(wakers[0])
	c.StoreWriteWaker(wakers[1])

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if !c.Closed() {
		t.Error("Closed() = false after Close")
	}
	if reg.detachCalls != 1 {
		t.Errorf("detach calls = %d, want 1", reg.detachCalls)
	}
	if tr.CloseCount() != 1 {
		t.Errorf("transport Close calls = %d, want 1", tr.CloseCount())
	}
	if c.Want() != 0 {
		t.Errorf("Want after Close = %v, want none", c.Want())
	}

	// Both parked wakers were released during teardown.
	wakers[0].Wake()
	wakers[1].Wake()
	e.Poll()
	if *polls != 1 {
		t.Errorf("released wakers woke the task (polls=%d)", *polls)
	}
}

func TestConn_ArmedMaskIsCallerOwned(t *testing.T) {
	c := pollio.NewConn(fake.NewTransport(6), &recordingRegistrar{})
	if c.Armed() != 0 {
		t.Fatalf("fresh conn Armed = %v, want none", c.Armed())
	}
	c.SetArmed(api.Readable)
	if c.Armed() != api.Readable {
		t.Errorf("Armed = %v, want readable", c.Armed())
	}
}
