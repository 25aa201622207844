package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/engine"
	"github.com/momentics/hioload-reactor/exec"
	"github.com/momentics/hioload-reactor/fake"
	"github.com/momentics/hioload-reactor/pollio"
)

// drive polls the executor until the task completes, replaying the
// reactor's role by firing whatever waker the conn has parked after
// each pass. The step budget catches state machines that park without
// a way forward.
func drive(t *testing.T, e *exec.Executor, c *pollio.Conn) *exec.Task {
	t.Helper()
	for i := 0; i < 64; i++ {
		if got := e.Poll(); got != nil {
			return got
		}
		woke := false
		if w := c.TakeReadWaker(); w != nil {
			w.Wake()
			woke = true
		}
		if w := c.TakeWriteWaker(); w != nil {
			w.Wake()
			woke = true
		}
		if !woke {
			t.Fatal("task parked with no waker to fire")
		}
	}
	t.Fatal("task did not complete within the step budget")
	return nil
}

func value(t *testing.T, task *exec.Task) exec.Value {
	t.Helper()
	v, err := task.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	return v
}

func TestHandshake_Completes(t *testing.T) {
	tr := fake.NewTransport(11)
	tr.QueueReadWouldBlock()
	tr.QueueRead([]byte("HELLO\n"))
	c := pollio.NewConn(tr, nil)
	io := pollio.NewIO(c)
	e := exec.NewExecutor()

	task := engine.Handshake(io)
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got := drive(t, e, c)

	v := value(t, got)
	if v.Kind != exec.KindConn {
		t.Fatalf("kind = %v (err=%v), want conn", v.Kind, v.Err)
	}
	if _, ok := v.Payload.(*engine.ClientConn); !ok {
		t.Fatalf("payload = %T, want *engine.ClientConn", v.Payload)
	}
	if string(tr.Written()) != "HELLO\n" {
		t.Errorf("wrote %q, want greeting line", tr.Written())
	}
}

func TestHandshake_RejectsBadGreeting(t *testing.T) {
	tr := fake.NewTransport(11)
	tr.QueueRead([]byte("NOPE\n"))
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	task := engine.Handshake(pollio.NewIO(c))
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got := drive(t, e, c)
	if v := value(t, got); v.Kind != exec.KindError || v.Err == nil {
		t.Fatalf("kind = %v err = %v, want an error outcome", v.Kind, v.Err)
	}
}

func TestClient_RequestResponseBody(t *testing.T) {
	tr := fake.NewTransport(11)
	tr.QueueRead([]byte("HELLO\n"))
	tr.QueueReadWouldBlock()
	tr.QueueRead([]byte("+OK\npart one\n"))
	tr.QueueRead([]byte("part two\n.\n"))
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	hs := engine.Handshake(pollio.NewIO(c))
	if err := e.Push(hs); err != nil {
		t.Fatalf("Push: %v", err)
	}
	conn := value(t, drive(t, e, c)).Payload.(*engine.ClientConn)

	send := conn.Send("ping")
	if err := e.Push(send); err != nil {
		t.Fatalf("Push: %v", err)
	}
	v := value(t, drive(t, e, c))
	if v.Kind != exec.KindResponse {
		t.Fatalf("send resolved to %v (err=%v), want response", v.Kind, v.Err)
	}
	resp := v.Payload.(*engine.Response)
	if resp.Status != "OK" {
		t.Errorf("status = %q, want OK", resp.Status)
	}

	var chunks []string
	for {
		next := resp.Body().Next()
		if err := e.Push(next); err != nil {
			t.Fatalf("Push: %v", err)
		}
		v := value(t, drive(t, e, c))
		if v.Kind == exec.KindEmpty {
			break
		}
		if v.Kind != exec.KindChunk {
			t.Fatalf("body task resolved to %v (err=%v)", v.Kind, v.Err)
		}
		chunks = append(chunks, string(v.Payload.([]byte)))
	}
	if len(chunks) != 2 || chunks[0] != "part one" || chunks[1] != "part two" {
		t.Errorf("chunks = %q, want [part one, part two]", chunks)
	}
	if string(tr.Written()) != "HELLO\nping\n" {
		t.Errorf("wrote %q", tr.Written())
	}
}

func TestClient_MalformedStatusLine(t *testing.T) {
	tr := fake.NewTransport(11)
	tr.QueueRead([]byte("HELLO\nOK\n"))
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	hs := engine.Handshake(pollio.NewIO(c))
	if err := e.Push(hs); err != nil {
		t.Fatalf("Push: %v", err)
	}
	conn := value(t, drive(t, e, c)).Payload.(*engine.ClientConn)

	send := conn.Send("ping")
	if err := e.Push(send); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if v := value(t, drive(t, e, c)); v.Kind != exec.KindError {
		t.Fatalf("kind = %v, want error for a status line missing '+'", v.Kind)
	}
}

func TestServe_SingleRequestSession(t *testing.T) {
	tr := fake.NewTransport(12)
	tr.QueueRead([]byte("HELLO\n"))
	tr.QueueReadWouldBlock()
	tr.QueueRead([]byte("ping\n"))
	tr.QueueEOF()
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	task := engine.Serve(pollio.NewIO(c), func(req string) (string, []string) {
		return "OK", []string{"echo " + req}
	}, 0)
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got := drive(t, e, c)

	if v := value(t, got); v.Kind != exec.KindEmpty {
		t.Fatalf("session resolved to %v (err=%v), want empty", v.Kind, v.Err)
	}
	want := "HELLO\n+OK\necho ping\n.\n"
	if string(tr.Written()) != want {
		t.Errorf("wrote %q, want %q", tr.Written(), want)
	}
}

func TestServe_MultipleRequests(t *testing.T) {
	tr := fake.NewTransport(12)
	tr.QueueRead([]byte("HELLO\na\nb\n"))
	tr.QueueEOF()
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	task := engine.Serve(pollio.NewIO(c), func(req string) (string, []string) {
		return "OK", []string{req + req}
	}, 0)
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if v := value(t, drive(t, e, c)); v.Kind != exec.KindEmpty {
		t.Fatalf("session resolved to %v (err=%v)", v.Kind, v.Err)
	}
	want := "HELLO\n+OK\naa\n.\n+OK\nbb\n.\n"
	if string(tr.Written()) != want {
		t.Errorf("wrote %q, want %q", tr.Written(), want)
	}
}

func TestServe_BadGreetingFailsSession(t *testing.T) {
	tr := fake.NewTransport(12)
	tr.QueueRead([]byte("GET / HTTP/1.1\n"))
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	task := engine.Serve(pollio.NewIO(c), func(string) (string, []string) {
		return "OK", nil
	}, 0)
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if v := value(t, drive(t, e, c)); v.Kind != exec.KindError {
		t.Fatalf("kind = %v, want error", v.Kind)
	}
}

func TestServe_RequestReadTimeout(t *testing.T) {
	tr := fake.NewTransport(12)
	tr.QueueRead([]byte("HELLO\n"))
	// No request ever arrives.
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	const timeout = 10 * time.Millisecond
	task := engine.Serve(pollio.NewIO(c), func(string) (string, []string) {
		return "OK", nil
	}, timeout)
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if e.Poll() != nil {
		t.Fatal("session completed while waiting for a request")
	}
	d, armed := e.NextTimerPop(time.Now())
	if !armed {
		t.Fatal("no deadline armed while waiting for a request")
	}
	if d > timeout {
		t.Errorf("block bound = %v, want <= %v", d, timeout)
	}

	time.Sleep(timeout + 5*time.Millisecond)
	if fired := e.FireTimers(time.Now()); fired != 1 {
		t.Fatalf("FireTimers fired %d, want 1", fired)
	}
	got := e.Poll()
	if got == nil {
		t.Fatal("timer pop did not complete the session")
	}
	v := value(t, got)
	if v.Kind != exec.KindError {
		t.Fatalf("kind = %v, want error", v.Kind)
	}
	var apiErr *api.Error
	if !errors.As(v.Err, &apiErr) || apiErr.Code != api.ErrCodeTimeout {
		t.Errorf("err = %v, want a timeout error", v.Err)
	}
}

func TestServe_DisarmsDeadlineOnRequestArrival(t *testing.T) {
	tr := fake.NewTransport(12)
	tr.QueueRead([]byte("HELLO\n"))
	tr.QueueReadWouldBlock()
	tr.QueueRead([]byte("ping\n"))
	tr.QueueEOF()
	c := pollio.NewConn(tr, nil)
	e := exec.NewExecutor()

	task := engine.Serve(pollio.NewIO(c), func(req string) (string, []string) {
		return "OK", nil
	}, time.Minute)
	if err := e.Push(task); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if v := value(t, drive(t, e, c)); v.Kind != exec.KindEmpty {
		t.Fatalf("session resolved to %v (err=%v)", v.Kind, v.Err)
	}
	if _, armed := e.NextTimerPop(time.Now()); armed {
		t.Error("deadline still armed after the session completed")
	}
}
