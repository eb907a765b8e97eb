package agentsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/pkg/types"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []event.EventType
}

func (r *recordingEmitter) Emit(t event.EventType, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
}

func (r *recordingEmitter) has(t event.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == t {
			return true
		}
	}
	return false
}

func TestStart_RunsToCompletionAndClearsSlot(t *testing.T) {
	s := New(&recordingEmitter{}, zerolog.Nop())
	task := types.RuntimeTask{TaskID: "t1", CorrelationID: "c1"}

	report, err := s.Start(context.Background(), task, func(ctx context.Context, tk types.RuntimeTask, cancelled func() bool) (any, error) {
		if s.IsRunning() != true {
			t.Error("service should report running while the task executes")
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if report != "done" {
		t.Errorf("report = %v", report)
	}
	if s.IsRunning() {
		t.Error("expected the running slot to clear after completion")
	}
}

func TestStart_SecondStartFailsWithTaskBusy(t *testing.T) {
	s := New(&recordingEmitter{}, zerolog.Nop())
	started := make(chan struct{})
	release := make(chan struct{})

	go s.Start(context.Background(), types.RuntimeTask{TaskID: "t1"}, func(ctx context.Context, tk types.RuntimeTask, cancelled func() bool) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	_, err := s.Start(context.Background(), types.RuntimeTask{TaskID: "t2"}, func(ctx context.Context, tk types.RuntimeTask, cancelled func() bool) (any, error) {
		return nil, nil
	})
	if !acterr.Is(err, acterr.CodeTaskBusy) {
		t.Fatalf("got %v, want task.busy", err)
	}
	close(release)
}

func TestRequestStop_NoRunningTaskReturnsFalse(t *testing.T) {
	s := New(&recordingEmitter{}, zerolog.Nop())
	if s.RequestStop("") {
		t.Error("expected false when no task is running")
	}
}

func TestRequestStop_MismatchedCorrelationIDIsNoOp(t *testing.T) {
	s := New(&recordingEmitter{}, zerolog.Nop())
	started := make(chan struct{})
	release := make(chan struct{})

	go s.Start(context.Background(), types.RuntimeTask{TaskID: "t1", CorrelationID: "c1"}, func(ctx context.Context, tk types.RuntimeTask, cancelled func() bool) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	if s.RequestStop("other-correlation") {
		t.Error("expected false for a mismatched correlation id")
	}
	close(release)
}

func TestRequestStop_SetsCancellationProbeTrue(t *testing.T) {
	emitter := &recordingEmitter{}
	s := New(emitter, zerolog.Nop())
	observed := make(chan bool, 1)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background(), types.RuntimeTask{TaskID: "t1", CorrelationID: "c1"}, func(ctx context.Context, tk types.RuntimeTask, cancelled func() bool) (any, error) {
			for !cancelled() {
				time.Sleep(5 * time.Millisecond)
			}
			observed <- true
			return nil, nil
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if !s.RequestStop("c1") {
		t.Fatal("expected RequestStop to succeed")
	}

	select {
	case <-observed:
	case <-time.After(time.Second):
		t.Fatal("cancellation probe never observed stopRequested")
	}
	<-done
	if !emitter.has(event.TaskStopped) {
		t.Error("expected a task.stopped event")
	}
}

func TestStart_OutOfOrderCompletionDoesNotStompNewerTask(t *testing.T) {
	s := New(&recordingEmitter{}, zerolog.Nop())

	s.current = &running{task: types.RuntimeTask{TaskID: "newer"}, cancel: func() {}}
	s.clear("stale")

	if !s.IsRunning() {
		t.Error("clearing a stale task id must not affect the current running task")
	}
}
