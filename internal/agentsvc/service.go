// Package agentsvc implements the agent task lifecycle service: a
// single-flight task runner that enforces the at-most-one-task invariant,
// cooperative cancellation between steps, and event fan-out.
package agentsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/pkg/types"
)

// RunFunc executes a task to completion, honouring cancelled when it begins
// returning true. It returns a final report of any shape — the service does
// not inspect it and hands it back unchanged as Start's result.
type RunFunc func(ctx context.Context, task types.RuntimeTask, cancelled func() bool) (any, error)

// Emitter fans lifecycle events out to the IPC transport.
type Emitter interface {
	Emit(eventType event.EventType, payload any)
}

type running struct {
	task          types.RuntimeTask
	startedAt     time.Time
	stopRequested bool
	cancel        context.CancelFunc
}

// Service owns the single running-task slot.
type Service struct {
	mu      sync.Mutex
	current *running

	emitter Emitter
	log     zerolog.Logger
}

// New builds a Service that reports lifecycle events through emitter.
func New(emitter Emitter, log zerolog.Logger) *Service {
	return &Service{emitter: emitter, log: log}
}

// IsRunning reports whether a task is currently in flight.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Start begins task under run iff no task is currently running, returning
// acterr.CodeTaskBusy otherwise. Start blocks until run
// returns; callers that want fire-and-forget semantics should invoke Start
// from their own goroutine.
func (s *Service) Start(ctx context.Context, task types.RuntimeTask, run RunFunc) (any, error) {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return nil, acterr.New(acterr.CodeTaskBusy, "a task is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	rec := &running{task: task, startedAt: time.Now(), cancel: cancel}
	s.current = rec
	s.mu.Unlock()

	s.emit(event.TaskStarted, event.TaskStartedData{TaskID: task.TaskID, ProfileID: task.ProfileID})
	s.log.Info().Str("taskId", task.TaskID).Str("correlationId", task.CorrelationID).Msg("task.started")

	cancelled := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.current == nil {
			return true
		}
		if s.current.task.TaskID != task.TaskID {
			return true
		}
		return s.current.stopRequested
	}

	report, err := run(runCtx, task, cancelled)
	s.clear(task.TaskID)

	if err != nil {
		s.log.Error().Err(err).Str("taskId", task.TaskID).Msg("task.error")
		return report, err
	}
	return report, nil
}

// clear releases the running slot, but only if it still belongs to taskID —
// an out-of-order completion from a superseded task must not stomp a newer
// one.
func (s *Service) clear(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.task.TaskID == taskID {
		s.current.cancel()
		s.current = nil
	}
}

// RequestStop cooperatively flags the running task (if any) to stop between
// steps. If correlationID is non-empty it must match the running task's
// correlation id, else the request is a no-op.
func (s *Service) RequestStop(correlationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	if correlationID != "" && s.current.task.CorrelationID != correlationID {
		return false
	}
	s.current.stopRequested = true
	s.emit(event.TaskStopped, event.TaskStoppedData{TaskID: s.current.task.TaskID})
	return true
}

func (s *Service) emit(t event.EventType, payload any) {
	if s.emitter != nil {
		s.emitter.Emit(t, payload)
	}
}

// String is for diagnostics only.
func (r *running) String() string {
	return fmt.Sprintf("running{task=%s started=%s stop=%v}", r.task.TaskID, r.startedAt, r.stopRequested)
}
