// Package ipcserver wires the core components together behind the stdio
// IPC transport: it reads newline-delimited ActaMessage envelopes from an
// input stream, dispatches each to the appropriate component, and writes
// envelopes back out. The desktop shell is the client on the other end of
// the pipe.
package ipcserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/internal/agentsvc"
	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/internal/ipc"
	"github.com/acta-run/acta-core/internal/llmclient"
	"github.com/acta-run/acta-core/internal/orchestrator"
	"github.com/acta-run/acta-core/internal/permcoord"
	"github.com/acta-run/acta-core/internal/profile"
	"github.com/acta-run/acta-core/pkg/types"
)

// maxLineBytes bounds one incoming envelope line so a runaway unterminated
// line cannot exhaust memory.
const maxLineBytes = 10 << 20

// Server owns every long-lived collaborator the IPC surface dispatches
// across, plus the output writer whose writes writeMu serializes.
type Server struct {
	Profiles    *profile.Manager
	Coordinator *permcoord.Coordinator
	Tasks       *agentsvc.Service
	Registry    orchestrator.Registry
	LLMClient   *llmclient.Client
	HardBlock   types.HardBlockConfig
	WorkDir     string
	Bus         *event.Bus
	Log         zerolog.Logger

	writeMu sync.Mutex
	out     io.Writer
}

// New builds a Server. Run must be called to start serving.
func New(
	profiles *profile.Manager,
	coordinator *permcoord.Coordinator,
	tasks *agentsvc.Service,
	registry orchestrator.Registry,
	llmClient *llmclient.Client,
	hardBlock types.HardBlockConfig,
	workDir string,
	bus *event.Bus,
	log zerolog.Logger,
) *Server {
	return &Server{
		Profiles:    profiles,
		Coordinator: coordinator,
		Tasks:       tasks,
		Registry:    registry,
		LLMClient:   llmClient,
		HardBlock:   hardBlock,
		WorkDir:     workDir,
		Bus:         bus,
		Log:         log,
	}
}

// Run reads envelope lines from in until EOF or ctx is cancelled, dispatching
// each on its own goroutine so a long-running task.request never blocks
// unrelated traffic (permission.response, task.stop) from being processed.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out

	unsub := s.Bus.SubscribeAll(s.forwardEvent)
	defer unsub()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var wg sync.WaitGroup
	defer wg.Wait()

	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		if len(line) == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleLine(ctx, line)
		}()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ipcserver: read stdin: %w", err)
	}
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	msg, payload, err := ipc.Decode(line)
	if err != nil {
		s.writeDecodeError(err)
		return
	}
	s.dispatch(ctx, msg, payload)
}

// writeEnvelope serializes and writes msg, newline-terminated, holding
// writeMu so concurrent handlers never interleave partial lines.
func (s *Server) writeEnvelope(msg types.ActaMessage) {
	data, err := ipc.Encode(msg)
	if err != nil {
		s.Log.Error().Err(err).Msg("ipcserver: encode envelope")
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.out.Write(data)
	s.out.Write([]byte("\n"))
}

func (s *Server) writeDecodeError(err error) {
	code, _ := acterr.CodeOf(err)
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgTaskError,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		Payload: map[string]any{
			"taskId":  "",
			"code":    string(code),
			"message": err.Error(),
		},
	})
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
