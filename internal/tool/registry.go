// Package tool provides a minimal Tool/Registry implementation used by the
// IPC server's tests and by cmd/acta's bootstrap wiring. Concrete tool
// implementations (shell, file, web, ...) live with their host
// applications; what lives here is the map-backed registry shape plus a
// pair of deliberately trivial reference tools.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/acta-run/acta-core/internal/orchestrator"
)

// Registry is a concurrency-safe, map-backed implementation of
// orchestrator.Registry.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]orchestrator.Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]orchestrator.Tool)}
}

// Register adds t to the registry, replacing any existing tool with the same id.
func (r *Registry) Register(t orchestrator.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.ID()] = t
}

// Get implements orchestrator.Registry.
func (r *Registry) Get(id string) (orchestrator.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// List implements orchestrator.Registry.
func (r *Registry) List() []orchestrator.ToolSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]orchestrator.ToolSummary, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, orchestrator.ToolSummary{ID: t.ID(), Description: t.Description()})
	}
	return out
}

// EchoTool is a trivial reference tool: it echoes back its "message" input
// field, used to exercise the orchestrator's step loop in tests without
// pulling in any real tool implementation.
type EchoTool struct{}

func (EchoTool) ID() string          { return "echo.respond" }
func (EchoTool) Description() string { return "echoes the message field of its input" }

func (EchoTool) Invoke(ctx context.Context, input map[string]any, tc orchestrator.ToolContext) (orchestrator.ToolResult, error) {
	msg, _ := input["message"].(string)
	return orchestrator.ToolResult{Success: true, Output: msg}, nil
}

// FailingTool always reports a logical failure, used to exercise the
// tool.failed step-outcome path in tests.
type FailingTool struct{ Reason string }

func (t FailingTool) ID() string          { return "test.fail" }
func (t FailingTool) Description() string { return "always fails" }

func (t FailingTool) Invoke(ctx context.Context, input map[string]any, tc orchestrator.ToolContext) (orchestrator.ToolResult, error) {
	reason := t.Reason
	if reason == "" {
		reason = "simulated failure"
	}
	return orchestrator.ToolResult{Success: false, Error: reason}, nil
}

// PanickingTool always returns a Go error, used to exercise the
// tool.exception step-outcome path in tests.
type PanickingTool struct{}

func (PanickingTool) ID() string          { return "test.explode" }
func (PanickingTool) Description() string { return "always returns an error" }

func (PanickingTool) Invoke(ctx context.Context, input map[string]any, tc orchestrator.ToolContext) (orchestrator.ToolResult, error) {
	return orchestrator.ToolResult{}, fmt.Errorf("tool exploded")
}
