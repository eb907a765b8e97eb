// Package orchestrator implements the execution orchestrator: it runs
// an AgentPlan's steps against an injected tool registry, trust engine, and
// permission coordinator, emitting ordered lifecycle events and building a
// deterministic report. Plans are fully formed before execution begins;
// there is no multi-turn tool-calling loop with the model.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/pkg/types"
)

// ToolContext is passed to every tool invocation.
type ToolContext struct {
	ProfileID   string
	CWD         string
	TempDir     string
	Permissions []string
}

// ToolResult is a tool's logical outcome (success/failure), distinct from a
// thrown/returned Go error which represents an exception.
type ToolResult struct {
	Success bool
	Output  any
	Error   string
}

// Tool is one indivisible, invocable unit the planner may reference by id.
type Tool interface {
	ID() string
	Description() string
	Invoke(ctx context.Context, input map[string]any, tc ToolContext) (ToolResult, error)
}

// ToolSummary is the catalog entry surfaced by Registry.List.
type ToolSummary struct {
	ID          string
	Description string
}

// Registry resolves tool ids to Tool implementations. Deliberately a
// single interface rather than separate legacy/new registries.
type Registry interface {
	Get(id string) (Tool, bool)
	List() []ToolSummary
}

// PermissionEvaluator is the trust engine's contract as seen by the orchestrator.
type PermissionEvaluator interface {
	Evaluate(ctx context.Context, req types.PermissionRequest, profile types.Profile) (types.PermissionDecision, error)
}

// PermissionWaiter is the permission coordinator's contract as seen by the
// orchestrator for the ask path.
type PermissionWaiter interface {
	WaitForPermission(ctx context.Context, req types.PermissionRequest, correlationID string) (types.Decision, error)
}

// EventEmitter fans orchestrator lifecycle events out to the agent service's
// outbound channel. Implementations must not block the producer.
type EventEmitter interface {
	Emit(eventType event.EventType, payload any)
}

// PlanObserver is notified once a plan is ready, before step execution begins.
type PlanObserver interface {
	OnPlan(plan types.AgentPlan)
}

// ResultObserver is notified with the final report.
type ResultObserver interface {
	OnResult(report Report)
}

// ReportSummarizer may replace the deterministic report with a natural
// language one; any failure is swallowed and the deterministic report kept.
type ReportSummarizer interface {
	Summarize(ctx context.Context, report Report) (string, error)
}

// CancellationProbe is sampled between steps; true means the task should stop.
type CancellationProbe func() bool

// StepOutcome records one step's terminal state for the report.
type StepOutcome struct {
	StepID  string
	Tool    string
	Success bool
	Output  any
	Error   string
}

// Report is the orchestrator's deterministic account of a finished task.
type Report struct {
	Success   bool
	Cancelled bool
	Steps     []StepOutcome
	Text      string
}

// Hooks bundles the optional observer callbacks; a zero value disables all of them.
type Hooks struct {
	OnPlan     PlanObserver
	OnResult   ResultObserver
	Summarizer ReportSummarizer
}

// Orchestrator runs plans against injected collaborators.
type Orchestrator struct {
	Registry  Registry
	Evaluator PermissionEvaluator
	Waiter    PermissionWaiter
	Emitter   EventEmitter
	Cancelled CancellationProbe
	TaskID    string
	// CorrelationID groups this task's permission prompts with the rest of
	// its conversation on the wire; it is what permission.response envelopes
	// correlate against, distinct from TaskID.
	CorrelationID string
	Profile       types.Profile
	WorkDir       string
	TempDir       string

	doomLoop *doomLoopDetector
}

// Run executes plan's steps in order: each step is permission-checked,
// then invoked; a deny stops the task, a missing or failing tool records
// the failure and moves on.
func (o *Orchestrator) Run(ctx context.Context, plan types.AgentPlan, hooks Hooks) (Report, error) {
	if o.doomLoop == nil {
		o.doomLoop = newDoomLoopDetector()
	}
	defer o.doomLoop.clear(o.TaskID)

	o.emit(event.TaskPlanReady, event.TaskPlanReadyData{TaskID: o.TaskID, Plan: plan})
	if hooks.OnPlan != nil {
		hooks.OnPlan.OnPlan(plan)
	}

	var outcomes []StepOutcome
	cancelled := false
	stopReason := ""

stepLoop:
	for _, step := range plan.Steps {
		if o.Cancelled != nil && o.Cancelled() {
			cancelled = true
			break
		}

		o.emit(event.TaskStepStarted, event.TaskStepData{TaskID: o.TaskID, Step: step})

		req := o.permissionRequestFor(step)
		if o.doomLoop.check(o.TaskID, step.Tool, step.Input) {
			req.Risk = types.RiskCritical
			req.Reason = "doom-loop: identical tool call repeated"
		}
		decision, err := o.Evaluator.Evaluate(ctx, req, o.Profile)
		if err != nil {
			return Report{}, fmt.Errorf("orchestrator: evaluate permission for step %q: %w", step.ID, err)
		}

		final := decision.Decision
		if final == types.DecisionAsk {
			waited, err := o.Waiter.WaitForPermission(ctx, req, o.CorrelationID)
			if err != nil {
				return Report{}, fmt.Errorf("orchestrator: wait for permission on step %q: %w", step.ID, err)
			}
			final = waited
		}

		if final == types.DecisionDeny {
			outcome := StepOutcome{StepID: step.ID, Tool: step.Tool, Success: false, Error: "permission denied"}
			outcomes = append(outcomes, outcome)
			o.emit(event.TaskStepCompleted, event.TaskStepData{TaskID: o.TaskID, Step: step, Error: outcome.Error})
			o.emit(event.TaskFailed, event.TaskFailedData{TaskID: o.TaskID, Code: "permission.denied", Error: "permission denied for step " + step.ID})
			stopReason = "permission.denied"
			break stepLoop
		}

		tool, ok := o.Registry.Get(step.Tool)
		if !ok {
			outcome := StepOutcome{StepID: step.ID, Tool: step.Tool, Success: false, Error: "tool not found"}
			outcomes = append(outcomes, outcome)
			o.emit(event.TaskStepCompleted, event.TaskStepData{TaskID: o.TaskID, Step: step, Error: outcome.Error})
			o.emit(event.TaskFailed, event.TaskFailedData{TaskID: o.TaskID, Code: "tool.not_found", Error: "tool not found: " + step.Tool})
			continue
		}

		tc := ToolContext{ProfileID: o.Profile.ID, CWD: o.WorkDir, TempDir: o.TempDir}
		result, err := tool.Invoke(ctx, step.Input, tc)
		outcome := StepOutcome{StepID: step.ID, Tool: step.Tool}
		switch {
		case err != nil:
			outcome.Success = false
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			o.emit(event.TaskStepCompleted, event.TaskStepData{TaskID: o.TaskID, Step: step, Error: outcome.Error})
			o.emit(event.TaskFailed, event.TaskFailedData{TaskID: o.TaskID, Code: "tool.exception", Error: err.Error()})
		case !result.Success:
			outcome.Success = false
			outcome.Error = result.Error
			outcomes = append(outcomes, outcome)
			o.emit(event.TaskStepCompleted, event.TaskStepData{TaskID: o.TaskID, Step: step, Error: outcome.Error})
			o.emit(event.TaskFailed, event.TaskFailedData{TaskID: o.TaskID, Code: "tool.failed", Error: result.Error})
		default:
			outcome.Success = true
			outcome.Output = result.Output
			outcomes = append(outcomes, outcome)
			o.emit(event.TaskStepCompleted, event.TaskStepData{TaskID: o.TaskID, Step: step})
		}
	}

	success := !cancelled && stopReason == "" && len(outcomes) == len(plan.Steps)
	if success {
		for _, outcome := range outcomes {
			if !outcome.Success {
				success = false
				break
			}
		}
	}

	report := Report{Success: success, Cancelled: cancelled, Steps: outcomes, Text: renderReport(outcomes, cancelled)}

	if hooks.Summarizer != nil {
		if text, err := hooks.Summarizer.Summarize(ctx, report); err == nil && text != "" {
			report.Text = text
		}
	}

	o.emit(event.TaskCompleted, event.TaskCompletedData{TaskID: o.TaskID, Report: report})
	if hooks.OnResult != nil {
		hooks.OnResult.OnResult(report)
	}
	return report, nil
}

// permissionRequestFor builds the per-step PermissionRequest:
// scope defaults to the tool id, overridden for file.* tools by the
// first non-empty of input.path/filePath/src/inputPath; risk is medium when
// the step declares RequiresPermission, else low.
func (o *Orchestrator) permissionRequestFor(step types.AgentStep) types.PermissionRequest {
	scope := step.Tool
	if strings.HasPrefix(step.Tool, "file.") {
		for _, key := range []string{"path", "filePath", "src", "inputPath"} {
			if v, ok := step.Input[key]; ok {
				if s, ok := v.(string); ok && s != "" {
					scope = s
					break
				}
			}
		}
	}

	risk := types.RiskLow
	if step.RequiresPermission {
		risk = types.RiskMedium
	}

	return types.PermissionRequest{
		ID:        step.ID,
		Tool:      step.Tool,
		Scope:     scope,
		Risk:      risk,
		ProfileID: o.Profile.ID,
	}
}

func (o *Orchestrator) emit(t event.EventType, payload any) {
	if o.Emitter != nil {
		o.Emitter.Emit(t, payload)
	}
}

func renderReport(outcomes []StepOutcome, cancelled bool) string {
	var b strings.Builder
	if cancelled {
		b.WriteString("Task cancelled by user.\n")
	}
	for _, o := range outcomes {
		status := "completed"
		if !o.Success {
			status = "failed"
		}
		fmt.Fprintf(&b, "- %s (%s): %s", o.StepID, o.Tool, status)
		if o.Error != "" {
			fmt.Fprintf(&b, " — %s", o.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}
