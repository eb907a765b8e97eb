package safety

import (
	"testing"

	"github.com/acta-run/acta-core/pkg/types"
)

func TestValidate_AllowsCleanPlan(t *testing.T) {
	plan := types.AgentPlan{
		Goal: "read a file",
		Steps: []types.AgentStep{
			{ID: "s1", Tool: "file.read", Intent: "read notes", Input: map[string]any{"path": "notes.txt"}},
		},
	}
	if err := Validate(plan, Policy{BlockedTools: []string{"shell.run"}}); err != nil {
		t.Errorf("expected no violation, got %v", err)
	}
}

func TestValidate_RejectsBlockedTool(t *testing.T) {
	plan := types.AgentPlan{
		Goal: "run a shell command",
		Steps: []types.AgentStep{
			{ID: "s1", Tool: "shell.run", Intent: "rm -rf", Input: map[string]any{}},
		},
	}
	err := Validate(plan, Policy{BlockedTools: []string{"shell.run"}})
	if err == nil {
		t.Fatal("expected a violation")
	}
	v, ok := err.(Violation)
	if !ok || v.StepID != "s1" {
		t.Errorf("got %+v", err)
	}
}

func TestValidate_RejectsBlockedScopeInToolOrIntent(t *testing.T) {
	plan := types.AgentPlan{
		Goal: "system things",
		Steps: []types.AgentStep{
			{ID: "s1", Tool: "system.reboot", Intent: "restart", Input: map[string]any{}},
		},
	}
	err := Validate(plan, Policy{BlockedScopes: []string{"system"}})
	if err == nil {
		t.Fatal("expected a violation for blocked scope substring")
	}
}

func TestValidate_RejectsGlobBlockedScopeInIntent(t *testing.T) {
	plan := types.AgentPlan{
		Goal: "delete things",
		Steps: []types.AgentStep{
			{ID: "s1", Tool: "bash.run", Intent: "rm -rf scratch", Input: map[string]any{}},
		},
	}
	err := Validate(plan, Policy{BlockedScopes: []string{"rm -rf*"}})
	if err == nil {
		t.Fatal("expected a violation for glob-matched blocked scope")
	}
}

func TestValidate_IgnoresBlockedScopeInStepInput(t *testing.T) {
	plan := types.AgentPlan{
		Goal: "write notes",
		Steps: []types.AgentStep{
			{ID: "s1", Tool: "file.write", Intent: "save draft", Input: map[string]any{"content": "the system was down"}},
		},
	}
	if err := Validate(plan, Policy{BlockedScopes: []string{"system"}}); err != nil {
		t.Errorf("free-text input must not trip the scope check, got %v", err)
	}
}

func TestValidate_StopsAtFirstViolationWithoutExecutingSteps(t *testing.T) {
	plan := types.AgentPlan{
		Goal: "multi step",
		Steps: []types.AgentStep{
			{ID: "s1", Tool: "shell.run", Intent: "", Input: map[string]any{}},
			{ID: "s2", Tool: "file.read", Intent: "", Input: map[string]any{}},
		},
	}
	err := Validate(plan, Policy{BlockedTools: []string{"shell.run"}})
	v, ok := err.(Violation)
	if !ok || v.StepID != "s1" {
		t.Errorf("expected violation anchored on first offending step, got %+v", err)
	}
}
