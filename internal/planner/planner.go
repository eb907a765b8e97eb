// Package planner implements the planner: it turns user input and a
// tool catalog into a structured AgentPlan via the llmclient package: one
// prompt, one completion, one parsed and validated plan, rather than a
// multi-turn tool loop. A completion that cannot be parsed is re-requested
// once (see maxPlanAttempts).
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/internal/llmclient"
	"github.com/acta-run/acta-core/pkg/types"
)

// maxPlanAttempts bounds the planner's outer retry loop: distinct from
// llmclient's own per-request retry (which retries a single HTTP call
// on transport failure), this retries the whole prompt→plan cycle when the
// model's response fails to parse into a valid AgentPlan, since a fresh
// completion sometimes succeeds where a malformed one didn't.
const maxPlanAttempts = 2

// defaultBlockedScopes are prohibited regardless of caller configuration.
var defaultBlockedScopes = []string{"shell", "system"}

// ToolInfo describes one entry of the available tool catalog shown to the model.
type ToolInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Fields      []string `json:"fields,omitempty"`
}

// Request bundles everything the planner needs for one plan call.
type Request struct {
	UserInput     string
	Tools         []ToolInfo
	BlockedTools  []string
	BlockedScopes []string
	Endpoint      string
	Headers       map[string]string
}

type completionResponse struct {
	Content string `json:"content"`
}

// Plan drives the planner's outer retry loop: it attempts the
// prompt→completion→extract→validate cycle up to maxPlanAttempts times,
// retrying only on a malformed or unparseable model response (the LLM
// itself answered, so C6's transport retry doesn't apply) and backing off
// between attempts. A structural validation failure (blocked tool, unknown
// tool, bad shape) is permanent: retrying the same prompt would fail the
// same way, so it's returned immediately.
func Plan(ctx context.Context, client *llmclient.Client, req Request) (types.AgentPlan, error) {
	var plan types.AgentPlan
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxPlanAttempts-1)

	err := backoff.Retry(func() error {
		p, err := attemptPlan(ctx, client, req)
		if err != nil {
			return err
		}
		plan = p
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		if perr, ok := err.(*backoff.PermanentError); ok {
			return types.AgentPlan{}, perr.Err
		}
		return types.AgentPlan{}, err
	}
	return plan, nil
}

// attemptPlan runs one prompt→completion→extract→validate cycle.
func attemptPlan(ctx context.Context, client *llmclient.Client, req Request) (types.AgentPlan, error) {
	prompt := buildPrompt(req)

	resp, err := llmclient.RequestJSON[completionResponse](ctx, client, req.Endpoint, llmclient.Options{
		Method:  "POST",
		Headers: req.Headers,
		Retries: config.DefaultHTTPRetries(),
		Body: map[string]any{
			"prompt":    prompt,
			"maxTokens": 1000,
		},
	})
	if err != nil {
		return types.AgentPlan{}, backoff.Permanent(acterr.Wrap(acterr.CodeTaskPlanFailed, err))
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return types.AgentPlan{}, acterr.New(acterr.CodeTaskPlanFailed, err.Error())
	}

	var plan types.AgentPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return types.AgentPlan{}, acterr.New(acterr.CodeTaskPlanFailed, fmt.Sprintf("malformed plan JSON: %v", err))
	}

	allBlockedScopes := append(append([]string{}, defaultBlockedScopes...), req.BlockedScopes...)
	if err := validate(plan, req, allBlockedScopes); err != nil {
		return types.AgentPlan{}, backoff.Permanent(acterr.New(acterr.CodeTaskPlanFailed, err.Error()))
	}
	return plan, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("User request: ")
	b.WriteString(req.UserInput)
	b.WriteString("\n\nAvailable tools:\n")
	for _, tool := range req.Tools {
		b.WriteString("- ")
		b.WriteString(tool.ID)
		if tool.Description != "" {
			b.WriteString(": ")
			b.WriteString(tool.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nProhibited: tools matching shell.*, system.*")
	for _, scope := range req.BlockedScopes {
		b.WriteString(", ")
		b.WriteString(scope)
	}
	b.WriteString(".\n\nRespond with a single JSON object matching {goal, steps:[{id, tool, intent, input, requiresPermission}], risks?}.")
	return b.String()
}

// extractJSON pulls a JSON object out of a model response: a fenced
// ```json block if present, else the first balanced {...} substring.
func extractJSON(text string) (string, error) {
	if fenced, ok := extractFenced(text); ok {
		return fenced, nil
	}
	if balanced, ok := extractBalanced(text); ok {
		return balanced, nil
	}
	return "", fmt.Errorf("no JSON object found in model response")
}

func extractFenced(text string) (string, bool) {
	const marker = "```json"
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func extractBalanced(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func validate(plan types.AgentPlan, req Request, blockedScopes []string) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	available := make(map[string]bool, len(req.Tools))
	for _, tool := range req.Tools {
		available[tool.ID] = true
	}
	blocked := make(map[string]bool, len(req.BlockedTools))
	for _, tool := range req.BlockedTools {
		blocked[tool] = true
	}

	for _, step := range plan.Steps {
		if blocked[step.Tool] {
			return fmt.Errorf("step %q: tool %q is blocked", step.ID, step.Tool)
		}
		for _, scope := range blockedScopes {
			if scope == "" {
				continue
			}
			if strings.Contains(step.Tool, scope) {
				return fmt.Errorf("step %q: tool %q touches blocked scope %q", step.ID, step.Tool, scope)
			}
		}
		if !available[step.Tool] {
			return fmt.Errorf("step %q: tool %q is not in the available catalog", step.ID, step.Tool)
		}
	}
	return nil
}
