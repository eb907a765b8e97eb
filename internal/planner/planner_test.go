package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/internal/llmclient"
)

func serverReturning(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := completionResponse{Content: content}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestPlan_ExtractsFencedJSONAndValidates(t *testing.T) {
	content := "Here is the plan:\n```json\n" +
		`{"goal":"read a file","steps":[{"id":"s1","tool":"file.read","intent":"read it","input":{"path":"a.txt"},"requiresPermission":false}]}` +
		"\n```\nDone."
	srv := serverReturning(t, content)
	defer srv.Close()

	plan, err := Plan(context.Background(), llmclient.New(), Request{
		UserInput: "read a.txt",
		Tools:     []ToolInfo{{ID: "file.read"}},
		Endpoint:  srv.URL,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Goal != "read a file" || len(plan.Steps) != 1 {
		t.Errorf("got %+v", plan)
	}
}

func TestPlan_ExtractsBalancedJSONWithoutFence(t *testing.T) {
	content := `{"goal":"x","steps":[{"id":"s1","tool":"file.read","intent":"i","input":{}}]}`
	srv := serverReturning(t, content)
	defer srv.Close()

	plan, err := Plan(context.Background(), llmclient.New(), Request{
		UserInput: "x",
		Tools:     []ToolInfo{{ID: "file.read"}},
		Endpoint:  srv.URL,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Goal != "x" {
		t.Errorf("got %+v", plan)
	}
}

func TestPlan_NoJSONFailsWithPlanFailed(t *testing.T) {
	srv := serverReturning(t, "I cannot help with that.")
	defer srv.Close()

	_, err := Plan(context.Background(), llmclient.New(), Request{UserInput: "x", Endpoint: srv.URL})
	if !acterr.Is(err, acterr.CodeTaskPlanFailed) {
		t.Fatalf("got %v, want task.plan_failed", err)
	}
}

func TestPlan_RejectsBlockedScopeTool(t *testing.T) {
	content := `{"goal":"x","steps":[{"id":"s1","tool":"shell.run","intent":"i","input":{}}]}`
	srv := serverReturning(t, content)
	defer srv.Close()

	_, err := Plan(context.Background(), llmclient.New(), Request{
		UserInput: "x",
		Tools:     []ToolInfo{{ID: "shell.run"}},
		Endpoint:  srv.URL,
	})
	if !acterr.Is(err, acterr.CodeTaskPlanFailed) {
		t.Fatalf("got %v, want task.plan_failed for default-blocked scope", err)
	}
}

func TestPlan_RejectsToolNotInCatalog(t *testing.T) {
	content := `{"goal":"x","steps":[{"id":"s1","tool":"file.write","intent":"i","input":{}}]}`
	srv := serverReturning(t, content)
	defer srv.Close()

	_, err := Plan(context.Background(), llmclient.New(), Request{
		UserInput: "x",
		Tools:     []ToolInfo{{ID: "file.read"}},
		Endpoint:  srv.URL,
	})
	if !acterr.Is(err, acterr.CodeTaskPlanFailed) {
		t.Fatalf("got %v, want task.plan_failed for tool outside catalog", err)
	}
}

func TestExtractJSON_PrefersFencedOverBalanced(t *testing.T) {
	text := "noise { not json\n```json\n{\"a\":1}\n```\nmore { noise"
	got, err := extractJSON(text)
	if err != nil {
		t.Fatalf("extractJSON failed: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}
