package rules

import (
	"context"
	"os"
	"testing"

	"github.com/acta-run/acta-core/pkg/types"
)

func TestStore_AddAndList(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	rule := types.TrustRule{Tool: "file.read", Decision: types.DecisionAllow}
	added, err := s.Add(ctx, rule)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected Add to assign an id")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != added.ID {
		t.Fatalf("List = %+v", list)
	}
}

func TestStore_ListMissingFileIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %+v", list)
	}
}

func TestStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/rules.json", []byte("not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	s := New(dir)
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list for corrupt file, got %+v", list)
	}
}

func TestStore_AddDuplicateIDFails(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	rule := types.TrustRule{ID: "fixed-id", Tool: "file.read", Decision: types.DecisionAllow}
	if _, err := s.Add(ctx, rule); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if _, err := s.Add(ctx, rule); err != ErrDuplicateID {
		t.Errorf("second Add: got %v, want ErrDuplicateID", err)
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	rule := types.TrustRule{ID: "r1", Tool: "file.write", Decision: types.DecisionAllow}
	if err := s.Upsert(ctx, rule); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := s.Upsert(ctx, rule); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one rule after repeated upsert, got %d", len(list))
	}
}

func TestStore_RemoveDeletesMatchingID(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	a, _ := s.Add(ctx, types.TrustRule{Tool: "a", Decision: types.DecisionAllow})
	b, _ := s.Add(ctx, types.TrustRule{Tool: "b", Decision: types.DecisionDeny})

	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("List after Remove = %+v", list)
	}
}

func TestStore_FindMatchingRespectsScopePrefix(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	s.Add(ctx, types.TrustRule{Tool: "file.write", ScopePrefix: "/home/user/", Decision: types.DecisionAllow})

	req := types.PermissionRequest{Tool: "file.write", Scope: "/home/user/notes.txt"}
	rule, found, err := s.FindMatching(ctx, req)
	if err != nil {
		t.Fatalf("FindMatching failed: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if rule.Decision != types.DecisionAllow {
		t.Errorf("Decision = %v", rule.Decision)
	}

	other := types.PermissionRequest{Tool: "file.write", Scope: "/tmp/x"}
	_, found, err = s.FindMatching(ctx, other)
	if err != nil {
		t.Fatalf("FindMatching failed: %v", err)
	}
	if found {
		t.Error("expected no match for a scope outside the prefix")
	}
}
