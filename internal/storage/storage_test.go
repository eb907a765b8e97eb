package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestWriteJSONAtomic_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	want := testDoc{ID: "123", Name: "test", Value: 42}

	if err := WriteJSONAtomic(path, want); err != nil {
		t.Fatalf("WriteJSONAtomic failed: %v", err)
	}

	var got testDoc
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestWriteJSONAtomic_PrettyWithTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := WriteJSONAtomic(path, testDoc{ID: "1"}); err != nil {
		t.Fatalf("WriteJSONAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	s := string(data)
	if !strings.HasSuffix(s, "\n") {
		t.Error("document should end with a newline")
	}
	if !strings.Contains(s, "\n  \"id\"") {
		t.Error("document should be two-space indented")
	}
}

func TestWriteJSONAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := WriteJSONAtomic(path, testDoc{ID: "1"}); err != nil {
		t.Fatalf("WriteJSONAtomic failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadJSON_MissingFile(t *testing.T) {
	var doc testDoc
	err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &doc)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestReadJSON_MalformedIsNotNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	var doc testDoc
	err := ReadJSON(path, &doc)
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("malformed content must not be reported as ErrNotFound")
	}
}

func TestExclusiveLock_SecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active-profile")
	l1 := NewExclusiveLock(path)
	l2 := NewExclusiveLock(path)

	if err := l1.TryAcquire(); err != nil {
		t.Fatalf("first TryAcquire failed: %v", err)
	}
	if err := l2.TryAcquire(); err != ErrLocked {
		t.Errorf("second TryAcquire: got %v, want ErrLocked", err)
	}
	if err := l1.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := l2.TryAcquire(); err != nil {
		t.Errorf("TryAcquire after release should succeed, got: %v", err)
	}
}

func TestExclusiveLock_AcquireTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "held")
	holder := NewExclusiveLock(path)
	if err := holder.TryAcquire(); err != nil {
		t.Fatalf("holder TryAcquire failed: %v", err)
	}

	waiter := NewExclusiveLock(path)
	if err := waiter.Acquire(50 * time.Millisecond); err != ErrLocked {
		t.Errorf("Acquire against a held lock: got %v, want ErrLocked", err)
	}
}
