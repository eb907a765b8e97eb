// Package storage provides the on-disk JSON discipline shared by the
// profile manager and rule store: reads that distinguish absence from
// corruption, writes that go through a same-directory temp file and a
// rename, and the exclusive-create lock files of lock.go.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by ReadJSON when the file does not exist.
var ErrNotFound = errors.New("storage: not found")

// ReadJSON reads the JSON document at path into v. A missing file is
// ErrNotFound; a malformed document is a plain error the caller decides
// how to treat (the rule store tolerates it, the profile manager does not).
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: parse %s: %w", path, err)
	}
	return nil
}

// MarshalPretty renders v the way every durable document in this module is
// written: two-space indented with a trailing newline.
func MarshalPretty(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteJSONAtomic writes v to path via a .tmp-<basename>-<time>-<ulid>
// sibling and a rename, creating missing parent directories. Readers see
// either the old or the new complete file, never a torn write.
func WriteJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	data, err := MarshalPretty(v)
	if err != nil {
		return fmt.Errorf("storage: marshal for %s: %w", path, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%s-%d-%s", filepath.Base(path), time.Now().UnixNano(), ulid.Make().String()))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("storage: write temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: rename onto %s: %w", path, err)
	}
	return nil
}
