// Package profile implements the profile state manager: the active-
// profile pointer, per-profile directories, path-safety checks, exclusive-
// create locking, and legacy-data migration. Locking uses
// internal/storage's exclusive-create lock files at two granularities:
// one lock guarding the
// active-profile pointer, one per profile directory guarding its document
// writes — mirroring internal/rules/store.go's atomic tmp-then-rename
// writes for the documents themselves.
package profile

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/internal/rules"
	"github.com/acta-run/acta-core/internal/storage"
	"github.com/acta-run/acta-core/pkg/types"
)

// lockTimeout bounds how long a caller waits for the active-pointer or
// per-profile lock before giving up; a lock left by a crashed process is
// expected to need manual cleanup, but a bounded wait keeps a
// single hung caller from wedging the process forever.
const lockTimeout = 5 * time.Second

// schemaVersion is written onto every profile document created by this package.
const schemaVersion = 1

// ErrNotFound is returned when a profile id has no corresponding directory.
var ErrNotFound = fmt.Errorf("profile: not found")

// ErrInvalidID is returned when a caller-supplied id fails the identity pattern.
var ErrInvalidID = fmt.Errorf("profile: invalid id")

// ErrExists is returned by Create when a profile with that id already exists.
var ErrExists = fmt.Errorf("profile: already exists")

// Manager owns the profile documents, active-profile pointer, and their
// locking discipline.
type Manager struct {
	paths      *config.Paths
	activeLock *storage.ExclusiveLock
	log        zerolog.Logger
}

// New builds a Manager over the given path layout.
func New(paths *config.Paths, log zerolog.Logger) *Manager {
	return &Manager{
		paths:      paths,
		activeLock: storage.NewExclusiveLock(paths.ActivePointerPath()),
		log:        log,
	}
}

func (m *Manager) profileDir(id string) string {
	return filepath.Join(m.paths.ProfilesRoot(), id)
}

func (m *Manager) profileDocPath(id string) string {
	return filepath.Join(m.profileDir(id), "profile.json")
}

func (m *Manager) profileLock(id string) *storage.ExclusiveLock {
	return storage.NewExclusiveLock(m.profileDir(id))
}

// ValidateID reports whether id matches the profile identity pattern. The pattern itself (no "/", no "..", no leading dot) already
// rules out path traversal once joined under ProfilesRoot().
func ValidateID(id string) error {
	if !types.ProfileIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// IsSafeRelativePath reports whether p has no leading separator, no drive
// letter, and no ".." path segment — the shape required of every
// Profile.Paths entry.
func IsSafeRelativePath(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return false
	}
	if len(p) >= 2 && p[1] == ':' {
		return false // drive letter, e.g. "C:\..."
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return false
		}
	}
	return true
}

// validateDocument enforces the document-level invariants on a profile
// about to be written: every Paths entry is a safe relative path,
// the model name is set, and a local-mode LLM config names at least one of
// baseUrl/endpoint. Runs after normalize, so forward-compat backfill (e.g.
// the ollama default base URL) has already happened.
func validateDocument(prof types.Profile) error {
	for name, p := range map[string]string{
		"logs":   prof.Paths.Logs,
		"memory": prof.Paths.Memory,
		"trust":  prof.Paths.Trust,
	} {
		if !IsSafeRelativePath(p) {
			return fmt.Errorf("profile %s: paths.%s %q is not a safe relative path", prof.ID, name, p)
		}
	}
	if prof.LLM.Model == "" {
		return fmt.Errorf("profile %s: llm.model must be non-empty", prof.ID)
	}
	if prof.LLM.Mode == types.LLMModeLocal && prof.LLM.BaseURL == "" && prof.LLM.Endpoint == "" {
		return fmt.Errorf("profile %s: local-mode llm config needs baseUrl or endpoint", prof.ID)
	}
	return nil
}

// ResolvePath resolves one of a profile's safe-relative sub-paths against
// its profile directory.
func (m *Manager) ResolvePath(prof types.Profile, relPath string) string {
	return filepath.Join(m.profileDir(prof.ID), relPath)
}

// RuleStore returns a rule store scoped to prof's trust directory.
func (m *Manager) RuleStore(prof types.Profile) *rules.Store {
	return rules.New(m.ResolvePath(prof, prof.Paths.Trust))
}

// LogDir implements logging.LogDirProvider by resolving the active
// profile's effective logs directory, falling back to the data root's own
// logs directory if no profile is active yet.
func (m *Manager) LogDir() (string, error) {
	id, ok, err := m.ActiveProfileID()
	if err != nil {
		return "", err
	}
	if !ok {
		return filepath.Join(m.paths.Data, "logs"), nil
	}
	prof, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return m.ResolvePath(prof, prof.Paths.Logs), nil
}

// withLock acquires l, runs fn, and releases l regardless of fn's outcome.
func withLock(l *storage.ExclusiveLock, fn func() error) error {
	if err := l.Acquire(lockTimeout); err != nil {
		return fmt.Errorf("profile: acquire lock: %w", err)
	}
	defer l.Release()
	return fn()
}

// atomicWriteJSON writes v to path through storage's tmp-then-rename
// discipline, the same one the rule store uses for rules.json.
func atomicWriteJSON(path string, v any) error {
	if err := storage.WriteJSONAtomic(path, v); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}
