// Package rules implements the durable rule store: a JSON array of
// trust rules per profile at <profileDir>/<trustPath>/rules.json, written
// atomically via the storage package's tmp+rename discipline and read
// tolerant of a missing or malformed file.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/acta-run/acta-core/internal/storage"
	"github.com/acta-run/acta-core/internal/trustdefaults"
	"github.com/acta-run/acta-core/pkg/types"
)

// ErrDuplicateID is returned by Add when a rule with the same id already exists.
var ErrDuplicateID = errors.New("rules: duplicate rule id")

// Store owns the rules.json file for a single profile's trust directory.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store backed by the rules.json file at trustDir.
func New(trustDir string) *Store {
	return &Store{path: filepath.Join(trustDir, "rules.json")}
}

// List returns all rules, tolerating a missing file (empty result) and
// discarding entries that fail structural validation.
func (s *Store) List(ctx context.Context) ([]types.TrustRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Store) readLocked() ([]types.TrustRule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rules: read: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil // corrupt contents treated as empty
	}

	rules := make([]types.TrustRule, 0, len(raw))
	for _, r := range raw {
		var rule types.TrustRule
		if err := json.Unmarshal(r, &rule); err != nil {
			continue
		}
		if !validRule(rule) {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func validRule(r types.TrustRule) bool {
	if r.ID == "" || r.Tool == "" {
		return false
	}
	switch r.Decision {
	case types.DecisionDeny, types.DecisionAsk, types.DecisionAllow:
	default:
		return false
	}
	if r.Remember != nil {
		switch *r.Remember {
		case types.RememberSession, types.RememberPersistent:
		default:
			return false
		}
	}
	return true
}

func (s *Store) writeLocked(rules []types.TrustRule) error {
	if err := storage.WriteJSONAtomic(s.path, rules); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}

// Add appends a new rule, assigning it a fresh id. It fails with
// ErrDuplicateID if a rule with that id (after assignment, never possible in
// practice, but also checked for caller-supplied ids) already exists.
func (s *Store) Add(ctx context.Context, rule types.TrustRule) (types.TrustRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.readLocked()
	if err != nil {
		return types.TrustRule{}, err
	}

	if rule.ID == "" {
		rule.ID = ulid.Make().String()
	}
	for _, r := range rules {
		if r.ID == rule.ID {
			return types.TrustRule{}, ErrDuplicateID
		}
	}

	rules = append(rules, rule)
	if err := s.writeLocked(rules); err != nil {
		return types.TrustRule{}, err
	}
	return rule, nil
}

// Upsert replaces the rule with a matching id, or appends it if absent.
// Upserting the same body twice in a row is a no-op on the second call.
func (s *Store) Upsert(ctx context.Context, rule types.TrustRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.readLocked()
	if err != nil {
		return err
	}

	for i, r := range rules {
		if r.ID == rule.ID {
			rules[i] = rule
			return s.writeLocked(rules)
		}
	}
	rules = append(rules, rule)
	return s.writeLocked(rules)
}

// Remove deletes the rule with the given id, if present.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.readLocked()
	if err != nil {
		return err
	}

	out := rules[:0]
	for _, r := range rules {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return s.writeLocked(out)
}

// FindMatching returns the first rule matching req using the same precedence
// step-2 matching rule as the trust evaluator (tool equality, optional scope
// prefix match).
func (s *Store) FindMatching(ctx context.Context, req types.PermissionRequest) (types.TrustRule, bool, error) {
	rules, err := s.List(ctx)
	if err != nil {
		return types.TrustRule{}, false, err
	}
	for _, r := range rules {
		if r.Tool != req.Tool {
			continue
		}
		if !trustdefaults.ScopeMatches(req.Tool, r.ScopePrefix, req.Scope) {
			continue
		}
		return r, true, nil
	}
	return types.TrustRule{}, false, nil
}
