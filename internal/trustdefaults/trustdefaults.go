// Package trustdefaults holds the built-in trust posture table: a posture
// is a named table of TrustLevel overrides a profile may adopt instead of
// spelling out every tool/domain entry. The package also owns the shared
// tool-pattern and scope-prefix matching used by the rule store and trust
// evaluator.
package trustdefaults

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/acta-run/acta-core/pkg/types"
)

//go:embed postures.yaml
var posturesYAML []byte

// Posture is one named, built-in trust posture: a default trust level plus
// tool/domain pattern overrides applied on top of it.
type Posture struct {
	Name              string                       `yaml:"name"`
	Description       string                       `yaml:"description"`
	DefaultTrustLevel types.TrustLevel             `yaml:"defaultTrustLevel"`
	Tools             map[string]types.TrustLevel  `yaml:"tools,omitempty"`
	Domains           map[string]types.TrustLevel  `yaml:"domains,omitempty"`
}

type postureFile struct {
	Postures map[string]Posture `yaml:"postures"`
}

var builtin = mustLoad(posturesYAML)

func mustLoad(data []byte) map[string]Posture {
	var pf postureFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		panic(fmt.Sprintf("trustdefaults: embedded postures.yaml is malformed: %v", err))
	}
	for name, p := range pf.Postures {
		p.Name = name
		pf.Postures[name] = p
	}
	return pf.Postures
}

// Get returns the named built-in posture, if one exists.
func Get(name string) (Posture, bool) {
	p, ok := builtin[name]
	return p, ok
}

// Names returns the set of built-in posture names, for CLI listing and
// validation. The order is map iteration order and is not stable.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	return names
}

// Apply fills in trust.Tools and trust.Domains from the named posture
// wherever trust doesn't already have an explicit entry for that tool or
// domain pattern, and fills trust.DefaultTrustLevel when it is the zero
// value and the posture names one. Explicit profile overrides always win;
// applying the same posture twice is idempotent. A trust block with no
// Posture set, or one naming an unknown posture, is returned unchanged.
func Apply(trust types.TrustConfig) types.TrustConfig {
	if trust.Posture == "" {
		return trust
	}
	posture, ok := Get(trust.Posture)
	if !ok {
		return trust
	}

	if trust.DefaultTrustLevel == 0 {
		trust.DefaultTrustLevel = posture.DefaultTrustLevel
	}

	if trust.Tools == nil {
		trust.Tools = make(map[string]types.TrustLevel, len(posture.Tools))
	}
	for pattern, level := range posture.Tools {
		if _, exists := trust.Tools[pattern]; !exists {
			trust.Tools[pattern] = level
		}
	}

	if trust.Domains == nil {
		trust.Domains = make(map[string]types.TrustLevel, len(posture.Domains))
	}
	for pattern, level := range posture.Domains {
		if _, exists := trust.Domains[pattern]; !exists {
			trust.Domains[pattern] = level
		}
	}

	return trust
}

// MatchToolLevel resolves toolID against trust.Tools, treating keys that
// contain glob metacharacters as doublestar patterns rather than requiring
// an exact match, with exact keys always checked first.
func MatchToolLevel(trust types.TrustConfig, toolID string) (types.TrustLevel, bool) {
	if level, ok := trust.Tools[toolID]; ok {
		return level, true
	}
	for pattern, level := range trust.Tools {
		if !isPattern(pattern) {
			continue
		}
		if matched, _ := doublestar.Match(pattern, toolID); matched {
			return level, true
		}
	}
	return 0, false
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// ScopeMatches decides whether a rule's scopePrefix covers a request's
// scope. For bash.*-family tools the prefix may be a doublestar glob
// pattern instead of a literal prefix; every other tool keeps plain
// strings.HasPrefix semantics. An empty scopePrefix matches any scope.
func ScopeMatches(tool, scopePrefix, requestScope string) bool {
	if scopePrefix == "" {
		return true
	}
	if strings.HasPrefix(tool, "bash.") && isPattern(scopePrefix) {
		matched, err := doublestar.Match(scopePrefix, requestScope)
		return err == nil && matched
	}
	return strings.HasPrefix(requestScope, scopePrefix)
}
