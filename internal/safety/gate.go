// Package safety implements the safety gate: a static validator that
// rejects an entire plan if any step uses a blocked tool or touches a
// blocked scope, before any step is executed.
package safety

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/acta-run/acta-core/pkg/types"
)

// Policy lists the tools and scope substrings a plan may never use.
type Policy struct {
	BlockedTools  []string
	BlockedScopes []string
}

// Violation describes why a plan was rejected.
type Violation struct {
	StepID string
	Reason string
}

func (v Violation) Error() string {
	return fmt.Sprintf("step %q: %s", v.StepID, v.Reason)
}

// Validate checks every step of plan against policy, failing the whole plan
// on the first violation found (no step is executed if any step is unsafe).
func Validate(plan types.AgentPlan, policy Policy) error {
	for _, step := range plan.Steps {
		for _, blocked := range policy.BlockedTools {
			if step.Tool == blocked {
				return Violation{StepID: step.ID, Reason: fmt.Sprintf("blocked tool %q", blocked)}
			}
		}
		for _, scope := range policy.BlockedScopes {
			if scope == "" {
				continue
			}
			if matchesBlockedScope(scope, step.Tool) || matchesBlockedScope(scope, step.Intent) {
				return Violation{StepID: step.ID, Reason: fmt.Sprintf("blocked scope %q", scope)}
			}
		}
	}
	return nil
}

// matchesBlockedScope reports whether value is caught by a blocked-scope
// entry. An entry containing glob metacharacters is matched as a doublestar
// pattern against the whole value; any other entry keeps the plain
// substring match used for free-text fields like a step's intent.
func matchesBlockedScope(scope, value string) bool {
	if strings.ContainsAny(scope, "*?[") {
		matched, err := doublestar.Match(scope, value)
		return err == nil && matched
	}
	return strings.Contains(value, scope)
}
