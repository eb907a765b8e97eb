// Package trust implements the trust evaluator: a pure, deterministic
// function from a permission request, profile, rule set, and hard-block
// policy to a decision, plus the thin trust engine that wires it to a
// rule store and audit logging. It performs no I/O of its own.
package trust

import (
	"fmt"
	"strings"

	"github.com/acta-run/acta-core/internal/trustdefaults"
	"github.com/acta-run/acta-core/pkg/types"
)

// Evaluate runs the precedence chain (hard block, remembered rule, tool
// default, domain default, profile default) and returns the
// first matching decision. It never performs I/O and is safe to call from
// multiple goroutines.
func Evaluate(req types.PermissionRequest, profile types.Profile, hardBlock types.HardBlockConfig, rules []types.TrustRule) types.PermissionDecision {
	if d, ok := evaluateHardBlock(req, hardBlock); ok {
		return d
	}
	if d, ok := evaluateRule(req, profile, rules); ok {
		return d
	}
	domain := req.EffectiveDomain()
	if t, ok := trustdefaults.MatchToolLevel(profile.Trust, req.Tool); ok {
		return decisionFromLevel(req, t, types.SourceToolDefault)
	}
	if domain != "" {
		if t, ok := profile.Trust.Domains[domain]; ok {
			return decisionFromLevel(req, t, types.SourceDomainDefault)
		}
	}
	return decisionFromLevel(req, profile.Trust.DefaultTrustLevel, types.SourceProfileDefault)
}

func evaluateHardBlock(req types.PermissionRequest, hb types.HardBlockConfig) (types.PermissionDecision, bool) {
	for _, tool := range hb.BlockedTools {
		if tool == req.Tool {
			return deny(req, fmt.Sprintf("hard-block:tool:%s", tool), types.SourceHardBlock), true
		}
	}
	domain := req.EffectiveDomain()
	if domain != "" {
		for _, d := range hb.BlockedDomains {
			if d == domain {
				return deny(req, fmt.Sprintf("hard-block:domain:%s", d), types.SourceHardBlock), true
			}
		}
	}
	for _, prefix := range hb.BlockedScopePrefixes {
		if prefix != "" && strings.HasPrefix(req.Scope, prefix) {
			return deny(req, fmt.Sprintf("hard-block:scope:%s", prefix), types.SourceHardBlock), true
		}
	}
	return types.PermissionDecision{}, false
}

func deny(req types.PermissionRequest, reason string, source types.Source) types.PermissionDecision {
	return types.PermissionDecision{
		RequestID:  req.ID,
		Decision:   types.DecisionDeny,
		TrustLevel: types.TrustLevelNone,
		Reason:     reason,
		Source:     source,
	}
}

func evaluateRule(req types.PermissionRequest, profile types.Profile, rules []types.TrustRule) (types.PermissionDecision, bool) {
	for _, r := range rules {
		if r.Tool != req.Tool {
			continue
		}
		if !trustdefaults.ScopeMatches(req.Tool, r.ScopePrefix, req.Scope) {
			continue
		}
		level := profile.Trust.DefaultTrustLevel
		return types.PermissionDecision{
			RequestID:  req.ID,
			Decision:   r.Decision,
			TrustLevel: level,
			Reason:     fmt.Sprintf("rule:%s", r.ID),
			Source:     types.SourceRule,
		}, true
	}
	return types.PermissionDecision{}, false
}

// decisionFromLevel applies the risk-to-decision table for a
// given trust level and tags the result with source.
func decisionFromLevel(req types.PermissionRequest, level types.TrustLevel, source types.Source) types.PermissionDecision {
	decision := types.DecisionAsk
	threshold, ok := allowThreshold(req.Risk)
	if ok && level >= threshold {
		decision = types.DecisionAllow
	}
	return types.PermissionDecision{
		RequestID:  req.ID,
		Decision:   decision,
		TrustLevel: level,
		Reason:     string(source),
		Source:     source,
	}
}

// allowThreshold returns the minimum trust level needed to auto-allow a risk
// tier, and false if the tier never auto-allows (critical).
func allowThreshold(risk types.Risk) (types.TrustLevel, bool) {
	switch risk {
	case types.RiskLow:
		return types.TrustLevelDefault, true
	case types.RiskMedium:
		return types.TrustLevelElevated, true
	case types.RiskHigh:
		return types.TrustLevelFull, true
	default:
		return 0, false
	}
}
