package trust

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/pkg/types"
)

// RuleLister is the subset of internal/rules.Store the engine needs; kept
// as an interface so tests can substitute an in-memory fake.
type RuleLister interface {
	List(ctx context.Context) ([]types.TrustRule, error)
}

// Engine composes the pure Evaluate function with a profile's rule store and
// hard-block policy: the orchestrator's sole permission oracle.
type Engine struct {
	rules     RuleLister
	hardBlock types.HardBlockConfig
	log       zerolog.Logger
}

// NewEngine builds an Engine over rules and hardBlock, logging audit lines
// through log (zero value is a valid no-op logger).
func NewEngine(rules RuleLister, hardBlock types.HardBlockConfig, log zerolog.Logger) *Engine {
	return &Engine{rules: rules, hardBlock: hardBlock, log: log}
}

// Evaluate fetches the current rule list and applies the trust evaluator.
func (e *Engine) Evaluate(ctx context.Context, req types.PermissionRequest, profile types.Profile) (types.PermissionDecision, error) {
	rules, err := e.rules.List(ctx)
	if err != nil {
		return types.PermissionDecision{}, err
	}
	return Evaluate(req, profile, e.hardBlock, rules), nil
}

// CanExecute is Evaluate plus an audit log line.
func (e *Engine) CanExecute(ctx context.Context, req types.PermissionRequest, profile types.Profile) (types.PermissionDecision, error) {
	decision, err := e.Evaluate(ctx, req, profile)
	if err != nil {
		e.log.Error().Err(err).Str("tool", req.Tool).Msg("trust evaluation failed")
		return decision, err
	}
	e.log.Info().
		Str("tool", req.Tool).
		Str("decision", string(decision.Decision)).
		Str("source", string(decision.Source)).
		Str("reason", decision.Reason).
		Msg("trust decision")
	return decision, nil
}
