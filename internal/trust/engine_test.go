package trust

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/pkg/types"
)

type fakeRuleLister struct {
	rules []types.TrustRule
}

func (f fakeRuleLister) List(ctx context.Context) ([]types.TrustRule, error) {
	return f.rules, nil
}

func TestEngine_CanExecuteDelegatesToEvaluate(t *testing.T) {
	rules := fakeRuleLister{rules: []types.TrustRule{
		{ID: "r1", Tool: "file.read", Decision: types.DecisionDeny},
	}}
	engine := NewEngine(rules, types.HardBlockConfig{}, zerolog.Nop())

	req := types.PermissionRequest{ID: "x", Tool: "file.read", Risk: types.RiskLow}
	profile := types.Profile{Trust: types.TrustConfig{DefaultTrustLevel: types.TrustLevelFull}}

	d, err := engine.CanExecute(context.Background(), req, profile)
	if err != nil {
		t.Fatalf("CanExecute failed: %v", err)
	}
	if d.Decision != types.DecisionDeny || d.Source != types.SourceRule {
		t.Errorf("got %+v, want rule-sourced deny", d)
	}
}
