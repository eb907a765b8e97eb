package ipcserver

import (
	"context"

	"github.com/acta-run/acta-core/internal/profile"
	"github.com/acta-run/acta-core/pkg/types"
)

// ActiveProfileRuleUpserter adapts the profile manager to
// permcoord.RuleUpserter: a remembered-rule write always targets whichever
// profile is active at the moment the permission was resolved, since the
// coordinator's Resolve call carries no profile id of its own — its
// correlation key is (correlationId, requestId).
type ActiveProfileRuleUpserter struct {
	Profiles *profile.Manager
}

func (u ActiveProfileRuleUpserter) Upsert(ctx context.Context, rule types.TrustRule) error {
	prof, err := u.Profiles.Active()
	if err != nil {
		return err
	}
	return u.Profiles.RuleStore(prof).Upsert(ctx, rule)
}
