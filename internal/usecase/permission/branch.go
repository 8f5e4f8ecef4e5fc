package permission

import (
	"context"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// PushDecision answers a branch push request. Rule is the matched branch
// rule, when one matched.
type PushDecision struct {
	Allowed bool
	Reason  governance.PushReason
	Rule    *ports.BranchRule
}

// CanPushToBranch gates a direct push: write access first, then the
// highest-priority branch rule whose pattern matches.
func (s *Service) CanPushToBranch(ctx context.Context, agentID uint64, repoID uint64, branch string) (PushDecision, error) {
	decision, err := s.CanPerform(ctx, agentID, repoID, governance.ActionWrite)
	if err != nil {
		return PushDecision{}, err
	}
	if !decision.Allowed {
		return PushDecision{Allowed: false, Reason: governance.PushInsufficientPermissions}, nil
	}

	rules, err := s.store.ListBranchRules(ctx, repoID)
	if err != nil {
		return PushDecision{}, errs.Wrap(err, "load branch rules")
	}

	// Rules arrive priority-descending; the first match wins.
	var matched *ports.BranchRule
	for i := range rules {
		if governance.MatchesBranchPattern(rules[i].BranchPattern, branch) {
			matched = &rules[i]
			break
		}
	}
	if matched == nil {
		return PushDecision{Allowed: true, Reason: governance.PushNoBranchRule}, nil
	}

	switch matched.DirectPush {
	case governance.DirectPushNone:
		return PushDecision{Allowed: false, Reason: governance.PushBranchProtected, Rule: matched}, nil

	case governance.DirectPushMaintainers:
		_, isMaintainer, err := s.store.GetMaintainer(ctx, repoID, agentID)
		if err != nil {
			return PushDecision{}, errs.Wrap(err, "load maintainer row")
		}
		if !isMaintainer {
			return PushDecision{Allowed: false, Reason: governance.PushMaintainersOnly, Rule: matched}, nil
		}
		return PushDecision{Allowed: true, Reason: governance.PushAllowed, Rule: matched}, nil

	default:
		return PushDecision{Allowed: true, Reason: governance.PushAllowed, Rule: matched}, nil
	}
}
