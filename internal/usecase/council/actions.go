package council

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// ExecutionResult reports what a passed proposal changed.
type ExecutionResult struct {
	Executed bool
	Action   governance.ActionKind
	Detail   string
}

// executeAction dispatches a passed proposal's action over the closed kind
// set. Every branch is an idempotent store mutation: re-applying an
// already-applied action changes nothing further.
func (s *Service) executeAction(ctx context.Context, council ports.Council, action governance.ProposalAction) (ExecutionResult, error) {
	var (
		detail string
		err    error
	)

	switch action.Kind {
	case governance.ActionAddMaintainer:
		payload := action.AddMaintainer
		err = s.access.UpsertMaintainer(ctx, ports.Maintainer{
			RepoID:  council.RepoID,
			AgentID: payload.AgentID,
			Role:    payload.Role,
		})
		detail = fmt.Sprintf("agent %d as %s", payload.AgentID, payload.Role)

	case governance.ActionRemoveMaintainer:
		payload := action.RemoveMaintainer
		err = s.access.RemoveMaintainer(ctx, council.RepoID, payload.AgentID)
		detail = fmt.Sprintf("agent %d", payload.AgentID)

	case governance.ActionModifyAccess:
		payload := action.ModifyAccess
		grant := ports.RepoAccess{
			RepoID:  council.RepoID,
			AgentID: payload.AgentID,
			Level:   payload.Level,
		}
		if payload.ExpiresInDays > 0 {
			expiresAt := s.clock.Now().Add(time.Duration(payload.ExpiresInDays) * 24 * time.Hour)
			grant.ExpiresAt = &expiresAt
		}
		err = s.access.UpsertRepoAccess(ctx, grant)
		detail = fmt.Sprintf("agent %d to %s", payload.AgentID, payload.Level)

	case governance.ActionChangeOwnership:
		payload := action.ChangeOwnership
		err = s.access.UpdateRepoOwnership(ctx, council.RepoID, payload.Model)
		detail = string(payload.Model)

	case governance.ActionModifyBranchRule:
		payload := action.ModifyBranchRule
		err = s.access.UpsertBranchRule(ctx, ports.BranchRule{
			RepoID:            council.RepoID,
			BranchPattern:     payload.BranchPattern,
			Priority:          payload.Priority,
			DirectPush:        payload.DirectPush,
			RequiredApprovals: payload.RequiredApprovals,
			RequireTestsPass:  payload.RequireTestsPass,
		})
		detail = payload.BranchPattern

	default:
		return ExecutionResult{}, errs.Validationf("unknown proposal action kind %q", action.Kind)
	}

	if err != nil {
		return ExecutionResult{}, errs.Wrapf(err, "execute %s", action.Kind)
	}

	logging.Info(ctx, "proposal action executed",
		slog.Uint64("council_id", council.CouncilID),
		slog.Uint64("repo_id", council.RepoID),
		slog.String("action", string(action.Kind)),
		slog.String("detail", detail),
	)
	return ExecutionResult{Executed: true, Action: action.Kind, Detail: detail}, nil
}
