package permission

import (
	"context"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
)

// Decision is a yes/no answer for a single action, with the levels that
// produced it so the caller can explain a denial.
type Decision struct {
	Allowed  bool
	Level    governance.AccessLevel
	Required governance.AccessLevel
	Source   governance.PermissionSource
}

// CanPerform maps the action to its minimum level and compares against the
// resolved permission.
func (s *Service) CanPerform(ctx context.Context, agentID uint64, repoID uint64, action governance.Action) (Decision, error) {
	required, err := governance.MinLevelFor(action)
	if err != nil {
		return Decision{}, errs.Validationf("can perform: %v", err)
	}

	resolution, err := s.Resolve(ctx, agentID, repoID)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:  resolution.Level.AtLeast(required),
		Level:    resolution.Level,
		Required: required,
		Source:   resolution.Source,
	}, nil
}
