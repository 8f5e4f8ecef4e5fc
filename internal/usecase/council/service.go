package council

import (
	"context"
	"errors"
	"log/slog"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// Policy carries proposal tunables from config.
type Policy struct {
	ProposalExpiresInDays int
}

// Service owns the council lifecycle: creation, membership, eligibility,
// proposals and proposal-action execution.
type Service struct {
	councils ports.CouncilStore
	access   ports.AccessStore
	activity ports.ActivityStore
	uow      ports.UnitOfWork
	clock    ports.Clock
	policy   Policy
}

func NewService(
	councils ports.CouncilStore,
	access ports.AccessStore,
	activity ports.ActivityStore,
	uow ports.UnitOfWork,
	clock ports.Clock,
	policy Policy,
) *Service {
	return &Service{
		councils: councils,
		access:   access,
		activity: activity,
		uow:      uow,
		clock:    clock,
		policy:   policy,
	}
}

type CreateCouncilInput struct {
	RepoID           uint64
	MinKarma         int64
	MinContributions int
	MinMembers       int
	MaxMembers       int
	StandardQuorum   int
	CriticalQuorum   int
}

func (in CreateCouncilInput) validate() error {
	if in.MinMembers < 1 {
		return errors.New("min_members must be at least 1")
	}
	if in.MaxMembers < in.MinMembers {
		return errors.New("max_members must not be below min_members")
	}
	if in.StandardQuorum < 1 || in.CriticalQuorum < 1 {
		return errors.New("quorums must be at least 1")
	}
	if in.CriticalQuorum < in.StandardQuorum {
		return errors.New("critical_quorum must not be below standard_quorum")
	}
	return nil
}

func (s *Service) CreateCouncil(ctx context.Context, input CreateCouncilInput) (ports.Council, error) {
	if err := input.validate(); err != nil {
		return ports.Council{}, errs.Validationf("create council: %v", err)
	}

	if _, err := s.access.GetRepo(ctx, input.RepoID); err != nil {
		if errors.Is(err, ports.ErrRepoNotFound) {
			return ports.Council{}, errs.NotFoundf("repo %d not found", input.RepoID)
		}
		return ports.Council{}, errs.Wrap(err, "load repo")
	}

	council, err := s.councils.CreateCouncil(ctx, ports.Council{
		RepoID:           input.RepoID,
		MinKarma:         input.MinKarma,
		MinContributions: input.MinContributions,
		MinMembers:       input.MinMembers,
		MaxMembers:       input.MaxMembers,
		StandardQuorum:   input.StandardQuorum,
		CriticalQuorum:   input.CriticalQuorum,
	})
	if err != nil {
		return ports.Council{}, err
	}

	logging.Info(ctx, "council created",
		slog.Uint64("council_id", council.CouncilID),
		slog.Uint64("repo_id", council.RepoID),
	)
	return council, nil
}

// Detail is a council with its member list.
type Detail struct {
	Council ports.Council
	Members []ports.CouncilMember
}

func (s *Service) GetCouncil(ctx context.Context, councilID uint64) (Detail, error) {
	council, found, err := s.councils.GetCouncil(ctx, councilID)
	if err != nil {
		return Detail{}, errs.Wrap(err, "load council")
	}
	if !found {
		return Detail{}, errs.NotFoundf("council %d not found", councilID)
	}

	members, err := s.councils.ListMembers(ctx, councilID)
	if err != nil {
		return Detail{}, errs.Wrap(err, "load council members")
	}

	return Detail{Council: council, Members: members}, nil
}

func (s *Service) GetCouncilByRepo(ctx context.Context, repoID uint64) (Detail, error) {
	council, found, err := s.councils.GetCouncilByRepo(ctx, repoID)
	if err != nil {
		return Detail{}, errs.Wrap(err, "load council by repo")
	}
	if !found {
		return Detail{}, errs.NotFoundf("repo %d has no council", repoID)
	}
	return s.GetCouncil(ctx, council.CouncilID)
}

type AddMemberInput struct {
	CouncilID uint64
	AgentID   uint64
	Role      governance.CouncilMemberRole
}

// AddMember adds a member and recomputes the council status in the same
// transaction, so a status flip (forming -> active) lands with the
// membership change that caused it.
func (s *Service) AddMember(ctx context.Context, input AddMemberInput) (ports.Council, error) {
	role := input.Role
	if role == "" {
		role = governance.CouncilRoleMember
	}
	if role != governance.CouncilRoleChair && role != governance.CouncilRoleMember {
		return ports.Council{}, errs.Validationf("unknown council member role %q", input.Role)
	}

	var out ports.Council
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		council, found, err := s.councils.GetCouncil(txCtx, input.CouncilID)
		if err != nil {
			return errs.Wrap(err, "load council")
		}
		if !found {
			return errs.NotFoundf("council %d not found", input.CouncilID)
		}

		if _, found, err := s.access.GetAgent(txCtx, input.AgentID); err != nil {
			return errs.Wrap(err, "load agent")
		} else if !found {
			return errs.NotFoundf("agent %d not found", input.AgentID)
		}

		memberCount, err := s.councils.CountMembers(txCtx, input.CouncilID)
		if err != nil {
			return errs.Wrap(err, "count members")
		}
		if memberCount >= council.MaxMembers {
			return errs.InvalidStatef("council %d is full", input.CouncilID)
		}

		added, err := s.councils.AddMember(txCtx, ports.CouncilMember{
			CouncilID: input.CouncilID,
			AgentID:   input.AgentID,
			Role:      role,
		})
		if err != nil {
			return err
		}
		if !added {
			return errs.Conflictf("agent %d is already a member of council %d", input.AgentID, input.CouncilID)
		}

		out, err = s.recomputeStatus(txCtx, council)
		return err
	})
	if err != nil {
		return ports.Council{}, err
	}

	logging.Info(ctx, "council member added",
		slog.Uint64("council_id", input.CouncilID),
		slog.Uint64("agent_id", input.AgentID),
		slog.String("status", string(out.Status)),
	)
	return out, nil
}

func (s *Service) RemoveMember(ctx context.Context, councilID uint64, agentID uint64) (ports.Council, error) {
	var out ports.Council
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		council, found, err := s.councils.GetCouncil(txCtx, councilID)
		if err != nil {
			return errs.Wrap(err, "load council")
		}
		if !found {
			return errs.NotFoundf("council %d not found", councilID)
		}

		removed, err := s.councils.RemoveMember(txCtx, councilID, agentID)
		if err != nil {
			return err
		}
		if !removed {
			return errs.NotFoundf("agent %d is not a member of council %d", agentID, councilID)
		}

		out, err = s.recomputeStatus(txCtx, council)
		return err
	})
	if err != nil {
		return ports.Council{}, err
	}

	logging.Info(ctx, "council member removed",
		slog.Uint64("council_id", councilID),
		slog.Uint64("agent_id", agentID),
		slog.String("status", string(out.Status)),
	)
	return out, nil
}

// RecomputeStatus reloads the council and re-derives its status from the
// current member count. It is for callers that mutate membership through
// the store directly, such as election completion.
func (s *Service) RecomputeStatus(ctx context.Context, councilID uint64) (ports.Council, error) {
	council, found, err := s.councils.GetCouncil(ctx, councilID)
	if err != nil {
		return ports.Council{}, errs.Wrap(err, "load council")
	}
	if !found {
		return ports.Council{}, errs.NotFoundf("council %d not found", councilID)
	}
	return s.recomputeStatus(ctx, council)
}

// recomputeStatus derives the status from the current member count and
// persists it when it changed. Must run inside the caller's transaction.
func (s *Service) recomputeStatus(ctx context.Context, council ports.Council) (ports.Council, error) {
	memberCount, err := s.councils.CountMembers(ctx, council.CouncilID)
	if err != nil {
		return ports.Council{}, errs.Wrap(err, "count members")
	}

	status := governance.DeriveCouncilStatus(memberCount, council.MinMembers)
	if status != council.Status {
		if err := s.councils.UpdateCouncilStatus(ctx, council.CouncilID, status); err != nil {
			return ports.Council{}, err
		}
		council.Status = status
	}
	return council, nil
}
