package stage

import (
	"context"
	"log/slog"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// Service drives repo stage progression: metrics collection, advancement
// checks and the transition audit log.
type Service struct {
	stages   ports.StageStore
	access   ports.AccessStore
	activity ports.ActivityStore
	councils ports.CouncilStore
	uow      ports.UnitOfWork
	clock    ports.Clock
}

func NewService(
	stages ports.StageStore,
	access ports.AccessStore,
	activity ports.ActivityStore,
	councils ports.CouncilStore,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *Service {
	return &Service{
		stages:   stages,
		access:   access,
		activity: activity,
		councils: councils,
		uow:      uow,
		clock:    clock,
	}
}

// Metrics collects the aggregates a repo is judged against. Patch rows and
// completed merges are counted independently; the higher of the two wins
// per dimension, so a lagging source never understates activity.
func (s *Service) Metrics(ctx context.Context, repoID uint64) (governance.StageMetrics, error) {
	patches, err := s.activity.PatchActivity(ctx, repoID)
	if err != nil {
		return governance.StageMetrics{}, errs.Wrap(err, "patch activity")
	}
	merges, err := s.activity.MergeActivity(ctx, repoID)
	if err != nil {
		return governance.StageMetrics{}, errs.Wrap(err, "merge activity")
	}

	maintainers, err := s.access.CountMaintainers(ctx, repoID)
	if err != nil {
		return governance.StageMetrics{}, errs.Wrap(err, "count maintainers")
	}

	councilActive := false
	if c, found, err := s.councils.GetCouncilByRepo(ctx, repoID); err != nil {
		return governance.StageMetrics{}, errs.Wrap(err, "load council")
	} else if found {
		councilActive = c.Status == governance.CouncilActive
	}

	return governance.StageMetrics{
		ContributorCount: maxInt(patches.ContributorCount, merges.ContributorCount),
		PatchCount:       maxInt(patches.PatchCount, merges.PatchCount),
		MaintainerCount:  maintainers,
		CouncilActive:    councilActive,
	}, nil
}

// Advancement is the answer to "can this repo move up a stage".
type Advancement struct {
	Eligible     bool
	CurrentStage governance.Stage
	NextStage    governance.Stage
	Metrics      governance.StageMetrics
	// Unmet lists every failed requirement, not just the first.
	Unmet  []string
	Reason string
}

// CheckAdvancement evaluates the repo against the next stage's entry
// requirements without changing anything.
func (s *Service) CheckAdvancement(ctx context.Context, repoID uint64) (Advancement, error) {
	repo, err := s.access.GetRepo(ctx, repoID)
	if err != nil {
		return Advancement{}, err
	}

	next := governance.NextStage(repo.Stage)
	if next == "" {
		return Advancement{
			Eligible:     false,
			CurrentStage: repo.Stage,
			Reason:       "already_at_max_stage",
		}, nil
	}

	metrics, err := s.Metrics(ctx, repoID)
	if err != nil {
		return Advancement{}, err
	}

	unmet := governance.UnmetRequirements(next, metrics)
	out := Advancement{
		Eligible:     len(unmet) == 0,
		CurrentStage: repo.Stage,
		NextStage:    next,
		Metrics:      metrics,
		Unmet:        unmet,
	}
	if !out.Eligible {
		out.Reason = "requirements_not_met"
	}
	return out, nil
}

// Transition records a stage change and what it was based on.
type Transition struct {
	Success   bool
	FromStage governance.Stage
	ToStage   governance.Stage
	Forced    bool
	Unmet     []string
	Reason    string
}

// AdvanceStage moves the repo to the next stage when the requirements are
// met, or unconditionally when forced. The repo update and the history
// entry land in one transaction.
func (s *Service) AdvanceStage(ctx context.Context, repoID uint64, force bool) (Transition, error) {
	check, err := s.CheckAdvancement(ctx, repoID)
	if err != nil {
		return Transition{}, err
	}
	if check.NextStage == "" {
		return Transition{
			Success:   false,
			FromStage: check.CurrentStage,
			Reason:    "already_at_max_stage",
		}, nil
	}
	if !check.Eligible && !force {
		return Transition{
			Success:   false,
			FromStage: check.CurrentStage,
			ToStage:   check.NextStage,
			Unmet:     check.Unmet,
			Reason:    "requirements_not_met",
		}, nil
	}

	reason := "requirements_met"
	if !check.Eligible {
		reason = "forced"
	}
	if err := s.transition(ctx, repoID, check.CurrentStage, check.NextStage, reason, force && !check.Eligible); err != nil {
		return Transition{}, err
	}

	return Transition{
		Success:   true,
		FromStage: check.CurrentStage,
		ToStage:   check.NextStage,
		Forced:    force && !check.Eligible,
		Reason:    reason,
	}, nil
}

// SetStage moves the repo to an arbitrary stage, up or down, without
// checking requirements. Setting the current stage again is reported as a
// failure and leaves no history entry.
func (s *Service) SetStage(ctx context.Context, repoID uint64, target string) (Transition, error) {
	stage, err := governance.ParseStage(target)
	if err != nil {
		return Transition{}, errs.Validationf("invalid stage %q", target)
	}

	repo, err := s.access.GetRepo(ctx, repoID)
	if err != nil {
		return Transition{}, err
	}
	if repo.Stage == stage {
		return Transition{
			Success:   false,
			FromStage: repo.Stage,
			ToStage:   stage,
			Reason:    "already_at_stage",
		}, nil
	}

	if err := s.transition(ctx, repoID, repo.Stage, stage, "manual", true); err != nil {
		return Transition{}, err
	}
	return Transition{
		Success:   true,
		FromStage: repo.Stage,
		ToStage:   stage,
		Forced:    true,
		Reason:    "manual",
	}, nil
}

func (s *Service) transition(ctx context.Context, repoID uint64, from governance.Stage, to governance.Stage, reason string, forced bool) error {
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.stages.UpdateRepoStage(txCtx, repoID, to); err != nil {
			return err
		}
		return s.stages.AppendHistory(txCtx, ports.StageHistoryEntry{
			RepoID:         repoID,
			FromStage:      from,
			ToStage:        to,
			TransitionedAt: s.clock.Now(),
			Reason:         reason,
			Forced:         forced,
		})
	})
	if err != nil {
		return err
	}

	logging.Info(ctx, "repo stage changed",
		slog.Uint64("repo_id", repoID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("reason", reason),
		slog.Bool("forced", forced),
	)
	return nil
}

// History returns the stage audit log, oldest first.
func (s *Service) History(ctx context.Context, repoID uint64) ([]ports.StageHistoryEntry, error) {
	if _, err := s.access.GetRepo(ctx, repoID); err != nil {
		return nil, err
	}
	return s.stages.ListHistory(ctx, repoID)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
