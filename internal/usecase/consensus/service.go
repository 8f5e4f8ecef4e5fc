package consensus

import (
	"context"
	"errors"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// Service computes whether accumulated reviews on a patch satisfy the
// repo's merge policy.
type Service struct {
	access  ports.AccessStore
	reviews ports.ReviewStore
}

func NewService(access ports.AccessStore, reviews ports.ReviewStore) *Service {
	return &Service{
		access:  access,
		reviews: reviews,
	}
}

// Result of a consensus check. Ratio and the weights are only meaningful
// for guild/open outcomes that got past the minimum-review gate.
type Result struct {
	Reached        bool
	Reason         governance.ConsensusReason
	Ratio          float64
	ReviewCount    int
	ApprovalWeight float64
	TotalWeight    float64
}

// Check dispatches on the repo's ownership model. Solo repos need one
// approving maintainer review; guild repos count maintainer reviews
// equally; open repos weight humans flat and agents by sqrt(karma+1).
func (s *Service) Check(ctx context.Context, patchID uint64, repoID uint64) (Result, error) {
	repo, err := s.access.GetRepo(ctx, repoID)
	if err != nil {
		if errors.Is(err, ports.ErrRepoNotFound) {
			return Result{}, errs.NotFoundf("repo %d not found", repoID)
		}
		return Result{}, errs.Wrap(err, "load repo policy")
	}

	reviews, err := s.reviews.ListReviews(ctx, patchID)
	if err != nil {
		return Result{}, errs.Wrap(err, "load reviews")
	}

	switch repo.OwnershipModel {
	case governance.OwnershipSolo:
		return checkSolo(reviews), nil
	case governance.OwnershipGuild:
		return checkGuild(repo, reviews), nil
	case governance.OwnershipOpen:
		return checkOpen(repo, reviews), nil
	default:
		return Result{}, errs.Validationf("repo %d has unknown ownership model %q", repoID, repo.OwnershipModel)
	}
}

// checkSolo: the owner keeps veto power. Any number of non-maintainer
// approvals is irrelevant.
func checkSolo(reviews []ports.Review) Result {
	for _, review := range reviews {
		if review.IsMaintainer && review.Verdict == governance.VerdictApprove {
			return Result{
				Reached:     true,
				Reason:      governance.ConsensusOwnerApproved,
				ReviewCount: len(reviews),
			}
		}
	}
	return Result{
		Reached:     false,
		Reason:      governance.ConsensusAwaitingOwner,
		ReviewCount: len(reviews),
	}
}

// checkGuild counts only maintainer reviews, each with equal weight
// regardless of reputation. No karma fallback below min_reviews.
func checkGuild(repo ports.Repo, reviews []ports.Review) Result {
	var maintainerReviews, approvals, rejections int
	for _, review := range reviews {
		if !review.IsMaintainer {
			continue
		}
		maintainerReviews++
		switch review.Verdict {
		case governance.VerdictApprove:
			approvals++
		case governance.VerdictRequestChanges:
			rejections++
		}
	}

	if maintainerReviews < repo.MinReviews {
		return Result{
			Reached:     false,
			Reason:      governance.ConsensusInsufficientReviews,
			ReviewCount: maintainerReviews,
		}
	}

	return ratioResult(float64(approvals), float64(approvals+rejections), repo.ConsensusThreshold, maintainerReviews)
}

// checkOpen weights every review: humans at the repo's flat weight, agents
// at sqrt(karma_snapshot+1) so sustained reputation pays off with
// diminishing returns.
func checkOpen(repo ports.Repo, reviews []ports.Review) Result {
	if len(reviews) < repo.MinReviews {
		return Result{
			Reached:     false,
			Reason:      governance.ConsensusInsufficientReviews,
			ReviewCount: len(reviews),
		}
	}

	var approvalWeight, totalWeight float64
	for _, review := range reviews {
		weight := governance.AgentReviewWeight(review.KarmaSnapshot)
		if review.IsHuman {
			weight = repo.HumanReviewWeight
		}
		switch review.Verdict {
		case governance.VerdictApprove:
			approvalWeight += weight
			totalWeight += weight
		case governance.VerdictRequestChanges:
			totalWeight += weight
		}
	}

	return ratioResult(approvalWeight, totalWeight, repo.ConsensusThreshold, len(reviews))
}

func ratioResult(approvals float64, total float64, threshold float64, reviewCount int) Result {
	result := Result{
		ReviewCount:    reviewCount,
		ApprovalWeight: approvals,
		TotalWeight:    total,
	}

	if total <= 0 {
		result.Reason = governance.ConsensusThresholdNotMet
		return result
	}

	result.Ratio = approvals / total
	if result.Ratio >= threshold {
		result.Reached = true
		result.Reason = governance.ConsensusThresholdMet
	} else {
		result.Reason = governance.ConsensusThresholdNotMet
	}
	return result
}
