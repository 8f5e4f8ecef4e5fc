package council

import (
	"context"
	"errors"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// Eligibility reports the first failing check, in the documented
// short-circuit order.
type Eligibility struct {
	Eligible bool
	Reason   governance.EligibilityReason
	Council  ports.Council
}

// CheckEligibility answers whether an agent could join the repo's council
// right now: council exists, agent exists, karma and contribution floors,
// not already a member, council not full.
func (s *Service) CheckEligibility(ctx context.Context, agentID uint64, repoID uint64) (Eligibility, error) {
	return s.checkEligibility(ctx, agentID, repoID, false)
}

// CheckNominationEligibility relaxes the membership check: elections may
// nominate non-members, who would join on winning a seat.
func (s *Service) CheckNominationEligibility(ctx context.Context, agentID uint64, repoID uint64) (Eligibility, error) {
	return s.checkEligibility(ctx, agentID, repoID, true)
}

func (s *Service) checkEligibility(ctx context.Context, agentID uint64, repoID uint64, relaxMembership bool) (Eligibility, error) {
	if ctx == nil {
		return Eligibility{}, errors.New("context is required")
	}

	council, found, err := s.councils.GetCouncilByRepo(ctx, repoID)
	if err != nil {
		return Eligibility{}, errs.Wrap(err, "load council by repo")
	}
	if !found {
		return Eligibility{Reason: governance.EligibilityNoCouncil}, nil
	}

	agent, found, err := s.access.GetAgent(ctx, agentID)
	if err != nil {
		return Eligibility{}, errs.Wrap(err, "load agent")
	}
	if !found {
		return Eligibility{Reason: governance.EligibilityAgentNotFound, Council: council}, nil
	}

	if agent.Karma < council.MinKarma {
		return Eligibility{Reason: governance.EligibilityKarmaTooLow, Council: council}, nil
	}

	contributions, err := s.activity.ContributionCount(ctx, repoID, agentID)
	if err != nil {
		return Eligibility{}, errs.Wrap(err, "count contributions")
	}
	if contributions < council.MinContributions {
		return Eligibility{Reason: governance.EligibilityNotEnoughActivity, Council: council}, nil
	}

	if !relaxMembership {
		if _, isMember, err := s.councils.GetMember(ctx, council.CouncilID, agentID); err != nil {
			return Eligibility{}, errs.Wrap(err, "load membership")
		} else if isMember {
			return Eligibility{Reason: governance.EligibilityAlreadyMember, Council: council}, nil
		}
	}

	memberCount, err := s.councils.CountMembers(ctx, council.CouncilID)
	if err != nil {
		return Eligibility{}, errs.Wrap(err, "count members")
	}
	if memberCount >= council.MaxMembers {
		return Eligibility{Reason: governance.EligibilityCouncilFull, Council: council}, nil
	}

	return Eligibility{Eligible: true, Council: council}, nil
}
