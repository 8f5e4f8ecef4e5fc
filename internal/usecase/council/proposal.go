package council

import (
	"context"
	"log/slog"
	"time"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

type CreateProposalInput struct {
	CouncilID  uint64
	ProposerID uint64
	Action     governance.ProposalAction
	// ExpiresInDays of zero uses the policy default.
	ExpiresInDays int
}

// CreateProposal opens a proposal. The quorum is fixed at creation from
// the council's standard or critical quorum depending on the action kind.
func (s *Service) CreateProposal(ctx context.Context, input CreateProposalInput) (ports.Proposal, error) {
	if err := input.Action.Validate(); err != nil {
		return ports.Proposal{}, errs.Validationf("create proposal: %v", err)
	}

	council, found, err := s.councils.GetCouncil(ctx, input.CouncilID)
	if err != nil {
		return ports.Proposal{}, errs.Wrap(err, "load council")
	}
	if !found {
		return ports.Proposal{}, errs.NotFoundf("council %d not found", input.CouncilID)
	}

	if _, isMember, err := s.councils.GetMember(ctx, input.CouncilID, input.ProposerID); err != nil {
		return ports.Proposal{}, errs.Wrap(err, "load proposer membership")
	} else if !isMember {
		return ports.Proposal{}, errs.Unauthorizedf("agent %d is not a member of council %d", input.ProposerID, input.CouncilID)
	}

	actionData, err := governance.EncodeAction(input.Action)
	if err != nil {
		return ports.Proposal{}, errs.Validationf("encode action: %v", err)
	}

	quorum := council.StandardQuorum
	if input.Action.Kind.Critical() {
		quorum = council.CriticalQuorum
	}

	expiresInDays := input.ExpiresInDays
	if expiresInDays <= 0 {
		expiresInDays = s.policy.ProposalExpiresInDays
	}

	proposal, err := s.councils.CreateProposal(ctx, ports.Proposal{
		CouncilID:      input.CouncilID,
		ProposerID:     input.ProposerID,
		Kind:           input.Action.Kind,
		ActionData:     actionData,
		QuorumRequired: quorum,
		ExpiresAt:      s.clock.Now().Add(time.Duration(expiresInDays) * 24 * time.Hour),
	})
	if err != nil {
		return ports.Proposal{}, err
	}

	logging.Info(ctx, "proposal created",
		slog.Uint64("proposal_id", proposal.ProposalID),
		slog.Uint64("council_id", proposal.CouncilID),
		slog.String("kind", string(proposal.Kind)),
		slog.Int("quorum_required", proposal.QuorumRequired),
	)
	return proposal, nil
}

type VoteInput struct {
	ProposalID uint64
	AgentID    uint64
	Choice     governance.VoteChoice
	Comment    string
}

// VoteOutcome returns the proposal as it stands after the vote, including
// any resolution the vote triggered.
type VoteOutcome struct {
	Proposal ports.Proposal
	// Execution is set when this vote passed the proposal and its action
	// executed.
	Execution *ExecutionResult
}

// Vote records a ballot and re-checks resolution in the same transaction.
// A duplicate vote is a conflict, never an overwrite.
func (s *Service) Vote(ctx context.Context, input VoteInput) (VoteOutcome, error) {
	if !governance.IsVoteChoice(string(input.Choice)) {
		return VoteOutcome{}, errs.Validationf("unknown vote choice %q", input.Choice)
	}

	var outcome VoteOutcome
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		proposal, found, err := s.councils.GetProposal(txCtx, input.ProposalID)
		if err != nil {
			return errs.Wrap(err, "load proposal")
		}
		if !found {
			return errs.NotFoundf("proposal %d not found", input.ProposalID)
		}
		if proposal.Status.Terminal() {
			return errs.InvalidStatef("proposal %d is %s", input.ProposalID, proposal.Status)
		}

		now := s.clock.Now()
		if now.After(proposal.ExpiresAt) {
			return errs.InvalidStatef("proposal %d expired at %s", input.ProposalID, proposal.ExpiresAt.Format(time.RFC3339))
		}

		if _, isMember, err := s.councils.GetMember(txCtx, proposal.CouncilID, input.AgentID); err != nil {
			return errs.Wrap(err, "load voter membership")
		} else if !isMember {
			return errs.Unauthorizedf("agent %d is not a member of council %d", input.AgentID, proposal.CouncilID)
		}

		inserted, err := s.councils.InsertVote(txCtx, ports.ProposalVote{
			ProposalID: input.ProposalID,
			AgentID:    input.AgentID,
			Choice:     input.Choice,
			Comment:    input.Comment,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errs.Conflictf("agent %d already voted on proposal %d", input.AgentID, input.ProposalID)
		}

		votesFor, votesAgainst, err := s.councils.CountVotes(txCtx, input.ProposalID)
		if err != nil {
			return err
		}
		if err := s.councils.UpdateProposalTallies(txCtx, input.ProposalID, votesFor, votesAgainst); err != nil {
			return err
		}
		proposal.VotesFor = votesFor
		proposal.VotesAgainst = votesAgainst

		if status := resolutionFor(proposal, now); status != nil {
			execution, err := s.resolveProposal(txCtx, proposal, *status)
			if err != nil {
				return err
			}
			proposal.Status = *status
			outcome.Execution = execution
		}

		outcome.Proposal = proposal
		return nil
	})
	if err != nil {
		return VoteOutcome{}, err
	}

	logging.Info(ctx, "proposal vote recorded",
		slog.Uint64("proposal_id", input.ProposalID),
		slog.Uint64("agent_id", input.AgentID),
		slog.String("choice", string(input.Choice)),
		slog.String("status", string(outcome.Proposal.Status)),
	)
	return outcome, nil
}

// resolutionFor decides the terminal status a proposal should move to, or
// nil when it stays open: quorum met resolves by majority, a passed
// deadline expires it, anything else waits.
func resolutionFor(proposal ports.Proposal, now time.Time) *governance.ProposalStatus {
	if proposal.VotesFor+proposal.VotesAgainst >= proposal.QuorumRequired {
		status := governance.ProposalRejected
		if proposal.VotesFor > proposal.VotesAgainst {
			status = governance.ProposalPassed
		}
		return &status
	}
	if !now.Before(proposal.ExpiresAt) {
		status := governance.ProposalExpired
		return &status
	}
	return nil
}

// resolveProposal persists the terminal status and, only on pass, executes
// the action. The status transition is compare-and-set on open, so a
// concurrent or retried resolution is a no-op and the executor fires at
// most once.
func (s *Service) resolveProposal(ctx context.Context, proposal ports.Proposal, status governance.ProposalStatus) (*ExecutionResult, error) {
	resolved, err := s.councils.MarkProposalResolved(ctx, proposal.ProposalID, status)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, nil
	}

	if status != governance.ProposalPassed {
		return nil, nil
	}

	council, found, err := s.councils.GetCouncil(ctx, proposal.CouncilID)
	if err != nil {
		return nil, errs.Wrap(err, "load council for execution")
	}
	if !found {
		return nil, errs.NotFoundf("council %d not found", proposal.CouncilID)
	}

	action, err := governance.DecodeAction(proposal.ActionData)
	if err != nil {
		return nil, errs.Wrap(err, "decode proposal action")
	}

	result, err := s.executeAction(ctx, council, action)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExpireOpenProposals sweeps a council's open proposals, resolving any
// with a met quorum or a passed deadline. Safe to call repeatedly.
func (s *Service) ExpireOpenProposals(ctx context.Context, councilID uint64) ([]uint64, error) {
	var resolved []uint64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		proposals, err := s.councils.ListOpenProposals(txCtx, councilID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for _, proposal := range proposals {
			status := resolutionFor(proposal, now)
			if status == nil {
				continue
			}
			if _, err := s.resolveProposal(txCtx, proposal, *status); err != nil {
				return err
			}
			resolved = append(resolved, proposal.ProposalID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
