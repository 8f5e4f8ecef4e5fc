package election

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
	"govcore/internal/usecase/council"
)

// Policy carries the election tunables from config.
type Policy struct {
	NominationsDays int
	VotingDays      int
	TermLimitMonths int
	// MinExtraCandidates is how many candidates beyond the seat count an
	// election needs before voting may start. The default of 1 keeps
	// uncontested elections from proceeding; it is policy, not a law of
	// the system.
	MinExtraCandidates int
}

// Service runs council elections: nomination, voting, tallying and term
// expiry.
type Service struct {
	elections ports.ElectionStore
	councils  ports.CouncilStore
	councilSv *council.Service
	uow       ports.UnitOfWork
	clock     ports.Clock
	policy    Policy
}

func NewService(
	elections ports.ElectionStore,
	councils ports.CouncilStore,
	councilSv *council.Service,
	uow ports.UnitOfWork,
	clock ports.Clock,
	policy Policy,
) *Service {
	return &Service{
		elections: elections,
		councils:  councils,
		councilSv: councilSv,
		uow:       uow,
		clock:     clock,
		policy:    policy,
	}
}

type StartElectionInput struct {
	CouncilID      uint64
	SeatsAvailable int
}

// StartElection opens nominations. A council runs at most one
// non-completed election at a time.
func (s *Service) StartElection(ctx context.Context, input StartElectionInput) (ports.Election, error) {
	if input.SeatsAvailable < 1 {
		return ports.Election{}, errs.Validationf("seats_available must be at least 1")
	}

	var out ports.Election
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, found, err := s.councils.GetCouncil(txCtx, input.CouncilID); err != nil {
			return errs.Wrap(err, "load council")
		} else if !found {
			return errs.NotFoundf("council %d not found", input.CouncilID)
		}

		if _, running, err := s.elections.GetOpenElection(txCtx, input.CouncilID); err != nil {
			return errs.Wrap(err, "check running election")
		} else if running {
			return errs.Conflictf("council %d already has a running election", input.CouncilID)
		}

		now := s.clock.Now()
		election, err := s.elections.CreateElection(txCtx, ports.Election{
			CouncilID:          input.CouncilID,
			SeatsAvailable:     input.SeatsAvailable,
			NominationsCloseAt: now.Add(time.Duration(s.policy.NominationsDays) * 24 * time.Hour),
			VotingCloseAt:      now.Add(time.Duration(s.policy.NominationsDays+s.policy.VotingDays) * 24 * time.Hour),
		})
		if err != nil {
			return err
		}
		out = election
		return nil
	})
	if err != nil {
		return ports.Election{}, err
	}

	logging.Info(ctx, "election started",
		slog.Uint64("election_id", out.ElectionID),
		slog.Uint64("council_id", out.CouncilID),
		slog.Int("seats_available", out.SeatsAvailable),
	)
	return out, nil
}

// ElectionDetail pairs an election with its candidate list.
type ElectionDetail struct {
	Election   ports.Election
	Candidates []ports.Candidate
}

func (s *Service) GetElection(ctx context.Context, electionID uint64) (ElectionDetail, error) {
	election, found, err := s.elections.GetElection(ctx, electionID)
	if err != nil {
		return ElectionDetail{}, errs.Wrap(err, "load election")
	}
	if !found {
		return ElectionDetail{}, errs.NotFoundf("election %d not found", electionID)
	}

	candidates, err := s.elections.ListCandidates(ctx, electionID)
	if err != nil {
		return ElectionDetail{}, errs.Wrap(err, "load candidates")
	}
	return ElectionDetail{Election: election, Candidates: candidates}, nil
}

type NominateInput struct {
	ElectionID  uint64
	AgentID     uint64
	NominatorID uint64
	Statement   string
}

// NominateCandidate nominates an agent while nominations are open. The
// nominee passes council eligibility with the membership check relaxed:
// a non-member may stand for a seat.
func (s *Service) NominateCandidate(ctx context.Context, input NominateInput) (ports.Candidate, error) {
	election, found, err := s.elections.GetElection(ctx, input.ElectionID)
	if err != nil {
		return ports.Candidate{}, errs.Wrap(err, "load election")
	}
	if !found {
		return ports.Candidate{}, errs.NotFoundf("election %d not found", input.ElectionID)
	}
	if election.Status != governance.ElectionNominations {
		return ports.Candidate{}, errs.InvalidStatef("election %d is not accepting nominations", input.ElectionID)
	}

	electionCouncil, found, err := s.councils.GetCouncil(ctx, election.CouncilID)
	if err != nil {
		return ports.Candidate{}, errs.Wrap(err, "load council")
	}
	if !found {
		return ports.Candidate{}, errs.NotFoundf("council %d not found", election.CouncilID)
	}

	eligibility, err := s.councilSv.CheckNominationEligibility(ctx, input.AgentID, electionCouncil.RepoID)
	if err != nil {
		return ports.Candidate{}, err
	}
	if !eligibility.Eligible {
		return ports.Candidate{}, errs.Validationf("agent %d is not eligible: %s", input.AgentID, eligibility.Reason)
	}

	candidate, created, err := s.elections.CreateCandidate(ctx, ports.Candidate{
		ElectionID:  input.ElectionID,
		AgentID:     input.AgentID,
		NominatorID: input.NominatorID,
		Statement:   input.Statement,
	})
	if err != nil {
		return ports.Candidate{}, err
	}
	if !created {
		return ports.Candidate{}, errs.Conflictf("agent %d is already nominated in election %d", input.AgentID, input.ElectionID)
	}

	logging.Info(ctx, "candidate nominated",
		slog.Uint64("election_id", input.ElectionID),
		slog.Uint64("agent_id", input.AgentID),
		slog.Uint64("nominator_id", input.NominatorID),
	)
	return candidate, nil
}

// AcceptNomination moves a nominated candidate to accepted.
func (s *Service) AcceptNomination(ctx context.Context, electionID uint64, agentID uint64) error {
	return s.setCandidateStatus(ctx, electionID, agentID, governance.CandidateNominated, governance.CandidateAccepted)
}

// WithdrawCandidacy withdraws a nominated or accepted candidate.
func (s *Service) WithdrawCandidacy(ctx context.Context, electionID uint64, agentID uint64) error {
	candidate, found, err := s.elections.GetCandidate(ctx, electionID, agentID)
	if err != nil {
		return errs.Wrap(err, "load candidate")
	}
	if !found {
		return errs.NotFoundf("agent %d is not a candidate in election %d", agentID, electionID)
	}
	if candidate.Status != governance.CandidateNominated && candidate.Status != governance.CandidateAccepted {
		return errs.InvalidStatef("candidacy of agent %d is already %s", agentID, candidate.Status)
	}
	return s.elections.UpdateCandidateStatus(ctx, candidate.CandidateID, governance.CandidateWithdrawn)
}

func (s *Service) setCandidateStatus(ctx context.Context, electionID uint64, agentID uint64, from governance.CandidateStatus, to governance.CandidateStatus) error {
	candidate, found, err := s.elections.GetCandidate(ctx, electionID, agentID)
	if err != nil {
		return errs.Wrap(err, "load candidate")
	}
	if !found {
		return errs.NotFoundf("agent %d is not a candidate in election %d", agentID, electionID)
	}
	if candidate.Status != from {
		return errs.InvalidStatef("candidacy of agent %d is %s, not %s", agentID, candidate.Status, from)
	}
	return s.elections.UpdateCandidateStatus(ctx, candidate.CandidateID, to)
}

// StartVoting closes nominations. The election must be contested: strictly
// more standing candidates than seats, per policy.
func (s *Service) StartVoting(ctx context.Context, electionID uint64) (ports.Election, error) {
	election, found, err := s.elections.GetElection(ctx, electionID)
	if err != nil {
		return ports.Election{}, errs.Wrap(err, "load election")
	}
	if !found {
		return ports.Election{}, errs.NotFoundf("election %d not found", electionID)
	}
	if election.Status != governance.ElectionNominations {
		return ports.Election{}, errs.InvalidStatef("election %d is not in nominations", electionID)
	}

	standing, err := s.standingCandidates(ctx, electionID)
	if err != nil {
		return ports.Election{}, err
	}
	if len(standing) < election.SeatsAvailable+s.policy.MinExtraCandidates {
		return ports.Election{}, errs.InvalidStatef(
			"insufficient_candidates: election %d has %d standing candidates for %d seats",
			electionID, len(standing), election.SeatsAvailable,
		)
	}

	moved, err := s.elections.UpdateElectionStatus(ctx, electionID, governance.ElectionNominations, governance.ElectionVoting)
	if err != nil {
		return ports.Election{}, err
	}
	if !moved {
		return ports.Election{}, errs.InvalidStatef("election %d left nominations concurrently", electionID)
	}

	election.Status = governance.ElectionVoting
	logging.Info(ctx, "election voting opened",
		slog.Uint64("election_id", electionID),
		slog.Int("standing_candidates", len(standing)),
	)
	return election, nil
}

// standingCandidates are those still in the running: accepted nominees.
func (s *Service) standingCandidates(ctx context.Context, electionID uint64) ([]ports.Candidate, error) {
	candidates, err := s.elections.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, errs.Wrap(err, "load candidates")
	}

	standing := make([]ports.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Status == governance.CandidateAccepted {
			standing = append(standing, candidate)
		}
	}
	return standing, nil
}

type CastVoteInput struct {
	ElectionID  uint64
	VoterID     uint64
	CandidateID uint64
}

// CastVote records a council member's ballot. One ballot per voter per
// election; the uniqueness check is atomic with the insert.
func (s *Service) CastVote(ctx context.Context, input CastVoteInput) error {
	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		election, found, err := s.elections.GetElection(txCtx, input.ElectionID)
		if err != nil {
			return errs.Wrap(err, "load election")
		}
		if !found {
			return errs.NotFoundf("election %d not found", input.ElectionID)
		}
		if election.Status != governance.ElectionVoting {
			return errs.InvalidStatef("election %d is not in voting", input.ElectionID)
		}

		if _, isMember, err := s.councils.GetMember(txCtx, election.CouncilID, input.VoterID); err != nil {
			return errs.Wrap(err, "load voter membership")
		} else if !isMember {
			return errs.Unauthorizedf("agent %d is not a member of council %d", input.VoterID, election.CouncilID)
		}

		candidates, err := s.elections.ListCandidates(txCtx, input.ElectionID)
		if err != nil {
			return errs.Wrap(err, "load candidates")
		}
		var target *ports.Candidate
		for i := range candidates {
			if candidates[i].CandidateID == input.CandidateID {
				target = &candidates[i]
				break
			}
		}
		if target == nil {
			return errs.NotFoundf("candidate %d not found in election %d", input.CandidateID, input.ElectionID)
		}

		inserted, err := s.elections.InsertElectionVote(txCtx, ports.ElectionVote{
			ElectionID:  input.ElectionID,
			VoterID:     input.VoterID,
			CandidateID: input.CandidateID,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errs.Conflictf("agent %d already voted in election %d", input.VoterID, input.ElectionID)
		}

		return s.elections.IncrementCandidateVotes(txCtx, input.CandidateID)
	})
}

// CompletionResult reports the seats filled by CompleteElection.
type CompletionResult struct {
	Election ports.Election
	Elected  []ports.Candidate
}

// CompleteElection tallies ballots: standing candidates sorted by vote
// count descending, ties broken by earlier nomination. The top seats are
// elected, join the council as members with a term from policy, and the
// council status is recomputed. Completion is compare-and-set, so a
// retried completion is a no-op.
func (s *Service) CompleteElection(ctx context.Context, electionID uint64) (CompletionResult, error) {
	var out CompletionResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		election, found, err := s.elections.GetElection(txCtx, electionID)
		if err != nil {
			return errs.Wrap(err, "load election")
		}
		if !found {
			return errs.NotFoundf("election %d not found", electionID)
		}
		if election.Status != governance.ElectionVoting {
			return errs.InvalidStatef("election %d is not in voting", electionID)
		}

		moved, err := s.elections.UpdateElectionStatus(txCtx, electionID, governance.ElectionVoting, governance.ElectionCompleted)
		if err != nil {
			return err
		}
		if !moved {
			return errs.InvalidStatef("election %d completed concurrently", electionID)
		}

		standing, err := s.standingCandidates(txCtx, electionID)
		if err != nil {
			return err
		}

		// Stable sort: list order is nomination order, so equal vote
		// counts keep the earlier nomination first.
		sort.SliceStable(standing, func(i, j int) bool {
			return standing[i].VoteCount > standing[j].VoteCount
		})

		seats := election.SeatsAvailable
		if seats > len(standing) {
			seats = len(standing)
		}

		termExpiresAt := s.clock.Now().AddDate(0, s.policy.TermLimitMonths, 0)
		for i, candidate := range standing {
			if i < seats {
				if err := s.elections.UpdateCandidateStatus(txCtx, candidate.CandidateID, governance.CandidateElected); err != nil {
					return err
				}
				if _, err := s.councils.AddMember(txCtx, ports.CouncilMember{
					CouncilID:     election.CouncilID,
					AgentID:       candidate.AgentID,
					Role:          governance.CouncilRoleMember,
					TermExpiresAt: &termExpiresAt,
				}); err != nil {
					return err
				}
				candidate.Status = governance.CandidateElected
				out.Elected = append(out.Elected, candidate)
			} else {
				if err := s.elections.UpdateCandidateStatus(txCtx, candidate.CandidateID, governance.CandidateNotElected); err != nil {
					return err
				}
			}
		}

		if _, err := s.councilSv.RecomputeStatus(txCtx, election.CouncilID); err != nil {
			return err
		}

		election.Status = governance.ElectionCompleted
		out.Election = election
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}

	logging.Info(ctx, "election completed",
		slog.Uint64("election_id", electionID),
		slog.Int("elected", len(out.Elected)),
	)
	return out, nil
}

// CheckExpiredTerms removes members whose term has lapsed, recomputing the
// council status after each removal, and reports who was removed. Safe to
// call repeatedly.
func (s *Service) CheckExpiredTerms(ctx context.Context, councilID uint64) ([]uint64, error) {
	expired, err := s.councils.ListExpiredMembers(ctx, councilID, s.clock.Now())
	if err != nil {
		return nil, errs.Wrap(err, "list expired members")
	}

	var removed []uint64
	for _, member := range expired {
		if _, err := s.councilSv.RemoveMember(ctx, councilID, member.AgentID); err != nil {
			// A concurrent sweep may have removed them first.
			if errs.IsKind(err, errs.KindNotFound) {
				continue
			}
			return removed, err
		}
		removed = append(removed, member.AgentID)
	}

	if len(removed) > 0 {
		logging.Info(ctx, "expired council terms removed",
			slog.Uint64("council_id", councilID),
			slog.Int("removed", len(removed)),
		)
	}
	return removed, nil
}
