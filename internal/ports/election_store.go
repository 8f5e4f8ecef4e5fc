package ports

import (
	"context"
	"errors"
	"time"

	"govcore/internal/domain/governance"
)

var (
	ErrElectionNotFound  = errors.New("election not found")
	ErrCandidateNotFound = errors.New("candidate not found")
)

type Election struct {
	ElectionID         uint64
	CouncilID          uint64
	Status             governance.ElectionStatus
	SeatsAvailable     int
	NominationsCloseAt time.Time
	VotingCloseAt      time.Time
}

type Candidate struct {
	CandidateID uint64
	ElectionID  uint64
	AgentID     uint64
	NominatorID uint64
	Statement   string
	Status      governance.CandidateStatus
	VoteCount   int
}

type ElectionVote struct {
	ElectionID  uint64
	VoterID     uint64
	CandidateID uint64
}

// ElectionStore covers elections, candidates and ballots. CreateCandidate
// and InsertElectionVote are atomic with their uniqueness checks.
// UpdateElectionStatus is compare-and-set on the current status so a stale
// caller cannot skip or repeat a lifecycle step.
type ElectionStore interface {
	CreateElection(ctx context.Context, election Election) (Election, error)
	GetElection(ctx context.Context, electionID uint64) (Election, bool, error)
	GetOpenElection(ctx context.Context, councilID uint64) (Election, bool, error)
	UpdateElectionStatus(ctx context.Context, electionID uint64, from governance.ElectionStatus, to governance.ElectionStatus) (bool, error)

	CreateCandidate(ctx context.Context, candidate Candidate) (Candidate, bool, error)
	GetCandidate(ctx context.Context, electionID uint64, agentID uint64) (Candidate, bool, error)
	// ListCandidates returns candidates in nomination order (ascending id).
	ListCandidates(ctx context.Context, electionID uint64) ([]Candidate, error)
	UpdateCandidateStatus(ctx context.Context, candidateID uint64, status governance.CandidateStatus) error

	InsertElectionVote(ctx context.Context, vote ElectionVote) (bool, error)
	IncrementCandidateVotes(ctx context.Context, candidateID uint64) error
}
