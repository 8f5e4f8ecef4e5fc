package ports

import (
	"context"
	"errors"
	"time"

	"govcore/internal/domain/governance"
)

var (
	ErrCouncilNotFound  = errors.New("council not found")
	ErrProposalNotFound = errors.New("proposal not found")
)

type Council struct {
	CouncilID        uint64
	RepoID           uint64
	MinKarma         int64
	MinContributions int
	MinMembers       int
	MaxMembers       int
	StandardQuorum   int
	CriticalQuorum   int
	Status           governance.CouncilStatus
}

type CouncilMember struct {
	CouncilID     uint64
	AgentID       uint64
	Role          governance.CouncilMemberRole
	TermExpiresAt *time.Time
}

type Proposal struct {
	ProposalID     uint64
	CouncilID      uint64
	ProposerID     uint64
	Kind           governance.ActionKind
	ActionData     string
	QuorumRequired int
	VotesFor       int
	VotesAgainst   int
	Status         governance.ProposalStatus
	ExpiresAt      time.Time
}

type ProposalVote struct {
	ProposalID uint64
	AgentID    uint64
	Choice     governance.VoteChoice
	Comment    string
}

// CouncilStore covers councils, membership, proposals and proposal votes.
// InsertVote and AddMember are atomic with their uniqueness checks: a
// duplicate reports false with no row written.
type CouncilStore interface {
	CreateCouncil(ctx context.Context, council Council) (Council, error)
	GetCouncil(ctx context.Context, councilID uint64) (Council, bool, error)
	GetCouncilByRepo(ctx context.Context, repoID uint64) (Council, bool, error)
	UpdateCouncilStatus(ctx context.Context, councilID uint64, status governance.CouncilStatus) error

	ListMembers(ctx context.Context, councilID uint64) ([]CouncilMember, error)
	GetMember(ctx context.Context, councilID uint64, agentID uint64) (CouncilMember, bool, error)
	CountMembers(ctx context.Context, councilID uint64) (int, error)
	AddMember(ctx context.Context, member CouncilMember) (bool, error)
	RemoveMember(ctx context.Context, councilID uint64, agentID uint64) (bool, error)
	ListExpiredMembers(ctx context.Context, councilID uint64, now time.Time) ([]CouncilMember, error)

	CreateProposal(ctx context.Context, proposal Proposal) (Proposal, error)
	GetProposal(ctx context.Context, proposalID uint64) (Proposal, bool, error)
	ListOpenProposals(ctx context.Context, councilID uint64) ([]Proposal, error)
	InsertVote(ctx context.Context, vote ProposalVote) (bool, error)
	CountVotes(ctx context.Context, proposalID uint64) (votesFor int, votesAgainst int, err error)
	UpdateProposalTallies(ctx context.Context, proposalID uint64, votesFor int, votesAgainst int) error
	// MarkProposalResolved transitions an open proposal to a terminal
	// status. Reports false when the proposal was already terminal, which
	// makes retried resolutions no-ops.
	MarkProposalResolved(ctx context.Context, proposalID uint64, status governance.ProposalStatus) (bool, error)
}
