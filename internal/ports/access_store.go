package ports

import (
	"context"
	"errors"
	"time"

	"govcore/internal/domain/governance"
)

var (
	ErrOrgNotFound   = errors.New("org not found")
	ErrRepoNotFound  = errors.New("repo not found")
	ErrAgentNotFound = errors.New("agent not found")
)

type Org struct {
	OrgID              uint64
	Name               string
	IsPlatform         bool
	DefaultAgentAccess governance.AgentAccessMode
	DefaultMinKarma    int64
}

// Agent karma is coerced to a non-negative integer at the store boundary;
// consumers never see raw DB values.
type Agent struct {
	AgentID uint64
	Handle  string
	IsHuman bool
	Karma   int64
}

type Repo struct {
	RepoID         uint64
	OrgID          uint64
	Name           string
	OwnershipModel governance.OwnershipModel
	// AgentAccess empty means unset: fall back to the org default.
	AgentAccess governance.AgentAccessMode
	// MinKarma nil means unset: fall back to the org default.
	MinKarma           *int64
	IsPrivate          bool
	ConsensusThreshold float64
	MinReviews         int
	HumanReviewWeight  float64
	Stage              governance.Stage
}

type RepoAccess struct {
	RepoID    uint64
	AgentID   uint64
	Level     governance.AccessLevel
	ExpiresAt *time.Time
}

type Maintainer struct {
	RepoID  uint64
	AgentID uint64
	Role    governance.MaintainerRole
}

type BranchRule struct {
	RuleID            uint64
	RepoID            uint64
	BranchPattern     string
	Priority          int
	DirectPush        governance.DirectPushPolicy
	RequiredApprovals int
	RequireTestsPass  bool
}

// AccessStore is the permission-bearing slice of the relational store:
// repos, orgs, explicit grants, maintainer rows, branch rules, agent karma.
type AccessStore interface {
	GetOrg(ctx context.Context, orgID uint64) (Org, error)
	GetRepo(ctx context.Context, repoID uint64) (Repo, error)
	UpdateRepoOwnership(ctx context.Context, repoID uint64, model governance.OwnershipModel) error

	GetAgent(ctx context.Context, agentID uint64) (Agent, bool, error)

	GetRepoAccess(ctx context.Context, repoID uint64, agentID uint64) (RepoAccess, bool, error)
	UpsertRepoAccess(ctx context.Context, access RepoAccess) error
	DeleteRepoAccess(ctx context.Context, repoID uint64, agentID uint64) error

	GetMaintainer(ctx context.Context, repoID uint64, agentID uint64) (Maintainer, bool, error)
	UpsertMaintainer(ctx context.Context, maintainer Maintainer) error
	RemoveMaintainer(ctx context.Context, repoID uint64, agentID uint64) error
	CountMaintainers(ctx context.Context, repoID uint64) (int, error)

	// ListBranchRules returns rules ordered by priority descending.
	ListBranchRules(ctx context.Context, repoID uint64) ([]BranchRule, error)
	UpsertBranchRule(ctx context.Context, rule BranchRule) error
}
