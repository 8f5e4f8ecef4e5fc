package model

import "time"

type Proposal struct {
	ProposalID     uint64    `gorm:"column:proposal_id;primaryKey;autoIncrement"`
	CouncilID      uint64    `gorm:"column:council_id;not null;index"`
	ProposerID     uint64    `gorm:"column:proposer_id;not null"`
	Kind           string    `gorm:"column:kind;type:text;not null"`
	ActionData     string    `gorm:"column:action_data;type:text;not null"`
	QuorumRequired int       `gorm:"column:quorum_required;not null"`
	VotesFor       int       `gorm:"column:votes_for;not null;default:0"`
	VotesAgainst   int       `gorm:"column:votes_against;not null;default:0"`
	Status         string    `gorm:"column:status;type:text;not null;default:'open'"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null"`
}

func (Proposal) TableName() string {
	return "proposals"
}

type ProposalVote struct {
	VoteID     uint64 `gorm:"column:vote_id;primaryKey;autoIncrement"`
	ProposalID uint64 `gorm:"column:proposal_id;not null;uniqueIndex:idx_proposal_vote_pair"`
	AgentID    uint64 `gorm:"column:agent_id;not null;uniqueIndex:idx_proposal_vote_pair"`
	Choice     string `gorm:"column:choice;type:text;not null"`
	Comment    string `gorm:"column:comment;type:text;not null;default:''"`
}

func (ProposalVote) TableName() string {
	return "proposal_votes"
}
