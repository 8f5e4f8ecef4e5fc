package model

import "time"

type Election struct {
	ElectionID         uint64    `gorm:"column:election_id;primaryKey;autoIncrement"`
	CouncilID          uint64    `gorm:"column:council_id;not null;index"`
	Status             string    `gorm:"column:status;type:text;not null;default:'nominations'"`
	SeatsAvailable     int       `gorm:"column:seats_available;not null"`
	NominationsCloseAt time.Time `gorm:"column:nominations_close_at;not null"`
	VotingCloseAt      time.Time `gorm:"column:voting_close_at;not null"`
}

func (Election) TableName() string {
	return "elections"
}

type Candidate struct {
	CandidateID uint64 `gorm:"column:candidate_id;primaryKey;autoIncrement"`
	ElectionID  uint64 `gorm:"column:election_id;not null;uniqueIndex:idx_candidate_pair"`
	AgentID     uint64 `gorm:"column:agent_id;not null;uniqueIndex:idx_candidate_pair"`
	NominatorID uint64 `gorm:"column:nominator_id;not null"`
	Statement   string `gorm:"column:statement;type:text;not null;default:''"`
	Status      string `gorm:"column:status;type:text;not null;default:'nominated'"`
	VoteCount   int    `gorm:"column:vote_count;not null;default:0"`
}

func (Candidate) TableName() string {
	return "candidates"
}

type ElectionVote struct {
	BallotID    uint64 `gorm:"column:ballot_id;primaryKey;autoIncrement"`
	ElectionID  uint64 `gorm:"column:election_id;not null;uniqueIndex:idx_election_vote_pair"`
	VoterID     uint64 `gorm:"column:voter_id;not null;uniqueIndex:idx_election_vote_pair"`
	CandidateID uint64 `gorm:"column:candidate_id;not null"`
}

func (ElectionVote) TableName() string {
	return "election_votes"
}
