package model

import "time"

type Council struct {
	CouncilID        uint64 `gorm:"column:council_id;primaryKey;autoIncrement"`
	RepoID           uint64 `gorm:"column:repo_id;not null;uniqueIndex"`
	MinKarma         int64  `gorm:"column:min_karma;not null;default:0"`
	MinContributions int    `gorm:"column:min_contributions;not null;default:0"`
	MinMembers       int    `gorm:"column:min_members;not null;default:3"`
	MaxMembers       int    `gorm:"column:max_members;not null;default:7"`
	StandardQuorum   int    `gorm:"column:standard_quorum;not null;default:2"`
	CriticalQuorum   int    `gorm:"column:critical_quorum;not null;default:3"`
	Status           string `gorm:"column:status;type:text;not null;default:'forming'"`
}

func (Council) TableName() string {
	return "councils"
}

type CouncilMember struct {
	MemberID      uint64     `gorm:"column:member_id;primaryKey;autoIncrement"`
	CouncilID     uint64     `gorm:"column:council_id;not null;uniqueIndex:idx_council_member_pair"`
	AgentID       uint64     `gorm:"column:agent_id;not null;uniqueIndex:idx_council_member_pair"`
	Role          string     `gorm:"column:role;type:text;not null;default:'member'"`
	TermExpiresAt *time.Time `gorm:"column:term_expires_at"`
}

func (CouncilMember) TableName() string {
	return "council_members"
}
