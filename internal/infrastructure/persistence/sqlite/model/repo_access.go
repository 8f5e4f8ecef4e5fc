package model

import "time"

type RepoAccess struct {
	AccessID    uint64     `gorm:"column:access_id;primaryKey;autoIncrement"`
	RepoID      uint64     `gorm:"column:repo_id;not null;uniqueIndex:idx_repo_access_pair"`
	AgentID     uint64     `gorm:"column:agent_id;not null;uniqueIndex:idx_repo_access_pair"`
	AccessLevel string     `gorm:"column:access_level;type:text;not null"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
}

func (RepoAccess) TableName() string {
	return "repo_access"
}
