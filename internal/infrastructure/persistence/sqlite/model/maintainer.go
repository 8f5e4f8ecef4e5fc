package model

type Maintainer struct {
	MaintainerID uint64 `gorm:"column:maintainer_id;primaryKey;autoIncrement"`
	RepoID       uint64 `gorm:"column:repo_id;not null;uniqueIndex:idx_maintainer_pair"`
	AgentID      uint64 `gorm:"column:agent_id;not null;uniqueIndex:idx_maintainer_pair"`
	Role         string `gorm:"column:role;type:text;not null;default:'maintainer'"`
}

func (Maintainer) TableName() string {
	return "maintainers"
}
