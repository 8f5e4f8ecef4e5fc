package model

type Repo struct {
	RepoID             uint64  `gorm:"column:repo_id;primaryKey;autoIncrement"`
	OrgID              uint64  `gorm:"column:org_id;not null;index"`
	Name               string  `gorm:"column:name;type:text;not null"`
	OwnershipModel     string  `gorm:"column:ownership_model;type:text;not null;default:'solo'"`
	AgentAccess        string  `gorm:"column:agent_access;type:text;not null;default:''"`
	MinKarma           *string `gorm:"column:min_karma;type:text"`
	IsPrivate          bool    `gorm:"column:is_private;not null;default:0"`
	ConsensusThreshold float64 `gorm:"column:consensus_threshold;not null;default:0.5"`
	MinReviews         int     `gorm:"column:min_reviews;not null;default:1"`
	HumanReviewWeight  float64 `gorm:"column:human_review_weight;not null;default:1"`
	Stage              string  `gorm:"column:stage;type:text;not null;default:'seed'"`
}

func (Repo) TableName() string {
	return "repos"
}
