package model

type Org struct {
	OrgID              uint64 `gorm:"column:org_id;primaryKey;autoIncrement"`
	Name               string `gorm:"column:name;type:text;not null"`
	IsPlatform         bool   `gorm:"column:is_platform;not null;default:0"`
	DefaultAgentAccess string `gorm:"column:default_agent_access;type:text;not null;default:''"`
	// Karma thresholds arrive from upstream writers as text; coerced on read.
	DefaultMinKarma string `gorm:"column:default_min_karma;type:text;not null;default:'0'"`
}

func (Org) TableName() string {
	return "orgs"
}
