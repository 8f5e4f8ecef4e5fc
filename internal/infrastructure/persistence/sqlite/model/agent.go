package model

type Agent struct {
	AgentID uint64 `gorm:"column:agent_id;primaryKey;autoIncrement"`
	Handle  string `gorm:"column:handle;type:text;not null;uniqueIndex"`
	IsHuman bool   `gorm:"column:is_human;not null;default:0"`
	// Karma is written by the external reputation pipeline and has been
	// observed as int, string and null. Coerced once on read.
	Karma *string `gorm:"column:karma;type:text"`
}

func (Agent) TableName() string {
	return "agents"
}
