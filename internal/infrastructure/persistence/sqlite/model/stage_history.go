package model

import "time"

// StageHistory is append-only; nothing in the core updates or deletes rows.
type StageHistory struct {
	EntryID        uint64    `gorm:"column:entry_id;primaryKey;autoIncrement"`
	RepoID         uint64    `gorm:"column:repo_id;not null;index"`
	FromStage      string    `gorm:"column:from_stage;type:text;not null"`
	ToStage        string    `gorm:"column:to_stage;type:text;not null"`
	TransitionedAt time.Time `gorm:"column:transitioned_at;not null"`
	Reason         string    `gorm:"column:reason;type:text;not null;default:''"`
	Forced         bool      `gorm:"column:forced;not null;default:0"`
}

func (StageHistory) TableName() string {
	return "stage_history"
}
