package model

type Review struct {
	ReviewID     uint64  `gorm:"column:review_id;primaryKey;autoIncrement"`
	PatchID      uint64  `gorm:"column:patch_id;not null;index"`
	ReviewerID   *uint64 `gorm:"column:reviewer_id"`
	IsHuman      bool    `gorm:"column:is_human;not null;default:0"`
	IsMaintainer bool    `gorm:"column:is_maintainer;not null;default:0"`
	Verdict      string  `gorm:"column:verdict;type:text;not null"`
	// Snapshot of the reviewer's karma at review time, same heterogeneous
	// provenance as agents.karma.
	KarmaSnapshot *string `gorm:"column:karma_snapshot;type:text"`
}

func (Review) TableName() string {
	return "reviews"
}
