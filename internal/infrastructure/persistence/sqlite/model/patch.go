package model

import "time"

// Patch rows and Merge rows are written by separate pipelines and can lag
// each other; stage metrics read both and take the maximum.
type Patch struct {
	PatchID   uint64    `gorm:"column:patch_id;primaryKey;autoIncrement"`
	RepoID    uint64    `gorm:"column:repo_id;not null;index"`
	AuthorID  uint64    `gorm:"column:author_id;not null;index"`
	Status    string    `gorm:"column:status;type:text;not null;default:'open'"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Patch) TableName() string {
	return "patches"
}

type Merge struct {
	MergeID  uint64    `gorm:"column:merge_id;primaryKey;autoIncrement"`
	RepoID   uint64    `gorm:"column:repo_id;not null;index"`
	PatchID  uint64    `gorm:"column:patch_id;not null;index"`
	AuthorID uint64    `gorm:"column:author_id;not null;index"`
	MergedAt time.Time `gorm:"column:merged_at;not null"`
}

func (Merge) TableName() string {
	return "merges"
}
