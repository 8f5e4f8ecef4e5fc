package model

import "time"

type GovKV struct {
	Key       string     `gorm:"column:key;type:text;primaryKey"`
	Value     string     `gorm:"column:value;type:text;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt string     `gorm:"column:updated_at;type:text;not null"`
}

func (GovKV) TableName() string {
	return "gov_kv"
}
