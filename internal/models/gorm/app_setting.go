package gorm

import "time"

// AppSetting is a key → JSON blob settings row. Scoring-weight and
// alert-policy overrides live here; the settings UI owns writes.
type AppSetting struct {
	Key       string    `gorm:"column:key;primaryKey;size:100"`
	Value     string    `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (AppSetting) TableName() string {
	return "app_settings"
}
