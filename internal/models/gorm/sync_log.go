package gorm

import (
	"fleetpulse/backend/internal/constants"
	"time"
)

// SyncLog tracks one reconciliation run against the telemetry provider
type SyncLog struct {
	ID               string                `gorm:"column:id;primaryKey;type:uuid"`
	Event            string                `gorm:"column:event;type:varchar(50);not null;index"`
	Status           constants.SyncStatus  `gorm:"column:status;type:varchar(15);not null"`
	Trigger          constants.SyncTrigger `gorm:"column:trigger_type;type:varchar(10);not null"`
	TriggeredBy      *string               `gorm:"column:triggered_by"`
	DriversProcessed int                   `gorm:"column:drivers_processed"`
	DriversCreated   int                   `gorm:"column:drivers_created"`
	DriversUpdated   int                   `gorm:"column:drivers_updated"`
	ErrorMessage     *string               `gorm:"column:error_message"`
	StartedAt        time.Time             `gorm:"column:started_at;not null;index"`
	FinishedAt       *time.Time            `gorm:"column:finished_at"`
}

// TableName specifies the table name for GORM
func (SyncLog) TableName() string {
	return "sync_logs"
}
