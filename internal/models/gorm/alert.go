package gorm

import (
	"fleetpulse/backend/internal/constants"
	"time"
)

// Alert is one row per notification request (not per channel).
// Channel-level outcomes are stored in ChannelResults as JSON.
type Alert struct {
	ID             string                  `gorm:"column:id;primaryKey;type:uuid"`
	DriverID       string                  `gorm:"column:driver_id;type:uuid;not null;index"`
	Priority       constants.AlertPriority `gorm:"column:priority;type:varchar(10);not null"`
	Reason         string                  `gorm:"column:reason;type:varchar(255);not null;index"`
	Message        string                  `gorm:"column:message"`
	Channels       string                  `gorm:"column:channels;type:varchar(255)"`
	ChannelResults *string                 `gorm:"column:channel_results;type:jsonb"`
	Status         constants.AlertStatus   `gorm:"column:status;type:varchar(10);not null;default:PENDING"`
	ProviderError  *string                 `gorm:"column:provider_error"`
	ProviderRef    *string                 `gorm:"column:provider_ref"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	SentAt         *time.Time              `gorm:"column:sent_at"`
	DeliveredAt    *time.Time              `gorm:"column:delivered_at"`
	ReadAt         *time.Time              `gorm:"column:read_at"`

	// Relationships
	Driver Driver `gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name for GORM
func (Alert) TableName() string {
	return "alerts"
}
