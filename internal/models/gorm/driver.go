package gorm

import (
	"fleetpulse/backend/internal/constants"
	"time"
)

type Driver struct {
	ID             string                 `gorm:"column:id;primaryKey;type:uuid"`
	ExternalID     string                 `gorm:"column:external_id;uniqueIndex;not null"`
	FullName       string                 `gorm:"column:full_name"`
	Phone          *string                `gorm:"column:phone"`
	TelegramChatID *string                `gorm:"column:telegram_chat_id"`
	WhatsAppNumber *string                `gorm:"column:whatsapp_number"`
	Email          *string                `gorm:"column:email"`
	Status         constants.DriverStatus `gorm:"column:status;type:varchar(20);default:ACTIVE"`
	JoinedAt       time.Time              `gorm:"column:joined_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Metrics []DriverMetrics `gorm:"foreignKey:DriverID"`
	Alerts  []Alert         `gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name for GORM
func (Driver) TableName() string {
	return "drivers"
}
