package gorm

import "time"

// DriverMetrics holds one row per (driver, calendar day).
// Re-running reconciliation for the same day overwrites the row.
type DriverMetrics struct {
	ID         string    `gorm:"column:id;primaryKey;type:uuid"`
	DriverID   string    `gorm:"column:driver_id;type:uuid;not null;uniqueIndex:idx_driver_metrics_day"`
	MetricDate time.Time `gorm:"column:metric_date;type:date;not null;uniqueIndex:idx_driver_metrics_day"`

	// Normalized inputs
	AcceptanceRate   float64 `gorm:"column:acceptance_rate"`
	CancellationRate float64 `gorm:"column:cancellation_rate"`
	CompletionRate   float64 `gorm:"column:completion_rate"`
	FeedbackScore    float64 `gorm:"column:feedback_score"`
	TripVolumeIndex  float64 `gorm:"column:trip_volume_index"`
	IdleRatio        float64 `gorm:"column:idle_ratio"`

	// Raw analytics payload, when the row came from the telemetry provider
	HoursOnline *float64 `gorm:"column:hours_online"`
	HoursOnTrip *float64 `gorm:"column:hours_on_trip"`
	TripCount   *int     `gorm:"column:trip_count"`
	Earnings    *float64 `gorm:"column:earnings"`

	CalculatedScore float64   `gorm:"column:calculated_score"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (DriverMetrics) TableName() string {
	return "driver_metrics"
}
