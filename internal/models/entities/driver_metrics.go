package entities

import "time"

// DriverMetricsRow is the sqlx row shape for the driver_metrics upsert path
type DriverMetricsRow struct {
	DriverID         string    `db:"driver_id"`
	MetricDate       time.Time `db:"metric_date"`
	AcceptanceRate   float64   `db:"acceptance_rate"`
	CancellationRate float64   `db:"cancellation_rate"`
	CompletionRate   float64   `db:"completion_rate"`
	FeedbackScore    float64   `db:"feedback_score"`
	TripVolumeIndex  float64   `db:"trip_volume_index"`
	IdleRatio        float64   `db:"idle_ratio"`
	HoursOnline      *float64  `db:"hours_online"`
	HoursOnTrip      *float64  `db:"hours_on_trip"`
	TripCount        *int      `db:"trip_count"`
	Earnings         *float64  `db:"earnings"`
	CalculatedScore  float64   `db:"calculated_score"`
}
