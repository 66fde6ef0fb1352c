package responses

import (
	"time"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/scoring"
)

// DriverScoreResponse is the score read model for one driver
type DriverScoreResponse struct {
	DriverID   string             `json:"driver_id"`
	FullName   string             `json:"full_name"`
	MetricDate time.Time          `json:"metric_date"`
	Score      float64            `json:"score"`
	Grade      string             `json:"grade"`
	Category   string             `json:"category"`
	Breakdown  *scoring.Breakdown `json:"breakdown,omitempty"`
}

// DriverAlertEntry is one alert row in a driver's alert history
type DriverAlertEntry struct {
	AlertID   string                  `json:"alert_id"`
	Priority  constants.AlertPriority `json:"priority"`
	Reason    string                  `json:"reason"`
	Message   string                  `json:"message"`
	Status    constants.AlertStatus   `json:"status"`
	Channels  string                  `json:"channels"`
	CreatedAt time.Time               `json:"created_at"`
	SentAt    *time.Time              `json:"sent_at,omitempty"`
}

// SyncRunResponse is the manual-trigger reply and sync-log list entry
type SyncRunResponse struct {
	Success          bool     `json:"success"`
	Status           string   `json:"status"`
	DriversProcessed int      `json:"driversProcessed"`
	DriversCreated   int      `json:"driversCreated"`
	DriversUpdated   int      `json:"driversUpdated"`
	Errors           []string `json:"errors"`
}
