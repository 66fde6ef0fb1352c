package repositories

import (
	"context"
	"fleetpulse/backend/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type SyncRepository struct {
	db *sqlx.DB
}

func NewSyncRepository(db *sqlx.DB) *SyncRepository {
	return &SyncRepository{
		db: db,
	}
}

// UpsertDailyMetrics writes one (driver, day) metrics row. Re-running the
// reconciliation for the same day overwrites instead of duplicating.
func (svc SyncRepository) UpsertDailyMetrics(
	ctx context.Context,
	row *entities.DriverMetricsRow) error {
	const query = `
		INSERT INTO driver_metrics (
			driver_id, metric_date,
			acceptance_rate, cancellation_rate, completion_rate,
			feedback_score, trip_volume_index, idle_ratio,
			hours_online, hours_on_trip, trip_count, earnings,
			calculated_score
		)
		VALUES (
			:driver_id, :metric_date,
			:acceptance_rate, :cancellation_rate, :completion_rate,
			:feedback_score, :trip_volume_index, :idle_ratio,
			:hours_online, :hours_on_trip, :trip_count, :earnings,
			:calculated_score
		)
		ON CONFLICT (driver_id, metric_date) DO UPDATE
		SET acceptance_rate = EXCLUDED.acceptance_rate,
		    cancellation_rate = EXCLUDED.cancellation_rate,
		    completion_rate = EXCLUDED.completion_rate,
		    feedback_score = EXCLUDED.feedback_score,
		    trip_volume_index = EXCLUDED.trip_volume_index,
		    idle_ratio = EXCLUDED.idle_ratio,
		    hours_online = EXCLUDED.hours_online,
		    hours_on_trip = EXCLUDED.hours_on_trip,
		    trip_count = EXCLUDED.trip_count,
		    earnings = EXCLUDED.earnings,
		    calculated_score = EXCLUDED.calculated_score,
		    updated_at = NOW()
	`

	_, err := svc.db.NamedExecContext(ctx, query, row)
	return err
}
