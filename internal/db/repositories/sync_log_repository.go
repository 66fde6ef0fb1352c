package repositories

import (
	"context"
	"errors"
	"time"

	"fleetpulse/backend/internal/constants"
	gormModels "fleetpulse/backend/internal/models/gorm"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// SyncLogRepo handles sync_logs table operations
type SyncLogRepo struct {
	db *gormlib.DB
}

// NewSyncLogRepo creates a new sync log repository
func NewSyncLogRepo(db *gormlib.DB) *SyncLogRepo {
	return &SyncLogRepo{db: db}
}

// Start creates the IN_PROGRESS row for a run and returns it
func (r *SyncLogRepo) Start(ctx context.Context, trigger constants.SyncTrigger, actor *string) (*gormModels.SyncLog, error) {
	log := &gormModels.SyncLog{
		ID:          uuid.NewString(),
		Event:       constants.SyncEventDrivers,
		Status:      constants.SyncInProgress,
		Trigger:     trigger,
		TriggeredBy: actor,
		StartedAt:   time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, err
	}

	return log, nil
}

// Finalize closes the run. Called from a deferred block so no run is left
// permanently IN_PROGRESS.
func (r *SyncLogRepo) Finalize(
	ctx context.Context,
	logID string,
	status constants.SyncStatus,
	processed, created, updated int,
	errorMessage *string,
) error {
	now := time.Now()

	updates := map[string]interface{}{
		"status":            status,
		"drivers_processed": processed,
		"drivers_created":   created,
		"drivers_updated":   updated,
		"finished_at":       &now,
	}
	if errorMessage != nil {
		updates["error_message"] = *errorMessage
	}

	return r.db.WithContext(ctx).
		Model(&gormModels.SyncLog{}).
		Where("id = ?", logID).
		Updates(updates).Error
}

// LastFinishedAt returns the finish time of the most recent completed run,
// or nil when no run has completed yet
func (r *SyncLogRepo) LastFinishedAt(ctx context.Context, event string) (*time.Time, error) {
	var log gormModels.SyncLog

	err := r.db.WithContext(ctx).
		Where("event = ? AND finished_at IS NOT NULL", event).
		Order("finished_at DESC").
		First(&log).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return log.FinishedAt, nil
}

// ListRecent returns the most recent runs, newest first
func (r *SyncLogRepo) ListRecent(ctx context.Context, limit int) ([]gormModels.SyncLog, error) {
	var logs []gormModels.SyncLog

	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error

	if err != nil {
		return nil, err
	}

	return logs, nil
}
