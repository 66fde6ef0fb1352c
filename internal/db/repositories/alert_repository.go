package repositories

import (
	"context"
	"time"

	"fleetpulse/backend/internal/constants"
	gormModels "fleetpulse/backend/internal/models/gorm"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// AlertRepo handles alerts table operations
type AlertRepo struct {
	db *gormlib.DB
}

// NewAlertRepo creates a new alert repository
func NewAlertRepo(db *gormlib.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// CreatePending inserts the alert row in PENDING status before dispatch
func (r *AlertRepo) CreatePending(ctx context.Context, alert *gormModels.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	alert.Status = constants.AlertPending
	return r.db.WithContext(ctx).Create(alert).Error
}

// Finalize records the dispatch outcome for a previously created alert
func (r *AlertRepo) Finalize(
	ctx context.Context,
	alertID string,
	status constants.AlertStatus,
	channelResults string,
	providerError *string,
	providerRef *string,
) error {
	updates := map[string]interface{}{
		"status":          status,
		"channel_results": channelResults,
	}
	if status == constants.AlertSent {
		now := time.Now()
		updates["sent_at"] = &now
	}
	if providerError != nil {
		updates["provider_error"] = *providerError
	}
	if providerRef != nil {
		updates["provider_ref"] = *providerRef
	}

	return r.db.WithContext(ctx).
		Model(&gormModels.Alert{}).
		Where("id = ?", alertID).
		Updates(updates).Error
}

// HasRecentAlert reports whether an alert with this reason was created for
// the driver after the given time. This is the cooldown read; it is a
// read-then-write check, so concurrent runs can still double-fire.
func (r *AlertRepo) HasRecentAlert(ctx context.Context, driverID string, reason string, since time.Time) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gormModels.Alert{}).
		Where("driver_id = ? AND reason = ? AND created_at > ?", driverID, reason, since).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// ListByDriver returns a driver's alerts, newest first
func (r *AlertRepo) ListByDriver(ctx context.Context, driverID string, limit int) ([]gormModels.Alert, error) {
	var alerts []gormModels.Alert

	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error

	if err != nil {
		return nil, err
	}

	return alerts, nil
}

// MarkDelivered advances a SENT alert to DELIVERED (provider webhook
// path). Unknown ids and alerts not in SENT report ErrRecordNotFound.
func (r *AlertRepo) MarkDelivered(ctx context.Context, alertID string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&gormModels.Alert{}).
		Where("id = ? AND status = ?", alertID, constants.AlertSent).
		Updates(map[string]interface{}{
			"status":       constants.AlertDelivered,
			"delivered_at": &now,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gormlib.ErrRecordNotFound
	}
	return nil
}
