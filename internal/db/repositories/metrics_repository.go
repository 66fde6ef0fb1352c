package repositories

import (
	"context"
	"errors"

	gormModels "fleetpulse/backend/internal/models/gorm"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// MetricsRepo handles driver_metrics read operations
type MetricsRepo struct {
	db *gormlib.DB
}

// NewMetricsRepo creates a new metrics repository
func NewMetricsRepo(db *gormlib.DB) *MetricsRepo {
	return &MetricsRepo{db: db}
}

// LatestByDriver returns the most recent metrics row for a driver, or nil
// when the driver has no metrics yet
func (r *MetricsRepo) LatestByDriver(ctx context.Context, driverID string) (*gormModels.DriverMetrics, error) {
	var metrics gormModels.DriverMetrics

	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("metric_date DESC").
		First(&metrics).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &metrics, nil
}

// Upsert writes one (driver, day) metrics row through GORM. The batch path
// uses SyncRepository's named query; this exists for the manual scoring call
// and for tests running against sqlite.
func (r *MetricsRepo) Upsert(ctx context.Context, m *gormModels.DriverMetrics) error {
	var existing gormModels.DriverMetrics

	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND metric_date = ?", m.DriverID, m.MetricDate).
		First(&existing).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			return r.db.WithContext(ctx).Create(m).Error
		}
		return err
	}

	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(m).Error
}
