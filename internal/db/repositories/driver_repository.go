package repositories

import (
	"context"
	"errors"

	gormModels "fleetpulse/backend/internal/models/gorm"

	"fleetpulse/backend/internal/constants"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// DriverRepo handles drivers table operations
type DriverRepo struct {
	db *gormlib.DB
}

// NewDriverRepo creates a new driver repository
func NewDriverRepo(db *gormlib.DB) *DriverRepo {
	return &DriverRepo{db: db}
}

// UpsertResult reports whether the upsert created a new row
type UpsertResult struct {
	Driver  *gormModels.Driver
	Created bool
}

// UpsertByExternalID updates provider-sourced fields for an existing driver,
// or creates a new one with the given status. Status is only written on
// create: the manual contacts flow owns it afterwards, so reconciliation
// never reactivates a locally suspended driver. Find-then-write rather than
// ON CONFLICT because the caller needs the created/updated distinction for
// run counters.
func (r *DriverRepo) UpsertByExternalID(ctx context.Context, incoming *gormModels.Driver) (*UpsertResult, error) {
	var existing gormModels.Driver

	err := r.db.WithContext(ctx).
		Where("external_id = ?", incoming.ExternalID).
		First(&existing).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			if incoming.ID == "" {
				incoming.ID = uuid.NewString()
			}
			if incoming.Status == "" {
				incoming.Status = constants.DriverActive
			}
			if err := r.db.WithContext(ctx).Create(incoming).Error; err != nil {
				return nil, err
			}
			return &UpsertResult{Driver: incoming, Created: true}, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"full_name": incoming.FullName,
	}
	if incoming.Phone != nil {
		updates["phone"] = *incoming.Phone
	}
	if incoming.Email != nil {
		updates["email"] = *incoming.Email
	}

	if err := r.db.WithContext(ctx).
		Model(&gormModels.Driver{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	existing.FullName = incoming.FullName
	if incoming.Phone != nil {
		existing.Phone = incoming.Phone
	}
	if incoming.Email != nil {
		existing.Email = incoming.Email
	}
	return &UpsertResult{Driver: &existing, Created: false}, nil
}

// FindByID returns a driver by internal id, or nil when absent
func (r *DriverRepo) FindByID(ctx context.Context, id string) (*gormModels.Driver, error) {
	var driver gormModels.Driver

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&driver).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &driver, nil
}

// ListActive returns all drivers in ACTIVE status
func (r *DriverRepo) ListActive(ctx context.Context) ([]gormModels.Driver, error) {
	var drivers []gormModels.Driver

	err := r.db.WithContext(ctx).
		Where("status = ?", constants.DriverActive).
		Order("joined_at ASC").
		Find(&drivers).Error

	if err != nil {
		return nil, err
	}

	return drivers, nil
}

// UpdateContacts patches contact and status fields owned by manual edit
// flows. Nil map values are not accepted; callers only include fields
// that change.
func (r *DriverRepo) UpdateContacts(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&gormModels.Driver{}).
		Where("id = ?", id).
		Updates(updates)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gormlib.ErrRecordNotFound
	}
	return nil
}
