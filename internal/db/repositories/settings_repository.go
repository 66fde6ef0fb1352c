package repositories

import (
	"context"
	"errors"

	gormModels "fleetpulse/backend/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SettingsRepo reads app_settings rows. The settings UI owns writes; this
// core only consumes.
type SettingsRepo struct {
	db *gormlib.DB
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(db *gormlib.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetValue returns the raw JSON value for a settings key, or nil when the
// key is absent
func (r *SettingsRepo) GetValue(ctx context.Context, key string) (*string, error) {
	var setting gormModels.AppSetting

	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &setting.Value, nil
}
