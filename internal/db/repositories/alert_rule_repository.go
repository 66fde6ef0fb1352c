package repositories

import (
	"context"

	gormModels "fleetpulse/backend/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// AlertRuleRepo handles alert_rules table operations. Rule lifecycle is
// owned by the settings surface; this repo is read-only.
type AlertRuleRepo struct {
	db *gormlib.DB
}

// NewAlertRuleRepo creates a new alert rule repository
func NewAlertRuleRepo(db *gormlib.DB) *AlertRuleRepo {
	return &AlertRuleRepo{db: db}
}

// ListEnabled returns all enabled rules with their channel actions in order
func (r *AlertRuleRepo) ListEnabled(ctx context.Context) ([]gormModels.AlertRule, error) {
	var rules []gormModels.AlertRule

	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Preload("Actions", func(db *gormlib.DB) *gormlib.DB {
			return db.Order("alert_rule_actions.position ASC")
		}).
		Order("name ASC").
		Find(&rules).Error

	if err != nil {
		return nil, err
	}

	return rules, nil
}
