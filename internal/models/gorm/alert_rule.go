package gorm

import (
	"fleetpulse/backend/internal/constants"
	"time"
)

// AlertRule defines a configurable automatic-alert rule.
// A nil threshold means the condition is not populated. Any populated
// condition matching fires the rule (logical OR across conditions).
type AlertRule struct {
	ID          string `gorm:"column:id;primaryKey;type:uuid"`
	Name        string `gorm:"column:name;size:255;not null"`
	Description string `gorm:"column:description;size:1000;default:''"`
	Enabled     bool   `gorm:"column:enabled;not null;index"`

	// Alert when the metric falls below the threshold
	MinScore          *float64 `gorm:"column:min_score"`
	MinAcceptanceRate *float64 `gorm:"column:min_acceptance_rate"`
	MinCompletionRate *float64 `gorm:"column:min_completion_rate"`
	MinFeedbackScore  *float64 `gorm:"column:min_feedback_score"`

	// Alert when the metric rises above the threshold
	MaxCancellationRate *float64 `gorm:"column:max_cancellation_rate"`
	MaxIdleRatio        *float64 `gorm:"column:max_idle_ratio"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Actions []AlertRuleAction `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (AlertRule) TableName() string {
	return "alert_rules"
}

// AlertRuleAction is one channel to notify through when the rule fires,
// ordered by Position.
type AlertRuleAction struct {
	ID       string                 `gorm:"column:id;primaryKey;type:uuid"`
	RuleID   string                 `gorm:"column:rule_id;type:uuid;not null;index"`
	Channel  constants.AlertChannel `gorm:"column:channel;type:varchar(20);not null"`
	Position int                    `gorm:"column:position;not null;default:0"`
}

// TableName specifies the table name for GORM
func (AlertRuleAction) TableName() string {
	return "alert_rule_actions"
}
