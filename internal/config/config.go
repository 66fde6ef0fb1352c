package config

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"fleetpulse/backend/internal/common"
	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/db/repositories"
	"fleetpulse/backend/internal/logging"
)

// Settings keys in the app_settings table
const (
	KeyScoringWeights  = "scoring_weights"
	KeyAlertPolicy     = "alert_policy"
	KeyAnalyticsConfig = "analytics_score_config"
)

const settingsCacheTTL = 60 * time.Second

// ScoringWeights are the metrics-score component weights. They must sum
// to 1.0; overrides that do not are rejected, never renormalized.
type ScoringWeights struct {
	Acceptance   float64 `json:"acceptance"`
	Cancellation float64 `json:"cancellation"`
	Completion   float64 `json:"completion"`
	Feedback     float64 `json:"feedback"`
	TripVolume   float64 `json:"trip_volume"`
	Idle         float64 `json:"idle"`
}

// DefaultScoringWeights returns the fixed default weight set
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Acceptance:   0.30,
		Cancellation: 0.20,
		Completion:   0.15,
		Feedback:     0.15,
		TripVolume:   0.10,
		Idle:         0.10,
	}
}

// Validate reports an error when the weights do not sum to 1.0
func (w ScoringWeights) Validate() error {
	sum := w.Acceptance + w.Cancellation + w.Completion + w.Feedback + w.TripVolume + w.Idle
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// MetricThreshold is one analytics metric's minimum target and score weight
type MetricThreshold struct {
	Minimum float64 `json:"minimum"`
	Weight  float64 `json:"weight"`
}

// AnalyticsScoreConfig drives the 0-100 analytics-derived score.
// Weights sum to 100 in the default config but are not required to.
type AnalyticsScoreConfig struct {
	HoursOnline MetricThreshold `json:"hours_online"`
	HoursOnTrip MetricThreshold `json:"hours_on_trip"`
	Trips       MetricThreshold `json:"trips"`
	Earnings    MetricThreshold `json:"earnings"`
}

// DefaultAnalyticsScoreConfig returns the default minimum/weight pairs for
// the trailing 7-day analytics window
func DefaultAnalyticsScoreConfig() AnalyticsScoreConfig {
	return AnalyticsScoreConfig{
		HoursOnline: MetricThreshold{Minimum: 80, Weight: 30},
		HoursOnTrip: MetricThreshold{Minimum: 60, Weight: 30},
		Trips:       MetricThreshold{Minimum: 100, Weight: 20},
		Earnings:    MetricThreshold{Minimum: 3000, Weight: 20},
	}
}

// AlertPolicy gates automatic alerting during reconciliation
type AlertPolicy struct {
	OperatingStartHour int                      `json:"operating_start_hour"`
	OperatingEndHour   int                      `json:"operating_end_hour"`
	EnabledReasons     []string                 `json:"enabled_reasons"`
	EnabledChannels    []constants.AlertChannel `json:"enabled_channels"`
	CooldownHours      int                      `json:"cooldown_hours"`
	ScoreThreshold     float64                  `json:"score_threshold"`
	BulkSendDelayMs    int                      `json:"bulk_send_delay_ms"`
}

// DefaultAlertPolicy returns the policy used when no override row exists
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		OperatingStartHour: 8,
		OperatingEndHour:   22,
		EnabledReasons:     []string{"low_score"},
		EnabledChannels: []constants.AlertChannel{
			constants.ChannelTelegram,
			constants.ChannelWhatsApp,
		},
		CooldownHours:   4,
		ScoreThreshold:  0.6,
		BulkSendDelayMs: 500,
	}
}

// Cooldown returns the cooldown window as a duration
func (p AlertPolicy) Cooldown() time.Duration {
	return time.Duration(p.CooldownHours) * time.Hour
}

// WithinOperatingHours reports whether t falls inside the configured
// window. Windows that cross midnight (e.g. 22 → 6) are supported.
func (p AlertPolicy) WithinOperatingHours(t time.Time) bool {
	hour := t.Hour()
	if p.OperatingStartHour == p.OperatingEndHour {
		return true
	}
	if p.OperatingStartHour < p.OperatingEndHour {
		return hour >= p.OperatingStartHour && hour < p.OperatingEndHour
	}
	return hour >= p.OperatingStartHour || hour < p.OperatingEndHour
}

// ChannelEnabled reports whether the policy allows dispatch on a channel
func (p AlertPolicy) ChannelEnabled(channel constants.AlertChannel) bool {
	for _, c := range p.EnabledChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// Service loads typed configuration, preferring app_settings overrides and
// falling back to defaults on a missing or invalid row
type Service struct {
	settings *repositories.SettingsRepo
	cache    common.CacheInterface
}

// NewService creates a new config service
func NewService(settings *repositories.SettingsRepo, cache common.CacheInterface) *Service {
	return &Service{settings: settings, cache: cache}
}

// ScoringWeights returns the active weight set. An override that fails
// validation is logged and ignored.
func (s *Service) ScoringWeights(ctx context.Context) ScoringWeights {
	weights := DefaultScoringWeights()

	raw := s.load(ctx, KeyScoringWeights)
	if raw == nil {
		return weights
	}

	var override ScoringWeights
	if err := json.Unmarshal([]byte(*raw), &override); err != nil {
		logging.Warn("scoring weights override is malformed, using defaults", "error", err.Error())
		return weights
	}
	if err := override.Validate(); err != nil {
		logging.Warn("scoring weights override rejected, using defaults", "error", err.Error())
		return weights
	}

	return override
}

// AlertPolicy returns the active alerting policy
func (s *Service) AlertPolicy(ctx context.Context) AlertPolicy {
	policy := DefaultAlertPolicy()

	raw := s.load(ctx, KeyAlertPolicy)
	if raw == nil {
		return policy
	}

	if err := json.Unmarshal([]byte(*raw), &policy); err != nil {
		logging.Warn("alert policy override is malformed, using defaults", "error", err.Error())
		return DefaultAlertPolicy()
	}
	if policy.CooldownHours <= 0 {
		policy.CooldownHours = DefaultAlertPolicy().CooldownHours
	}

	return policy
}

// AnalyticsScoreConfig returns the active analytics scoring thresholds
func (s *Service) AnalyticsScoreConfig(ctx context.Context) AnalyticsScoreConfig {
	cfg := DefaultAnalyticsScoreConfig()

	raw := s.load(ctx, KeyAnalyticsConfig)
	if raw == nil {
		return cfg
	}

	if err := json.Unmarshal([]byte(*raw), &cfg); err != nil {
		logging.Warn("analytics score config override is malformed, using defaults", "error", err.Error())
		return DefaultAnalyticsScoreConfig()
	}

	return cfg
}

func (s *Service) load(ctx context.Context, key string) *string {
	cacheKey := string(constants.CachePrefixSettings) + key

	val, err := s.cache.GetOrSet(cacheKey, settingsCacheTTL, func() (any, error) {
		raw, err := s.settings.GetValue(ctx, key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			// Cache the absence too, as an empty string
			return "", nil
		}
		return *raw, nil
	})
	if err != nil {
		logging.Warn("failed to load setting", "key", key, "error", err.Error())
		return nil
	}

	str, ok := val.(string)
	if !ok || str == "" {
		return nil
	}
	return &str
}
