package alerts

import (
	"fleetpulse/backend/internal/constants"
	gormModels "fleetpulse/backend/internal/models/gorm"
)

// CandidateAlert is a rule that fired for a driver's latest metrics
type CandidateAlert struct {
	RuleID   string
	Reason   string
	Priority constants.AlertPriority
	Channels []constants.AlertChannel
}

// EvaluateRules checks every rule against the metrics row. A rule fires
// when ANY populated condition matches: this wide-net OR policy is
// intentional. Score, acceptance, completion and feedback alert when the
// metric is below the threshold; cancellation and idle when above.
func EvaluateRules(m *gormModels.DriverMetrics, rules []gormModels.AlertRule) []CandidateAlert {
	if m == nil {
		return nil
	}

	var candidates []CandidateAlert
	for _, rule := range rules {
		if !rule.Enabled || !ruleMatches(m, rule) {
			continue
		}

		reason := rule.Name
		if reason == "" {
			reason = rule.Description
		}

		candidates = append(candidates, CandidateAlert{
			RuleID:   rule.ID,
			Reason:   reason,
			Priority: priorityForScore(m.CalculatedScore),
			Channels: ruleChannels(rule),
		})
	}
	return candidates
}

func ruleMatches(m *gormModels.DriverMetrics, rule gormModels.AlertRule) bool {
	if rule.MinScore != nil && m.CalculatedScore < *rule.MinScore {
		return true
	}
	if hasRateInputs(m) {
		if rule.MinAcceptanceRate != nil && m.AcceptanceRate < *rule.MinAcceptanceRate {
			return true
		}
		if rule.MinCompletionRate != nil && m.CompletionRate < *rule.MinCompletionRate {
			return true
		}
		if rule.MinFeedbackScore != nil && m.FeedbackScore < *rule.MinFeedbackScore {
			return true
		}
		if rule.MaxCancellationRate != nil && m.CancellationRate > *rule.MaxCancellationRate {
			return true
		}
	}
	if rule.MaxIdleRatio != nil && m.IdleRatio > *rule.MaxIdleRatio {
		return true
	}
	return false
}

// hasRateInputs reports whether the row carries the normalized rate
// inputs. Rows written from provider analytics store raw counters and
// leave the rates at zero; comparing those zeros against rate thresholds
// would fire every rate rule for every analytics-synced driver.
func hasRateInputs(m *gormModels.DriverMetrics) bool {
	return m.HoursOnline == nil
}

// priorityForScore derives urgency from how deep the score breach is
func priorityForScore(score float64) constants.AlertPriority {
	switch {
	case score < 0.4:
		return constants.PriorityCritical
	case score < 0.6:
		return constants.PriorityHigh
	default:
		return constants.PriorityMedium
	}
}

func ruleChannels(rule gormModels.AlertRule) []constants.AlertChannel {
	channels := make([]constants.AlertChannel, 0, len(rule.Actions))
	for _, action := range rule.Actions {
		channels = append(channels, action.Channel)
	}
	return channels
}
