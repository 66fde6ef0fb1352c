package alerts

import (
	"testing"

	"fleetpulse/backend/internal/constants"
	gormModels "fleetpulse/backend/internal/models/gorm"
)

func f64(v float64) *float64 { return &v }

func TestEvaluateRules_ORSemantics(t *testing.T) {
	// Acceptance is fine, cancellation is breached: the rule still fires
	rule := gormModels.AlertRule{
		ID:                  "rule-1",
		Name:                "Quality floor",
		Enabled:             true,
		MinAcceptanceRate:   f64(0.5),
		MaxCancellationRate: f64(0.2),
	}

	m := &gormModels.DriverMetrics{
		CalculatedScore:  0.8,
		AcceptanceRate:   0.9,
		CancellationRate: 0.35,
	}

	candidates := EvaluateRules(m, []gormModels.AlertRule{rule})
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Reason != "Quality floor" {
		t.Errorf("Expected reason from rule name, got %s", candidates[0].Reason)
	}
}

func TestEvaluateRules_NoConditionMatches(t *testing.T) {
	rule := gormModels.AlertRule{
		ID:                  "rule-1",
		Name:                "Quality floor",
		Enabled:             true,
		MinScore:            f64(0.5),
		MaxCancellationRate: f64(0.3),
	}

	m := &gormModels.DriverMetrics{
		CalculatedScore:  0.9,
		CancellationRate: 0.05,
	}

	if got := EvaluateRules(m, []gormModels.AlertRule{rule}); len(got) != 0 {
		t.Errorf("Expected no candidates, got %d", len(got))
	}
}

func TestEvaluateRules_ComparisonDirections(t *testing.T) {
	m := &gormModels.DriverMetrics{
		CalculatedScore:  0.7,
		AcceptanceRate:   0.8,
		CompletionRate:   0.9,
		FeedbackScore:    4.0,
		CancellationRate: 0.1,
		IdleRatio:        0.3,
	}

	cases := []struct {
		name     string
		rule     gormModels.AlertRule
		expected bool
	}{
		{"score below fires", gormModels.AlertRule{Enabled: true, MinScore: f64(0.75)}, true},
		{"score above does not", gormModels.AlertRule{Enabled: true, MinScore: f64(0.65)}, false},
		{"feedback below fires", gormModels.AlertRule{Enabled: true, MinFeedbackScore: f64(4.5)}, true},
		{"idle above fires", gormModels.AlertRule{Enabled: true, MaxIdleRatio: f64(0.25)}, true},
		{"idle below does not", gormModels.AlertRule{Enabled: true, MaxIdleRatio: f64(0.5)}, false},
		{"cancellation above fires", gormModels.AlertRule{Enabled: true, MaxCancellationRate: f64(0.05)}, true},
	}

	for _, c := range cases {
		got := EvaluateRules(m, []gormModels.AlertRule{c.rule})
		if (len(got) == 1) != c.expected {
			t.Errorf("%s: expected fired=%v, got %d candidates", c.name, c.expected, len(got))
		}
	}
}

func TestEvaluateRules_DisabledRuleNeverFires(t *testing.T) {
	rule := gormModels.AlertRule{Enabled: false, MinScore: f64(0.99)}
	m := &gormModels.DriverMetrics{CalculatedScore: 0.1}

	if got := EvaluateRules(m, []gormModels.AlertRule{rule}); len(got) != 0 {
		t.Errorf("Expected disabled rule to be skipped, got %d candidates", len(got))
	}
}

func TestEvaluateRules_PriorityFromBreachDepth(t *testing.T) {
	rule := gormModels.AlertRule{Enabled: true, MinScore: f64(0.95)}

	cases := []struct {
		score float64
		want  constants.AlertPriority
	}{
		{0.35, constants.PriorityCritical},
		{0.45, constants.PriorityHigh},
		{0.59, constants.PriorityHigh},
		{0.7, constants.PriorityMedium},
	}

	for _, c := range cases {
		got := EvaluateRules(&gormModels.DriverMetrics{CalculatedScore: c.score}, []gormModels.AlertRule{rule})
		if len(got) != 1 {
			t.Fatalf("score %v: expected rule to fire", c.score)
		}
		if got[0].Priority != c.want {
			t.Errorf("score %v: expected priority %s, got %s", c.score, c.want, got[0].Priority)
		}
	}
}

func TestEvaluateRules_ChannelsFromActions(t *testing.T) {
	rule := gormModels.AlertRule{
		Enabled:  true,
		MinScore: f64(0.9),
		Actions: []gormModels.AlertRuleAction{
			{Channel: constants.ChannelVoice, Position: 0},
			{Channel: constants.ChannelTelegram, Position: 1},
		},
	}

	got := EvaluateRules(&gormModels.DriverMetrics{CalculatedScore: 0.5}, []gormModels.AlertRule{rule})
	if len(got) != 1 {
		t.Fatal("Expected rule to fire")
	}
	if len(got[0].Channels) != 2 || got[0].Channels[0] != constants.ChannelVoice {
		t.Errorf("Expected ordered action channels, got %v", got[0].Channels)
	}
}

func TestEvaluateRules_NilMetrics(t *testing.T) {
	rule := gormModels.AlertRule{Enabled: true, MinScore: f64(0.9)}
	if got := EvaluateRules(nil, []gormModels.AlertRule{rule}); got != nil {
		t.Errorf("Expected nil candidates for nil metrics, got %v", got)
	}
}

func TestEvaluateRules_AnalyticsRowsSkipRateConditions(t *testing.T) {
	// A row written from provider analytics carries raw counters and a
	// score, never the normalized rate inputs
	hours := 80.0
	m := &gormModels.DriverMetrics{
		CalculatedScore: 0.85,
		HoursOnline:     &hours,
		TripVolumeIndex: 1.0,
		IdleRatio:       0.25,
	}

	rateRule := gormModels.AlertRule{
		ID:                "rule-rates",
		Name:              "Rate floor",
		Enabled:           true,
		MinAcceptanceRate: f64(0.5),
		MinFeedbackScore:  f64(3.0),
	}

	if got := EvaluateRules(m, []gormModels.AlertRule{rateRule}); len(got) != 0 {
		t.Errorf("Expected rate rules to skip analytics rows, got %d candidates", len(got))
	}

	// Score and idle conditions still apply to analytics rows
	scoreRule := gormModels.AlertRule{
		ID:       "rule-score",
		Name:     "Score floor",
		Enabled:  true,
		MinScore: f64(0.9),
	}
	idleRule := gormModels.AlertRule{
		ID:           "rule-idle",
		Name:         "Idle ceiling",
		Enabled:      true,
		MaxIdleRatio: f64(0.2),
	}

	got := EvaluateRules(m, []gormModels.AlertRule{scoreRule, idleRule})
	if len(got) != 2 {
		t.Fatalf("Expected score and idle rules to fire, got %d candidates", len(got))
	}
}
