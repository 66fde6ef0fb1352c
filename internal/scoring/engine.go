package scoring

import (
	"fmt"
	"math"

	"fleetpulse/backend/internal/config"
)

// The scoring engine is pure: no I/O, no state. Both entry points return
// deterministic output for in-range input and never fail after validation.

// ValidationError rejects out-of-range scoring input before computation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// MetricsInput is the six-field normalized scoring input.
// Rates are in [0,1], feedback is in [0,5].
type MetricsInput struct {
	AcceptanceRate   float64
	CancellationRate float64
	CompletionRate   float64
	FeedbackScore    float64
	TripVolumeIndex  float64
	IdleRatio        float64
}

// Validate checks documented input ranges
func (in MetricsInput) Validate() error {
	checks := []struct {
		field string
		value float64
		max   float64
	}{
		{"acceptance_rate", in.AcceptanceRate, 1},
		{"cancellation_rate", in.CancellationRate, 1},
		{"completion_rate", in.CompletionRate, 1},
		{"feedback_score", in.FeedbackScore, 5},
		{"trip_volume_index", in.TripVolumeIndex, 1},
		{"idle_ratio", in.IdleRatio, 1},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < 0 || c.value > c.max {
			return &ValidationError{
				Field:   c.field,
				Message: fmt.Sprintf("must be in [0,%g], got %g", c.max, c.value),
			}
		}
	}
	return nil
}

// Component is one weighted contribution in a score breakdown
type Component struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Breakdown exposes the score with its per-component contributions for
// display and auditing. The weighted contributions sum to the score.
type Breakdown struct {
	Score      float64     `json:"score"`
	Grade      string      `json:"grade"`
	Category   string      `json:"category"`
	Components []Component `json:"components"`
}

// ComputeScore maps normalized metrics to a [0,1] score with breakdown.
// Weight sets are validated here as well: the sum-to-one invariant is the
// engine's responsibility, not the caller's.
func ComputeScore(in MetricsInput, weights config.ScoringWeights) (*Breakdown, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	components := []Component{
		{Label: "Acceptance", Value: in.AcceptanceRate, Weight: weights.Acceptance},
		{Label: "Cancellation", Value: 1 - in.CancellationRate, Weight: weights.Cancellation},
		{Label: "Completion", Value: in.CompletionRate, Weight: weights.Completion},
		{Label: "Feedback", Value: in.FeedbackScore / 5, Weight: weights.Feedback},
		{Label: "Trip volume", Value: in.TripVolumeIndex, Weight: weights.TripVolume},
		{Label: "Idle time", Value: 1 - in.IdleRatio, Weight: weights.Idle},
	}

	score := 0.0
	for i := range components {
		components[i].Weighted = components[i].Value * components[i].Weight
		score += components[i].Weighted
	}
	score = clamp(score, 0, 1)

	return &Breakdown{
		Score:      score,
		Grade:      GradeForScore(score),
		Category:   CategoryForScore(score),
		Components: components,
	}, nil
}

// GradeForScore maps a [0,1] score to a letter grade via the canonical
// descending ladder.
func GradeForScore(score float64) string {
	switch {
	case score >= 0.95:
		return "A+"
	case score >= 0.90:
		return "A"
	case score >= 0.85:
		return "B+"
	case score >= 0.80:
		return "B"
	case score >= 0.75:
		return "C+"
	case score >= 0.70:
		return "C"
	case score >= 0.60:
		return "D"
	default:
		return "F"
	}
}

// CategoryForScore maps a [0,1] score to a coarse performance bucket
func CategoryForScore(score float64) string {
	switch {
	case score >= 0.90:
		return "excellent"
	case score >= 0.75:
		return "good"
	case score >= 0.60:
		return "average"
	case score >= 0.40:
		return "poor"
	default:
		return "critical"
	}
}

// AnalyticsInput is the raw-counter input for the analytics-derived score
type AnalyticsInput struct {
	HoursOnline float64
	HoursOnTrip float64
	TripCount   int
	Earnings    float64
}

// Validate rejects negative counters
func (in AnalyticsInput) Validate() error {
	if in.HoursOnline < 0 || in.HoursOnTrip < 0 || in.TripCount < 0 || in.Earnings < 0 {
		return &ValidationError{Field: "analytics", Message: "counters must be non-negative"}
	}
	return nil
}

// AnalyticsScore maps raw counters to a [0,100] score. Scoring is
// graduated: each metric earns weight * min(1, actual/minimum), so falling
// short scales linearly to zero and exceeding the minimum caps at the
// weight. A zero or negative configured minimum counts as met.
func AnalyticsScore(in AnalyticsInput, cfg config.AnalyticsScoreConfig) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	score := subScore(in.HoursOnline, cfg.HoursOnline) +
		subScore(in.HoursOnTrip, cfg.HoursOnTrip) +
		subScore(float64(in.TripCount), cfg.Trips) +
		subScore(in.Earnings, cfg.Earnings)

	return clamp(score, 0, 100), nil
}

// DerivedRates are per-window ratios computed from raw analytics counters.
// Both are 0 when the driver logged no online hours: never NaN.
type DerivedRates struct {
	TripRate    float64 // trips per online hour
	ActiveRatio float64 // share of online time spent on trip, in [0,1]
}

// Derive computes trip rate and active ratio with a zero-hours guard
func (in AnalyticsInput) Derive() DerivedRates {
	if in.HoursOnline <= 0 {
		return DerivedRates{}
	}
	return DerivedRates{
		TripRate:    float64(in.TripCount) / in.HoursOnline,
		ActiveRatio: clamp(in.HoursOnTrip/in.HoursOnline, 0, 1),
	}
}

func subScore(actual float64, t config.MetricThreshold) float64 {
	if t.Minimum <= 0 {
		return t.Weight
	}
	ratio := math.Min(1, actual/t.Minimum)
	return ratio * t.Weight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
