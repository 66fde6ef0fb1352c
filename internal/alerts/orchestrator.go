package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fleetpulse/backend/internal/config"
	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/db/repositories"
	"fleetpulse/backend/internal/logging"
	"fleetpulse/backend/internal/metrics"
	gormModels "fleetpulse/backend/internal/models/gorm"
)

// AlertRequest asks for one driver notification. Priority, channels and
// message are optional; omitted fields are derived.
type AlertRequest struct {
	DriverID string                   `json:"driver_id"`
	Reason   string                   `json:"reason"`
	Priority constants.AlertPriority  `json:"priority,omitempty"`
	Channels []constants.AlertChannel `json:"channels,omitempty"`
	Message  string                   `json:"message,omitempty"`
}

// AlertResult is the outcome of one alert request. Success means at least
// one channel delivered.
type AlertResult struct {
	AlertID        string                          `json:"alert_id,omitempty"`
	Success        bool                            `json:"success"`
	Priority       constants.AlertPriority         `json:"priority"`
	ChannelResults map[constants.AlertChannel]bool `json:"channel_results"`
	Error          string                          `json:"error,omitempty"`
}

// AutoRunSummary reports one ProcessAutomaticAlerts pass
type AutoRunSummary struct {
	DriversEvaluated int  `json:"drivers_evaluated"`
	AlertsSent       int  `json:"alerts_sent"`
	AlertsFailed     int  `json:"alerts_failed"`
	Suppressed       int  `json:"suppressed"`
	OutsideHours     bool `json:"outside_hours"`
}

// Orchestrator composes rule evaluation and channel dispatch with the
// alert lifecycle (PENDING → SENT/FAILED).
type Orchestrator struct {
	drivers    *repositories.DriverRepo
	metricRows *repositories.MetricsRepo
	alerts     *repositories.AlertRepo
	rules      *repositories.AlertRuleRepo
	dispatcher *Dispatcher
	conf       *config.Service
	metricsReg *metrics.MetricsRegistry

	now   func() time.Time
	sleep func(time.Duration)
}

// NewOrchestrator creates an alert orchestrator
func NewOrchestrator(
	drivers *repositories.DriverRepo,
	metricRows *repositories.MetricsRepo,
	alerts *repositories.AlertRepo,
	rules *repositories.AlertRuleRepo,
	dispatcher *Dispatcher,
	conf *config.Service,
	metricsReg *metrics.MetricsRegistry,
) *Orchestrator {
	return &Orchestrator{
		drivers:    drivers,
		metricRows: metricRows,
		alerts:     alerts,
		rules:      rules,
		dispatcher: dispatcher,
		conf:       conf,
		metricsReg: metricsReg,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// SendDriverAlert notifies one driver. One alert row is created per
// request (not per channel); channels are attempted sequentially and the
// alert counts as SENT when any of them delivers. Provider failures are
// captured in the result, not returned as errors.
func (o *Orchestrator) SendDriverAlert(ctx context.Context, req AlertRequest) (*AlertResult, error) {
	driver, err := o.drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	if driver == nil {
		return nil, fmt.Errorf("driver %s not found", req.DriverID)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("alert reason is required")
	}

	priority := req.Priority
	if priority == "" {
		priority, err = o.derivePriority(ctx, driver.ID)
		if err != nil {
			return nil, err
		}
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = DefaultChannels(priority)
	}

	message := req.Message
	if message == "" {
		message = DefaultMessage(driver.FullName, req.Reason, priority)
	}

	record := &gormModels.Alert{
		DriverID: driver.ID,
		Priority: priority,
		Reason:   req.Reason,
		Message:  message,
		Channels: joinChannels(channels),
	}
	if err := o.alerts.CreatePending(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	channelResults := make(map[constants.AlertChannel]bool, len(channels))
	var dispatchErrors []string
	var providerRef *string

	for _, channel := range channels {
		res := o.dispatcher.Dispatch(ctx, driver, channel, message)
		channelResults[channel] = res.Delivered

		switch {
		case res.Delivered:
			o.countDispatch(channel, "delivered")
			if providerRef == nil && res.ProviderRef != "" {
				ref := res.ProviderRef
				providerRef = &ref
			}
		case res.Skipped:
			o.countDispatch(channel, "skipped")
		default:
			o.countDispatch(channel, "failed")
			if res.Err != nil {
				dispatchErrors = append(dispatchErrors, fmt.Sprintf("%s: %v", channel, res.Err))
			}
		}
	}

	success := false
	for _, delivered := range channelResults {
		if delivered {
			success = true
			break
		}
	}

	status := constants.AlertFailed
	if success {
		status = constants.AlertSent
	}

	var errText *string
	if len(dispatchErrors) > 0 {
		joined := strings.Join(dispatchErrors, "; ")
		errText = &joined
	}

	resultsJSON := marshalChannelResults(channelResults)
	if err := o.alerts.Finalize(ctx, record.ID, status, resultsJSON, errText, providerRef); err != nil {
		logging.Error("failed to finalize alert", "alert_id", record.ID, "error", err.Error())
	}

	result := &AlertResult{
		AlertID:        record.ID,
		Success:        success,
		Priority:       priority,
		ChannelResults: channelResults,
	}
	if errText != nil {
		result.Error = *errText
	}
	return result, nil
}

// SendBulkAlerts processes requests sequentially with an inter-request
// delay. One request failing never aborts the rest; results come back in
// input order.
func (o *Orchestrator) SendBulkAlerts(ctx context.Context, requests []AlertRequest) []AlertResult {
	policy := o.conf.AlertPolicy(ctx)
	delay := time.Duration(policy.BulkSendDelayMs) * time.Millisecond

	results := make([]AlertResult, 0, len(requests))
	for i, req := range requests {
		if i > 0 && delay > 0 {
			o.sleep(delay)
		}

		res, err := o.SendDriverAlert(ctx, req)
		if err != nil {
			results = append(results, AlertResult{
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		results = append(results, *res)
	}
	return results
}

// ProcessAutomaticAlerts evaluates every ACTIVE driver's latest metrics
// against the enabled rules, suppressing repeats inside the cooldown
// window. Outside the configured operating hours nothing is dispatched.
func (o *Orchestrator) ProcessAutomaticAlerts(ctx context.Context) (*AutoRunSummary, error) {
	summary := &AutoRunSummary{}

	policy := o.conf.AlertPolicy(ctx)
	if !policy.WithinOperatingHours(o.now()) {
		summary.OutsideHours = true
		return summary, nil
	}

	rules, err := o.rules.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert rules: %w", err)
	}
	if len(rules) == 0 {
		return summary, nil
	}

	drivers, err := o.drivers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active drivers: %w", err)
	}

	cutoff := o.now().Add(-policy.Cooldown())

	for _, driver := range drivers {
		latest, err := o.metricRows.LatestByDriver(ctx, driver.ID)
		if err != nil {
			logging.Warn("failed to load metrics for driver", "driver_id", driver.ID, "error", err.Error())
			continue
		}
		if latest == nil {
			continue
		}
		summary.DriversEvaluated++

		for _, candidate := range EvaluateRules(latest, rules) {
			recent, err := o.alerts.HasRecentAlert(ctx, driver.ID, candidate.Reason, cutoff)
			if err != nil {
				logging.Warn("cooldown check failed", "driver_id", driver.ID, "error", err.Error())
				continue
			}
			if recent {
				summary.Suppressed++
				if o.metricsReg != nil {
					o.metricsReg.AlertsSuppressedTotal.Inc()
				}
				continue
			}

			res, err := o.SendDriverAlert(ctx, AlertRequest{
				DriverID: driver.ID,
				Reason:   candidate.Reason,
				Priority: candidate.Priority,
				Channels: filterEnabledChannels(candidate.Channels, policy),
			})
			if err != nil {
				logging.Warn("automatic alert failed", "driver_id", driver.ID, "error", err.Error())
				summary.AlertsFailed++
				continue
			}
			if res.Success {
				summary.AlertsSent++
			} else {
				summary.AlertsFailed++
			}
		}
	}

	return summary, nil
}

func (o *Orchestrator) derivePriority(ctx context.Context, driverID string) (constants.AlertPriority, error) {
	latest, err := o.metricRows.LatestByDriver(ctx, driverID)
	if err != nil {
		return "", fmt.Errorf("failed to load metrics: %w", err)
	}
	if latest == nil {
		// No score history: the explicit request still goes out, at
		// default urgency.
		return constants.PriorityMedium, nil
	}

	score := latest.CalculatedScore
	switch {
	case score < 0.4:
		return constants.PriorityCritical, nil
	case score < 0.5:
		return constants.PriorityHigh, nil
	case score < 0.6:
		return constants.PriorityMedium, nil
	default:
		return constants.PriorityLow, nil
	}
}

// DefaultChannels maps priority to the channel set used when the request
// does not name channels explicitly
func DefaultChannels(priority constants.AlertPriority) []constants.AlertChannel {
	switch priority {
	case constants.PriorityCritical:
		return []constants.AlertChannel{
			constants.ChannelVoice,
			constants.ChannelTelegram,
			constants.ChannelWhatsApp,
		}
	case constants.PriorityHigh:
		return []constants.AlertChannel{
			constants.ChannelTelegram,
			constants.ChannelWhatsApp,
		}
	default:
		return []constants.AlertChannel{constants.ChannelTelegram}
	}
}

// DefaultMessage builds the human-readable body used when the request
// carries none
func DefaultMessage(driverName, reason string, priority constants.AlertPriority) string {
	name := driverName
	if name == "" {
		name = "driver"
	}

	switch priority {
	case constants.PriorityCritical:
		return fmt.Sprintf("URGENT: %s, your performance requires immediate attention (%s). Please contact your fleet manager right away.", name, reason)
	case constants.PriorityHigh:
		return fmt.Sprintf("%s, your recent performance has dropped significantly (%s). Please review your stats and reach out if you need support.", name, reason)
	default:
		return fmt.Sprintf("%s, heads up: %s. Keep an eye on your performance dashboard.", name, reason)
	}
}

func (o *Orchestrator) countDispatch(channel constants.AlertChannel, result string) {
	if o.metricsReg == nil {
		return
	}
	o.metricsReg.AlertsDispatchedTotal.WithLabelValues(string(channel), result).Inc()
}

// filterEnabledChannels drops rule-configured channels the policy has
// disabled. An empty result falls back to priority-derived defaults in
// SendDriverAlert.
func filterEnabledChannels(channels []constants.AlertChannel, policy config.AlertPolicy) []constants.AlertChannel {
	kept := make([]constants.AlertChannel, 0, len(channels))
	for _, c := range channels {
		if policy.ChannelEnabled(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

func joinChannels(channels []constants.AlertChannel) string {
	parts := make([]string, 0, len(channels))
	for _, c := range channels {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}

func marshalChannelResults(results map[constants.AlertChannel]bool) string {
	data, err := json.Marshal(results)
	if err != nil {
		return "{}"
	}
	return string(data)
}
