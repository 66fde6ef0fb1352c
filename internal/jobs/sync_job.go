package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"fleetpulse/backend/internal/alerts"
	"fleetpulse/backend/internal/config"
	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/db/repositories"
	"fleetpulse/backend/internal/logging"
	"fleetpulse/backend/internal/metrics"
	"fleetpulse/backend/internal/models/dtos"
	"fleetpulse/backend/internal/models/entities"
	gormModels "fleetpulse/backend/internal/models/gorm"
	"fleetpulse/backend/internal/scoring"
)

const (
	driverPageSize      = 50
	analyticsBatchSize  = 50
	analyticsWindowDays = 7

	alertReasonLowScore = "low_score"
)

// TelemetryAPI is the slice of the telemetry provider the sync job uses
type TelemetryAPI interface {
	ListDrivers(ctx context.Context, offset, limit int) (*dtos.DriverListResponse, error)
	FetchAnalytics(ctx context.Context, driverIDs []string, start, end time.Time) (*dtos.AnalyticsResponse, error)
}

// MetricsWriter persists one (driver, day) metrics row idempotently
type MetricsWriter interface {
	UpsertDailyMetrics(ctx context.Context, row *entities.DriverMetricsRow) error
}

// RunStats summarizes one reconciliation run
type RunStats struct {
	Status           constants.SyncStatus `json:"status"`
	DriversProcessed int                  `json:"driversProcessed"`
	DriversCreated   int                  `json:"driversCreated"`
	DriversUpdated   int                  `json:"driversUpdated"`
	MetricsUpserted  int                  `json:"metricsUpserted"`
	AlertsSent       int                  `json:"alertsSent"`
	AlertsSuppressed int                  `json:"alertsSuppressed"`
	Errors           []string             `json:"errors"`
}

// DriverSyncJob reconciles the external telemetry provider's driver and
// analytics data into local state: upserts drivers, recomputes scores,
// writes per-day metrics rows, and triggers threshold alerts within the
// configured operating hours. One SyncLog row records each run.
type DriverSyncJob struct {
	provider     TelemetryAPI
	drivers      *repositories.DriverRepo
	metricRows   *repositories.MetricsRepo
	writer       MetricsWriter
	alertRows    *repositories.AlertRepo
	syncLogs     *repositories.SyncLogRepo
	orchestrator *alerts.Orchestrator
	conf         *config.Service
	metricsReg   *metrics.MetricsRegistry

	running atomic.Bool
	now     func() time.Time
}

// NewDriverSyncJob creates a new driver sync job instance
func NewDriverSyncJob(
	provider TelemetryAPI,
	drivers *repositories.DriverRepo,
	metricRows *repositories.MetricsRepo,
	writer MetricsWriter,
	alertRows *repositories.AlertRepo,
	syncLogs *repositories.SyncLogRepo,
	orchestrator *alerts.Orchestrator,
	conf *config.Service,
	metricsReg *metrics.MetricsRegistry,
) *DriverSyncJob {
	return &DriverSyncJob{
		provider:     provider,
		drivers:      drivers,
		metricRows:   metricRows,
		writer:       writer,
		alertRows:    alertRows,
		syncLogs:     syncLogs,
		orchestrator: orchestrator,
		conf:         conf,
		metricsReg:   metricsReg,
		now:          time.Now,
	}
}

// Run executes one reconciliation. Only one run is active at a time per
// process; a second call while one is running returns an error without
// touching the database.
func (j *DriverSyncJob) Run(ctx context.Context, trigger constants.SyncTrigger, actor *string) (*RunStats, error) {
	if !j.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("reconciliation run already in progress")
	}
	defer j.running.Store(false)

	start := j.now()
	stats := &RunStats{Errors: []string{}}

	runLog, err := j.syncLogs.Start(ctx, trigger, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}
	log := logging.WithRun(runLog.ID, string(trigger))
	log.Infow("starting driver reconciliation")

	var fatal error

	// The log row must reach a terminal status even when the run bails
	// out early.
	defer func() {
		stats.Status = j.finalStatus(stats, fatal)

		var errText *string
		switch {
		case len(stats.Errors) > 0:
			joined := strings.Join(stats.Errors, "; ")
			errText = &joined
		case fatal != nil:
			msg := fatal.Error()
			errText = &msg
		}

		if err := j.syncLogs.Finalize(ctx, runLog.ID, stats.Status,
			stats.DriversProcessed, stats.DriversCreated, stats.DriversUpdated, errText); err != nil {
			log.Warnw("failed to finalize sync log", "error", err.Error())
		}

		if j.metricsReg != nil {
			j.metricsReg.SyncRunsTotal.WithLabelValues(string(stats.Status), string(trigger)).Inc()
			j.metricsReg.SyncRunDuration.Observe(j.now().Sub(start).Seconds())
		}

		log.Infow("reconciliation finished",
			"status", string(stats.Status),
			"processed", stats.DriversProcessed,
			"created", stats.DriversCreated,
			"updated", stats.DriversUpdated,
			"metrics_upserted", stats.MetricsUpserted,
			"alerts_sent", stats.AlertsSent,
			"errors", len(stats.Errors),
			"duration", j.now().Sub(start).Truncate(time.Millisecond).String(),
		)
	}()

	if fatal = j.syncDrivers(ctx, log, stats); fatal != nil {
		return stats, fatal
	}

	if err := j.syncAnalytics(ctx, log, stats); err != nil {
		// No fallback scores: affected drivers keep their previous data
		// until the next successful run.
		stats.Errors = append(stats.Errors, err.Error())
	}

	j.runThresholdAlerts(ctx, log, stats)

	return stats, nil
}

// syncDrivers pages through the provider's driver list and upserts each
// record independently. A page-level failure is fatal only for the first
// page; later pages degrade the run to PARTIAL.
func (j *DriverSyncJob) syncDrivers(ctx context.Context, log logger, stats *RunStats) error {
	offset := 0
	page := 0

	for {
		page++
		list, err := j.provider.ListDrivers(ctx, offset, driverPageSize)
		if err != nil {
			if page == 1 {
				return fmt.Errorf("failed to fetch driver list: %w", err)
			}
			stats.Errors = append(stats.Errors, fmt.Sprintf("driver list page %d: %v", page, err))
			return nil
		}

		log.Infow("fetched driver page", "page", page, "records", len(list.Drivers))

		for _, record := range list.Drivers {
			res, err := j.upsertDriver(ctx, record)
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("driver %s: %v", record.DriverID, err))
				continue
			}
			stats.DriversProcessed++
			if res.Created {
				stats.DriversCreated++
				j.countUpsert("created")
			} else {
				stats.DriversUpdated++
				j.countUpsert("updated")
			}
		}

		if len(list.Drivers) < driverPageSize {
			return nil
		}
		offset += driverPageSize
	}
}

func (j *DriverSyncJob) upsertDriver(ctx context.Context, record dtos.ProviderDriver) (*repositories.UpsertResult, error) {
	if record.DriverID == "" {
		return nil, fmt.Errorf("record has no driver id")
	}

	incoming := &gormModels.Driver{
		ExternalID: record.DriverID,
		FullName:   strings.TrimSpace(record.FirstName + " " + record.LastName),
		Status:     mapProviderStatus(record.Status),
	}
	if record.PhoneNumber != "" {
		phone := record.PhoneNumber
		incoming.Phone = &phone
	}
	if record.Email != "" {
		email := record.Email
		incoming.Email = &email
	}

	return j.drivers.UpsertByExternalID(ctx, incoming)
}

// syncAnalytics queries the provider for the trailing window in fixed-size
// id batches and writes one metrics row per returned driver, keyed to
// today's date. A batch failure skips that batch's drivers, never invents
// scores for them.
func (j *DriverSyncJob) syncAnalytics(ctx context.Context, log logger, stats *RunStats) error {
	known, err := j.drivers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list drivers for analytics: %w", err)
	}
	if len(known) == 0 {
		return nil
	}

	byExternal := make(map[string]*gormModels.Driver, len(known))
	externalIDs := make([]string, 0, len(known))
	for i := range known {
		byExternal[known[i].ExternalID] = &known[i]
		externalIDs = append(externalIDs, known[i].ExternalID)
	}

	end := j.now()
	windowStart := end.AddDate(0, 0, -analyticsWindowDays)
	metricDate := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	scoreCfg := j.conf.AnalyticsScoreConfig(ctx)

	for batchStart := 0; batchStart < len(externalIDs); batchStart += analyticsBatchSize {
		batchEnd := batchStart + analyticsBatchSize
		if batchEnd > len(externalIDs) {
			batchEnd = len(externalIDs)
		}
		batch := externalIDs[batchStart:batchEnd]

		resp, err := j.provider.FetchAnalytics(ctx, batch, windowStart, end)
		if err != nil {
			stats.Errors = append(stats.Errors,
				fmt.Sprintf("analytics batch %d-%d: %v", batchStart, batchEnd, err))
			continue
		}

		for _, row := range resp.Rows {
			driver, ok := byExternal[row.DriverID]
			if !ok {
				log.Warnw("analytics row for unknown driver", "external_id", row.DriverID)
				continue
			}
			if err := j.writeMetrics(ctx, driver.ID, metricDate, row, scoreCfg); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("metrics %s: %v", row.DriverID, err))
				continue
			}
			stats.MetricsUpserted++
		}
	}

	return nil
}

func (j *DriverSyncJob) writeMetrics(
	ctx context.Context,
	driverID string,
	metricDate time.Time,
	row dtos.AnalyticsRow,
	cfg config.AnalyticsScoreConfig,
) error {
	in := scoring.AnalyticsInput{
		HoursOnline: row.HoursOnline,
		HoursOnTrip: row.HoursOnTrip,
		TripCount:   row.TripCount,
		Earnings:    row.Earnings,
	}

	score, err := scoring.AnalyticsScore(in, cfg)
	if err != nil {
		return err
	}
	rates := in.Derive()

	hoursOnline := row.HoursOnline
	hoursOnTrip := row.HoursOnTrip
	tripCount := row.TripCount
	earnings := row.Earnings

	return j.writer.UpsertDailyMetrics(ctx, &entities.DriverMetricsRow{
		DriverID:        driverID,
		MetricDate:      metricDate,
		TripVolumeIndex: tripVolumeIndex(row.TripCount, cfg.Trips.Minimum),
		IdleRatio:       1 - rates.ActiveRatio,
		HoursOnline:     &hoursOnline,
		HoursOnTrip:     &hoursOnTrip,
		TripCount:       &tripCount,
		Earnings:        &earnings,
		// The analytics score is 0-100; the column holds [0,1] so the
		// alert threshold compares uniformly across scoring modes.
		CalculatedScore: score / 100,
	})
}

// runThresholdAlerts notifies drivers whose latest score fell below the
// policy threshold, through the policy's channel set. Skipped wholesale
// outside operating hours and fully subject to the cooldown window.
func (j *DriverSyncJob) runThresholdAlerts(ctx context.Context, log logger, stats *RunStats) {
	policy := j.conf.AlertPolicy(ctx)

	if !policy.WithinOperatingHours(j.now()) {
		log.Infow("outside operating hours, skipping threshold alerts")
		return
	}
	if !reasonEnabled(policy, alertReasonLowScore) {
		return
	}

	drivers, err := j.drivers.ListActive(ctx)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("alerting: %v", err))
		return
	}

	cutoff := j.now().Add(-policy.Cooldown())

	for _, driver := range drivers {
		latest, err := j.metricRows.LatestByDriver(ctx, driver.ID)
		if err != nil {
			log.Warnw("failed to load latest metrics", "driver_id", driver.ID, "error", err.Error())
			continue
		}
		if latest == nil || latest.CalculatedScore >= policy.ScoreThreshold {
			continue
		}

		recent, err := j.alertRows.HasRecentAlert(ctx, driver.ID, alertReasonLowScore, cutoff)
		if err != nil {
			log.Warnw("cooldown check failed", "driver_id", driver.ID, "error", err.Error())
			continue
		}
		if recent {
			stats.AlertsSuppressed++
			if j.metricsReg != nil {
				j.metricsReg.AlertsSuppressedTotal.Inc()
			}
			continue
		}

		res, err := j.orchestrator.SendDriverAlert(ctx, alerts.AlertRequest{
			DriverID: driver.ID,
			Reason:   alertReasonLowScore,
			Channels: policy.EnabledChannels,
		})
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("alert %s: %v", driver.ID, err))
			continue
		}
		if res.Success {
			stats.AlertsSent++
		} else {
			stats.Errors = append(stats.Errors, fmt.Sprintf("alert %s: no channel delivered", driver.ID))
		}
	}
}

func (j *DriverSyncJob) finalStatus(stats *RunStats, fatal error) constants.SyncStatus {
	switch {
	case fatal != nil:
		return constants.SyncFailure
	case len(stats.Errors) == 0:
		return constants.SyncSuccess
	case stats.DriversProcessed > 0:
		return constants.SyncPartial
	default:
		return constants.SyncFailure
	}
}

func (j *DriverSyncJob) countUpsert(kind string) {
	if j.metricsReg == nil {
		return
	}
	j.metricsReg.SyncDriversUpserted.WithLabelValues(kind).Inc()
}

// mapProviderStatus translates provider status strings to local driver
// status. The provider's list endpoint only reports currently-enrolled
// drivers, so every value maps to ACTIVE; the mapping stays isolated here
// for when the provider starts reporting suspensions.
func mapProviderStatus(_ string) constants.DriverStatus {
	return constants.DriverActive
}

func tripVolumeIndex(trips int, minimum float64) float64 {
	if minimum <= 0 {
		return 1
	}
	ratio := float64(trips) / minimum
	if ratio > 1 {
		return 1
	}
	return ratio
}

func reasonEnabled(policy config.AlertPolicy, reason string) bool {
	for _, r := range policy.EnabledReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// logger is the subset of zap's sugared logger the job calls
type logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}
