package api

import (
	"net/http"
	"os"
	"time"

	"fleetpulse/backend/internal/alerts"
	"fleetpulse/backend/internal/auth"
	"fleetpulse/backend/internal/common"
	"fleetpulse/backend/internal/config"
	"fleetpulse/backend/internal/db"
	"fleetpulse/backend/internal/db/repositories"
	"fleetpulse/backend/internal/jobs"
	"fleetpulse/backend/internal/logging"
	"fleetpulse/backend/internal/metrics"
	"fleetpulse/backend/internal/providers"
)

type Repositories struct {
	Drivers      *repositories.DriverRepo
	Metrics      *repositories.MetricsRepo
	Alerts       *repositories.AlertRepo
	Rules        *repositories.AlertRuleRepo
	SyncLogs     *repositories.SyncLogRepo
	Settings     *repositories.SettingsRepo
	DailyMetrics *repositories.SyncRepository
}

type Services struct {
	Cache        common.CacheInterface
	Config       *config.Service
	Telemetry    *providers.TelemetryProvider
	Chat         *providers.ChatProvider
	Voice        *providers.VoiceProvider
	Email        *providers.EmailProvider
	Dispatcher   *alerts.Dispatcher
	Orchestrator *alerts.Orchestrator
	LinkSigner   *auth.LinkSigner
	SyncJob      *jobs.DriverSyncJob
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
}

func InitDependencies(metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {

	repos := &Repositories{
		Drivers:      repositories.NewDriverRepo(db.PgDB),
		Metrics:      repositories.NewMetricsRepo(db.PgDB),
		Alerts:       repositories.NewAlertRepo(db.PgDB),
		Rules:        repositories.NewAlertRuleRepo(db.PgDB),
		SyncLogs:     repositories.NewSyncLogRepo(db.PgDB),
		Settings:     repositories.NewSettingsRepo(db.PgDB),
		DailyMetrics: repositories.NewSyncRepository(db.DB),
	}

	// Prefer Redis when configured, in-memory cache otherwise
	var cache common.CacheInterface
	if os.Getenv("REDIS_URL") != "" {
		redisCache, err := common.NewRedisCacheService()
		if err != nil {
			logging.Warn("Redis unavailable, falling back to in-memory cache", "error", err.Error())
			cache = common.NewCacheService(60, 600)
		} else {
			cache = redisCache
		}
	} else {
		cache = common.NewCacheService(60, 600)
	}

	confSvc := config.NewService(repos.Settings, cache)

	tokens := providers.NewTokenManager(
		os.Getenv("TELEMETRY_TOKEN_URL"),
		os.Getenv("TELEMETRY_CLIENT_ID"),
		os.Getenv("TELEMETRY_CLIENT_SECRET"),
		&http.Client{Timeout: 15 * time.Second},
	)
	telemetry := providers.NewTelemetryProvider(tokens)
	chat := providers.NewChatProvider()
	voice := providers.NewVoiceProvider()
	email := providers.NewEmailProvider()

	dispatcher := alerts.NewDispatcher(chat, voice, email)
	orchestrator := alerts.NewOrchestrator(
		repos.Drivers,
		repos.Metrics,
		repos.Alerts,
		repos.Rules,
		dispatcher,
		confSvc,
		metricsReg,
	)

	syncJob := jobs.NewDriverSyncJob(
		telemetry,
		repos.Drivers,
		repos.Metrics,
		repos.DailyMetrics,
		repos.Alerts,
		repos.SyncLogs,
		orchestrator,
		confSvc,
		metricsReg,
	)

	services := &Services{
		Cache:        cache,
		Config:       confSvc,
		Telemetry:    telemetry,
		Chat:         chat,
		Voice:        voice,
		Email:        email,
		Dispatcher:   dispatcher,
		Orchestrator: orchestrator,
		LinkSigner:   auth.NewLinkSigner([]byte(os.Getenv("LINK_SIGNING_SECRET")), cache),
		SyncJob:      syncJob,
	}

	return &Dependencies{
		Repo:     repos,
		Services: services,
		Metrics:  metricsReg,
	}, nil
}
