package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"

	"fleetpulse/backend/internal/alerts"
	"fleetpulse/backend/internal/auth"
	"fleetpulse/backend/internal/common"
	"fleetpulse/backend/internal/config"
	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/db/repositories"
	"fleetpulse/backend/internal/jobs"
	"fleetpulse/backend/internal/models/dtos"
	"fleetpulse/backend/internal/models/dtos/requests"
	"fleetpulse/backend/internal/models/dtos/responses"
	"fleetpulse/backend/internal/models/entities"
	gormModels "fleetpulse/backend/internal/models/gorm"
	"fleetpulse/backend/internal/scoring"
)

// Mock channel senders
type mockChat struct {
	sendFunc func(ctx context.Context, addr, body string) (string, error)
}

func (m *mockChat) SendTelegram(ctx context.Context, chatID, body string) (string, error) {
	if m.sendFunc == nil {
		return "tg-1", nil
	}
	return m.sendFunc(ctx, chatID, body)
}

func (m *mockChat) SendWhatsApp(ctx context.Context, number, body string) (string, error) {
	if m.sendFunc == nil {
		return "wa-1", nil
	}
	return m.sendFunc(ctx, number, body)
}

type mockVoice struct{}

func (m *mockVoice) InitiateCall(ctx context.Context, phone, promptID string, variables map[string]string) (string, error) {
	return "call-1", nil
}

type mockEmail struct{}

func (m *mockEmail) Send(ctx context.Context, to, subject, body string) (string, error) {
	return "mail-1", nil
}

// Mock telemetry provider for the sync trigger endpoint
type mockTelemetry struct {
	drivers []dtos.ProviderDriver
}

func (m *mockTelemetry) ListDrivers(ctx context.Context, offset, limit int) (*dtos.DriverListResponse, error) {
	if offset > 0 {
		return &dtos.DriverListResponse{}, nil
	}
	return &dtos.DriverListResponse{Drivers: m.drivers}, nil
}

func (m *mockTelemetry) FetchAnalytics(ctx context.Context, driverIDs []string, start, end time.Time) (*dtos.AnalyticsResponse, error) {
	return &dtos.AnalyticsResponse{}, nil
}

type gormMetricsWriter struct {
	db *gormlib.DB
}

func (w *gormMetricsWriter) UpsertDailyMetrics(ctx context.Context, row *entities.DriverMetricsRow) error {
	return repositories.NewMetricsRepo(w.db).Upsert(ctx, &gormModels.DriverMetrics{
		DriverID:        row.DriverID,
		MetricDate:      row.MetricDate,
		TripVolumeIndex: row.TripVolumeIndex,
		IdleRatio:       row.IdleRatio,
		HoursOnline:     row.HoursOnline,
		HoursOnTrip:     row.HoursOnTrip,
		TripCount:       row.TripCount,
		Earnings:        row.Earnings,
		CalculatedScore: row.CalculatedScore,
	})
}

func setupTestDeps(t *testing.T, telemetry jobs.TelemetryAPI) (*Handlers, *gormlib.DB) {
	t.Helper()

	gdb, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&gormModels.Driver{},
		&gormModels.DriverMetrics{},
		&gormModels.Alert{},
		&gormModels.AlertRule{},
		&gormModels.AlertRuleAction{},
		&gormModels.AppSetting{},
		&gormModels.SyncLog{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	repos := &Repositories{
		Drivers:  repositories.NewDriverRepo(gdb),
		Metrics:  repositories.NewMetricsRepo(gdb),
		Alerts:   repositories.NewAlertRepo(gdb),
		Rules:    repositories.NewAlertRuleRepo(gdb),
		SyncLogs: repositories.NewSyncLogRepo(gdb),
		Settings: repositories.NewSettingsRepo(gdb),
	}

	cache := common.NewCacheService(60, 600)
	confSvc := config.NewService(repos.Settings, cache)

	dispatcher := alerts.NewDispatcher(&mockChat{}, &mockVoice{}, &mockEmail{})
	orchestrator := alerts.NewOrchestrator(
		repos.Drivers, repos.Metrics, repos.Alerts, repos.Rules,
		dispatcher, confSvc, nil,
	)

	if telemetry == nil {
		telemetry = &mockTelemetry{}
	}
	syncJob := jobs.NewDriverSyncJob(
		telemetry,
		repos.Drivers, repos.Metrics, &gormMetricsWriter{db: gdb},
		repos.Alerts, repos.SyncLogs,
		orchestrator, confSvc, nil,
	)

	deps := &Dependencies{
		Repo: repos,
		Services: &Services{
			Cache:        cache,
			Config:       confSvc,
			Dispatcher:   dispatcher,
			Orchestrator: orchestrator,
			LinkSigner:   auth.NewLinkSigner([]byte("test-secret"), cache),
			SyncJob:      syncJob,
		},
	}

	return NewHandlers(deps), gdb
}

func seedDriver(t *testing.T, db *gormlib.DB, score float64) *gormModels.Driver {
	t.Helper()

	chatID := "chat-100"
	driver := &gormModels.Driver{
		ID:             uuid.NewString(),
		ExternalID:     "ext-100",
		FullName:       "Dana Weber",
		TelegramChatID: &chatID,
		Status:         constants.DriverActive,
	}
	if err := db.Create(driver).Error; err != nil {
		t.Fatalf("Failed to seed driver: %v", err)
	}

	if score >= 0 {
		if err := db.Create(&gormModels.DriverMetrics{
			ID:              uuid.NewString(),
			DriverID:        driver.ID,
			MetricDate:      time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			AcceptanceRate:  0.9,
			CompletionRate:  0.95,
			FeedbackScore:   4.5,
			CalculatedScore: score,
		}).Error; err != nil {
			t.Fatalf("Failed to seed metrics: %v", err)
		}
	}
	return driver
}

func routeWithParam(method, pattern string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)
	return r
}

func TestComputeScore_Success(t *testing.T) {
	handlers, _ := setupTestDeps(t, nil)

	reqBody := requests.ComputeScoreRequest{
		AcceptanceRate:   0.85,
		CancellationRate: 0.1,
		CompletionRate:   0.9,
		FeedbackScore:    4.5,
		TripVolumeIndex:  0.75,
		IdleRatio:        0.2,
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req := httptest.NewRequest("POST", "/api/v1/scoring/compute", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handlers.ComputeScore().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response responses.APIResponse[scoring.Breakdown]
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "success" {
		t.Errorf("Expected status success, got %s", response.Status)
	}
	if response.Data == nil || math.Abs(response.Data.Score-0.86) > 1e-9 {
		t.Errorf("Expected score 0.86, got %+v", response.Data)
	}
	if response.Data.Grade != "B+" {
		t.Errorf("Expected grade B+, got %s", response.Data.Grade)
	}
}

func TestComputeScore_OutOfRangeInput(t *testing.T) {
	handlers, _ := setupTestDeps(t, nil)

	reqBody := requests.ComputeScoreRequest{AcceptanceRate: 1.5}
	bodyBytes, _ := json.Marshal(reqBody)

	req := httptest.NewRequest("POST", "/api/v1/scoring/compute", bytes.NewReader(bodyBytes))
	rr := httptest.NewRecorder()
	handlers.ComputeScore().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestComputeScore_PersistsForDriver(t *testing.T) {
	handlers, db := setupTestDeps(t, nil)
	driver := seedDriver(t, db, -1)

	reqBody := requests.ComputeScoreRequest{
		DriverID:         driver.ID,
		AcceptanceRate:   0.85,
		CancellationRate: 0.1,
		CompletionRate:   0.9,
		FeedbackScore:    4.5,
		TripVolumeIndex:  0.75,
		IdleRatio:        0.2,
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req := httptest.NewRequest("POST", "/api/v1/scoring/compute", bytes.NewReader(bodyBytes))
	rr := httptest.NewRecorder()
	handlers.ComputeScore().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var row gormModels.DriverMetrics
	if err := db.Where("driver_id = ?", driver.ID).First(&row).Error; err != nil {
		t.Fatalf("Expected persisted metrics row: %v", err)
	}
	if math.Abs(row.CalculatedScore-0.86) > 1e-9 {
		t.Errorf("Expected persisted score 0.86, got %v", row.CalculatedScore)
	}
}

func TestGetDriverScore_Success(t *testing.T) {
	handlers, db := setupTestDeps(t, nil)
	driver := seedDriver(t, db, 0.92)

	router := routeWithParam("GET", "/drivers/{driver_id}/score", handlers.GetDriverScore())

	req := httptest.NewRequest("GET", "/drivers/"+driver.ID+"/score", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response responses.APIResponse[responses.DriverScoreResponse]
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Data == nil || response.Data.Grade != "A" {
		t.Errorf("Expected grade A for score 0.92, got %+v", response.Data)
	}
	if response.Data.Category != "excellent" {
		t.Errorf("Expected category excellent, got %s", response.Data.Category)
	}
}

func TestGetDriverScore_UnknownDriver(t *testing.T) {
	handlers, _ := setupTestDeps(t, nil)

	router := routeWithParam("GET", "/drivers/{driver_id}/score", handlers.GetDriverScore())

	req := httptest.NewRequest("GET", "/drivers/missing/score", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestSendAlert_MissingFields(t *testing.T) {
	handlers, _ := setupTestDeps(t, nil)

	bodyBytes, _ := json.Marshal(map[string]string{"driver_id": "d-1"})
	req := httptest.NewRequest("POST", "/api/v1/alerts/send", bytes.NewReader(bodyBytes))
	rr := httptest.NewRecorder()
	handlers.SendAlert().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestSendAlert_DeliversAndRecords(t *testing.T) {
	handlers, db := setupTestDeps(t, nil)
	driver := seedDriver(t, db, 0.5)

	reqBody := alerts.AlertRequest{
		DriverID: driver.ID,
		Reason:   "low_score",
		Priority: constants.PriorityMedium,
		Channels: []constants.AlertChannel{constants.ChannelTelegram},
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req := httptest.NewRequest("POST", "/api/v1/alerts/send", bytes.NewReader(bodyBytes))
	rr := httptest.NewRecorder()
	handlers.SendAlert().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var alertCount int64
	db.Model(&gormModels.Alert{}).Where("driver_id = ?", driver.ID).Count(&alertCount)
	if alertCount != 1 {
		t.Errorf("Expected one alert row, got %d", alertCount)
	}
}

func TestUpdateDriverContacts(t *testing.T) {
	handlers, db := setupTestDeps(t, nil)
	driver := seedDriver(t, db, -1)

	wa := "+491700000001"
	reqBody := requests.UpdateContactsRequest{WhatsAppNumber: &wa}
	bodyBytes, _ := json.Marshal(reqBody)

	router := routeWithParam("PATCH", "/drivers/{driver_id}/contacts", handlers.UpdateDriverContacts())
	req := httptest.NewRequest("PATCH", "/drivers/"+driver.ID+"/contacts", bytes.NewReader(bodyBytes))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var reloaded gormModels.Driver
	if err := db.Where("id = ?", driver.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("Failed to reload driver: %v", err)
	}
	if reloaded.WhatsAppNumber == nil || *reloaded.WhatsAppNumber != wa {
		t.Errorf("Expected whatsapp number to be updated, got %v", reloaded.WhatsAppNumber)
	}
}

func TestTriggerDriverSync(t *testing.T) {
	telemetry := &mockTelemetry{drivers: []dtos.ProviderDriver{
		{DriverID: "ext-1", FirstName: "Ana", LastName: "Ortiz", Status: "enrolled"},
	}}
	handlers, db := setupTestDeps(t, telemetry)

	req := httptest.NewRequest("POST", "/api/v1/admin/jobs/sync-drivers", nil)
	req.Header.Set("X-Triggered-By", "ops@example.com")
	rr := httptest.NewRecorder()
	handlers.TriggerDriverSync().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response responses.APIResponse[responses.SyncRunResponse]
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Data == nil || !response.Data.Success {
		t.Errorf("Expected successful run, got %+v", response.Data)
	}
	if response.Data.DriversProcessed != 1 || response.Data.DriversCreated != 1 {
		t.Errorf("Expected 1 processed / 1 created, got %+v", response.Data)
	}

	var syncLog gormModels.SyncLog
	if err := db.First(&syncLog).Error; err != nil {
		t.Fatalf("Sync log not found: %v", err)
	}
	if syncLog.Trigger != constants.SyncTriggerManual {
		t.Errorf("Expected MANUAL trigger, got %s", syncLog.Trigger)
	}
	if syncLog.TriggeredBy == nil || *syncLog.TriggeredBy != "ops@example.com" {
		t.Errorf("Expected actor to be recorded, got %v", syncLog.TriggeredBy)
	}
}

func TestListSyncLogs_BadLimit(t *testing.T) {
	handlers, _ := setupTestDeps(t, nil)

	req := httptest.NewRequest("GET", "/api/v1/admin/jobs/sync-logs?limit=0", nil)
	rr := httptest.NewRecorder()
	handlers.ListSyncLogs().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestMarkAlertDelivered(t *testing.T) {
	handlers, db := setupTestDeps(t, nil)
	driver := seedDriver(t, db, 0.5)

	reqBody := alerts.AlertRequest{
		DriverID: driver.ID,
		Reason:   "low_score",
		Priority: constants.PriorityMedium,
		Channels: []constants.AlertChannel{constants.ChannelTelegram},
	}
	bodyBytes, _ := json.Marshal(reqBody)
	sendReq := httptest.NewRequest("POST", "/api/v1/alerts/send", bytes.NewReader(bodyBytes))
	sendRR := httptest.NewRecorder()
	handlers.SendAlert().ServeHTTP(sendRR, sendReq)
	if sendRR.Code != http.StatusOK {
		t.Fatalf("Expected status 200 sending, got %d: %s", sendRR.Code, sendRR.Body.String())
	}

	var alert gormModels.Alert
	if err := db.Where("driver_id = ?", driver.ID).First(&alert).Error; err != nil {
		t.Fatalf("Alert row not found: %v", err)
	}

	router := routeWithParam("POST", "/alerts/{alert_id}/delivered", handlers.MarkAlertDelivered())
	req := httptest.NewRequest("POST", "/alerts/"+alert.ID+"/delivered", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var reloaded gormModels.Alert
	if err := db.Where("id = ?", alert.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("Failed to reload alert: %v", err)
	}
	if reloaded.Status != constants.AlertDelivered {
		t.Errorf("Expected status DELIVERED, got %s", reloaded.Status)
	}
	if reloaded.DeliveredAt == nil {
		t.Error("Expected delivered_at to be set")
	}

	// Unknown ids report not found
	req404 := httptest.NewRequest("POST", "/alerts/no-such-alert/delivered", nil)
	rr404 := httptest.NewRecorder()
	router.ServeHTTP(rr404, req404)
	if rr404.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr404.Code)
	}
}
