package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/middleware"
	"fleetpulse/backend/internal/models/dtos/requests"
	"fleetpulse/backend/internal/models/dtos/responses"
	"fleetpulse/backend/internal/scoring"
)

const scoreLinkTTL = 15 * time.Minute

var (
	errLoadDriver     = errors.New("failed to load driver")
	errDriverNotFound = errors.New("driver not found")
	errLoadMetrics    = errors.New("failed to load metrics")
	errNoMetrics      = errors.New("no metrics recorded for driver")
)

// GetDriverScore handles GET /drivers/{driver_id}/score
func (h *Handlers) GetDriverScore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "driver_id")

		resp, status, err := h.buildScoreResponse(r, driverID)
		if err != nil {
			respondWithError(w, status, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}

// GetDriverAlerts handles GET /drivers/{driver_id}/alerts
func (h *Handlers) GetDriverAlerts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "driver_id")

		rows, err := h.deps.Repo.Alerts.ListByDriver(r.Context(), driverID, 50)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load alerts")
			return
		}

		entries := make([]responses.DriverAlertEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, responses.DriverAlertEntry{
				AlertID:   row.ID,
				Priority:  row.Priority,
				Reason:    row.Reason,
				Message:   row.Message,
				Status:    row.Status,
				Channels:  row.Channels,
				CreatedAt: row.CreatedAt,
				SentAt:    row.SentAt,
			})
		}

		respondWithSuccess(w, http.StatusOK, &entries)
	}
}

// UpdateDriverContacts handles PATCH /drivers/{driver_id}/contacts.
// Contact and status fields are owned by this manual flow; reconciliation
// never clears them.
func (h *Handlers) UpdateDriverContacts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "driver_id")

		var req requests.UpdateContactsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		updates := map[string]interface{}{}
		if req.Phone != nil {
			updates["phone"] = *req.Phone
		}
		if req.TelegramChatID != nil {
			updates["telegram_chat_id"] = *req.TelegramChatID
		}
		if req.WhatsAppNumber != nil {
			updates["whatsapp_number"] = *req.WhatsAppNumber
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.Status != nil {
			status := constants.DriverStatus(*req.Status)
			if status != constants.DriverActive && status != constants.DriverInactive && status != constants.DriverSuspended {
				respondWithError(w, http.StatusBadRequest, "Invalid driver status")
				return
			}
			updates["status"] = status
		}

		if len(updates) == 0 {
			respondWithError(w, http.StatusBadRequest, "No fields to update")
			return
		}

		if err := h.deps.Repo.Drivers.UpdateContacts(r.Context(), driverID, updates); err != nil {
			respondWithError(w, http.StatusNotFound, "Driver not found")
			return
		}

		driver, err := h.deps.Repo.Drivers.FindByID(r.Context(), driverID)
		if err != nil || driver == nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to reload driver")
			return
		}
		respondWithSuccess(w, http.StatusOK, driver)
	}
}

// GenerateScoreLink handles POST /drivers/{driver_id}/score-link. The
// returned token opens the public score report once within its TTL.
func (h *Handlers) GenerateScoreLink() http.HandlerFunc {
	type linkResponse struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "driver_id")

		driver, err := h.deps.Repo.Drivers.FindByID(r.Context(), driverID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load driver")
			return
		}
		if driver == nil {
			respondWithError(w, http.StatusNotFound, "Driver not found")
			return
		}

		token, err := h.deps.Services.LinkSigner.Generate(driverID, scoreLinkTTL)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to sign link")
			return
		}

		respondWithSuccess(w, http.StatusOK, &linkResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(scoreLinkTTL),
		})
	}
}

// PublicScoreReport handles GET /public/score. The driver id comes from
// the validated link token, never from the request path.
func (h *Handlers) PublicScoreReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := middleware.ScoreLinkFromContext(r.Context())
		if link == nil {
			respondWithError(w, http.StatusUnauthorized, "Missing link grant")
			return
		}

		resp, status, err := h.buildScoreResponse(r, link.DriverID)
		if err != nil {
			respondWithError(w, status, err.Error())
			return
		}
		respondWithSuccess(w, http.StatusOK, resp)
	}
}

func (h *Handlers) buildScoreResponse(r *http.Request, driverID string) (*responses.DriverScoreResponse, int, error) {
	ctx := r.Context()

	driver, err := h.deps.Repo.Drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, http.StatusInternalServerError, errLoadDriver
	}
	if driver == nil {
		return nil, http.StatusNotFound, errDriverNotFound
	}

	latest, err := h.deps.Repo.Metrics.LatestByDriver(ctx, driverID)
	if err != nil {
		return nil, http.StatusInternalServerError, errLoadMetrics
	}
	if latest == nil {
		return nil, http.StatusNotFound, errNoMetrics
	}

	resp := &responses.DriverScoreResponse{
		DriverID:   driver.ID,
		FullName:   driver.FullName,
		MetricDate: latest.MetricDate,
		Score:      latest.CalculatedScore,
		Grade:      scoring.GradeForScore(latest.CalculatedScore),
		Category:   scoring.CategoryForScore(latest.CalculatedScore),
	}

	// A breakdown only exists for rows scored from the six normalized
	// metrics. Analytics-sourced rows carry a score computed from raw
	// counters, so a recomputed breakdown would not match it.
	weights := h.deps.Services.Config.ScoringWeights(ctx)
	breakdown, err := scoring.ComputeScore(scoring.MetricsInput{
		AcceptanceRate:   latest.AcceptanceRate,
		CancellationRate: latest.CancellationRate,
		CompletionRate:   latest.CompletionRate,
		FeedbackScore:    latest.FeedbackScore,
		TripVolumeIndex:  latest.TripVolumeIndex,
		IdleRatio:        latest.IdleRatio,
	}, weights)
	if err == nil && math.Abs(breakdown.Score-latest.CalculatedScore) < 1e-6 {
		resp.Breakdown = breakdown
	}

	return resp, http.StatusOK, nil
}
