package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	gormlib "gorm.io/gorm"

	"fleetpulse/backend/internal/alerts"
	"fleetpulse/backend/internal/logging"
)

// SendAlert handles POST /alerts/send
func (h *Handlers) SendAlert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req alerts.AlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.DriverID == "" || req.Reason == "" {
			respondWithError(w, http.StatusBadRequest, "driver_id and reason are required")
			return
		}

		res, err := h.deps.Services.Orchestrator.SendDriverAlert(r.Context(), req)
		if err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		respondWithSuccess(w, http.StatusOK, res)
	}
}

// SendBulkAlerts handles POST /alerts/bulk
func (h *Handlers) SendBulkAlerts() http.HandlerFunc {
	type bulkRequest struct {
		Requests []alerts.AlertRequest `json:"requests"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(req.Requests) == 0 {
			respondWithError(w, http.StatusBadRequest, "No alert requests given")
			return
		}

		results := h.deps.Services.Orchestrator.SendBulkAlerts(r.Context(), req.Requests)
		respondWithSuccess(w, http.StatusOK, &results)
	}
}

// MarkAlertDelivered handles POST /alerts/{alert_id}/delivered, the
// callback path messaging providers hit once a SENT alert reaches the
// driver's device
func (h *Handlers) MarkAlertDelivered() http.HandlerFunc {
	type deliveredResponse struct {
		AlertID string `json:"alert_id"`
		Status  string `json:"status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		alertID := chi.URLParam(r, "alert_id")
		if alertID == "" {
			respondWithError(w, http.StatusBadRequest, "alert_id is required")
			return
		}

		if err := h.deps.Repo.Alerts.MarkDelivered(r.Context(), alertID); err != nil {
			if errors.Is(err, gormlib.ErrRecordNotFound) {
				respondWithError(w, http.StatusNotFound, "No sent alert with that id")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to update alert")
			return
		}

		respondWithSuccess(w, http.StatusOK, &deliveredResponse{
			AlertID: alertID,
			Status:  "DELIVERED",
		})
	}
}

// ProcessAutomaticAlerts handles POST /alerts/process-automatic
func (h *Handlers) ProcessAutomaticAlerts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := h.deps.Services.Orchestrator.ProcessAutomaticAlerts(r.Context())
		if err != nil {
			logging.Error("automatic alert pass failed", "error", err.Error())
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondWithSuccess(w, http.StatusOK, summary)
	}
}
