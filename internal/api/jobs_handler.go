package api

import (
	"net/http"
	"strconv"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/logging"
	"fleetpulse/backend/internal/models/dtos/responses"
)

// TriggerDriverSync handles POST /admin/jobs/sync-drivers. The run is
// synchronous: the reply carries the finished run's counters.
func (h *Handlers) TriggerDriverSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get("X-Triggered-By")
		var actorPtr *string
		if actor != "" {
			actorPtr = &actor
		}

		logging.Info("driver sync manually triggered", "actor", actor)

		stats, err := h.deps.Services.SyncJob.Run(r.Context(), constants.SyncTriggerManual, actorPtr)
		if err != nil && stats == nil {
			// Rejected before a run started (overlap or log failure)
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}

		resp := &responses.SyncRunResponse{
			Success:          stats.Status == constants.SyncSuccess,
			Status:           string(stats.Status),
			DriversProcessed: stats.DriversProcessed,
			DriversCreated:   stats.DriversCreated,
			DriversUpdated:   stats.DriversUpdated,
			Errors:           stats.Errors,
		}

		status := http.StatusOK
		if stats.Status == constants.SyncFailure {
			status = http.StatusBadGateway
		}
		respondWithSuccess(w, status, resp)
	}
}

// ListSyncLogs handles GET /admin/jobs/sync-logs
func (h *Handlers) ListSyncLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 100 {
				respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = parsed
		}

		logs, err := h.deps.Repo.SyncLogs.ListRecent(r.Context(), limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load sync logs")
			return
		}

		respondWithSuccess(w, http.StatusOK, &logs)
	}
}
