package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fleetpulse/backend/internal/models/dtos/requests"
	gormModels "fleetpulse/backend/internal/models/gorm"
	"fleetpulse/backend/internal/scoring"
)

// ComputeScore handles POST /scoring/compute. Validation failures come
// back as 400 with the offending field; a request naming a driver also
// persists the result as that driver's row for today.
func (h *Handlers) ComputeScore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requests.ComputeScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		in := scoring.MetricsInput{
			AcceptanceRate:   req.AcceptanceRate,
			CancellationRate: req.CancellationRate,
			CompletionRate:   req.CompletionRate,
			FeedbackScore:    req.FeedbackScore,
			TripVolumeIndex:  req.TripVolumeIndex,
			IdleRatio:        req.IdleRatio,
		}

		weights := h.deps.Services.Config.ScoringWeights(r.Context())
		breakdown, err := scoring.ComputeScore(in, weights)
		if err != nil {
			var verr *scoring.ValidationError
			if errors.As(err, &verr) {
				respondWithError(w, http.StatusBadRequest, verr.Error())
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if req.DriverID != "" {
			if status, err := h.persistScore(r, req, breakdown.Score); err != nil {
				respondWithError(w, status, err.Error())
				return
			}
		}

		respondWithSuccess(w, http.StatusOK, breakdown)
	}
}

func (h *Handlers) persistScore(r *http.Request, req requests.ComputeScoreRequest, score float64) (int, error) {
	ctx := r.Context()

	driver, err := h.deps.Repo.Drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return http.StatusInternalServerError, errLoadDriver
	}
	if driver == nil {
		return http.StatusNotFound, errDriverNotFound
	}

	now := time.Now().UTC()
	row := &gormModels.DriverMetrics{
		DriverID:         driver.ID,
		MetricDate:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		AcceptanceRate:   req.AcceptanceRate,
		CancellationRate: req.CancellationRate,
		CompletionRate:   req.CompletionRate,
		FeedbackScore:    req.FeedbackScore,
		TripVolumeIndex:  req.TripVolumeIndex,
		IdleRatio:        req.IdleRatio,
		CalculatedScore:  score,
	}
	if err := h.deps.Repo.Metrics.Upsert(ctx, row); err != nil {
		return http.StatusInternalServerError, errors.New("failed to persist metrics row")
	}
	return http.StatusOK, nil
}
