package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ewanb/gridpulse/internal/contracts"
	"github.com/ewanb/gridpulse/internal/fuelmix"
	"github.com/ewanb/gridpulse/internal/ingest"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// GenerationHandler handles generation data API endpoints
type GenerationHandler struct {
	repo       *ingest.Repository
	aggregator *fuelmix.Aggregator
	logger     *logger.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(repo *ingest.Repository, aggregator *fuelmix.Aggregator, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{
		repo:       repo,
		aggregator: aggregator,
		logger:     log,
	}
}

// GetByRange returns records within a time range.
// GET /api/generation?from=RFC3339&to=RFC3339 (default: last 24 hours)
func (h *GenerationHandler) GetByRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' parameter (want RFC3339)")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' parameter (want RFC3339)")
			return
		}
		to = parsed
	}

	if !from.Before(to) {
		respondError(w, http.StatusBadRequest, "'from' must be before 'to'")
		return
	}

	records, err := h.repo.GetByRange(ctx, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get generation records")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve generation records")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"from":    from,
		"to":      to,
		"count":   len(records),
		"records": records,
	})
}

// GetLatest returns the full fuel mix of the most recent settlement period.
// GET /api/generation/latest
func (h *GenerationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.GetLatest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest generation")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest generation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// GetLatestMix returns the category breakdown of the most recent period.
// GET /api/mix/latest
func (h *GenerationHandler) GetLatestMix(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.GetLatest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest generation")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest generation")
		return
	}

	mix := h.aggregator.Latest(records)
	if mix == nil {
		respondError(w, http.StatusNotFound, "No generation data available")
		return
	}

	respondJSON(w, http.StatusOK, mix)
}

// GetFuelTypes returns the fuel type to category mapping.
// GET /api/fuel-types
func (h *GenerationHandler) GetFuelTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, contracts.FuelCategories())
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
