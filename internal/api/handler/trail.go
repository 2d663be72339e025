package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/api/models"
	"github.com/trailcap/trailcap/internal/api/response"
	"github.com/trailcap/trailcap/internal/trail"
)

// TrailHandler handles finalized trail endpoints.
type TrailHandler struct {
	trails trail.Repository
	logger zerolog.Logger
}

// NewTrailHandler creates a new TrailHandler.
func NewTrailHandler(trails trail.Repository, logger zerolog.Logger) *TrailHandler {
	return &TrailHandler{trails: trails, logger: logger}
}

// ListTrails handles GET /v1/trails - list finalized trails.
func (h *TrailHandler) ListTrails(w http.ResponseWriter, r *http.Request) {
	opts := trail.ListOptions{
		LocationID: r.URL.Query().Get("locationId"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.BadRequest(w, r, "limit must be a positive integer", nil)
			return
		}
		opts.Limit = limit
	}

	trails, err := h.trails.List(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list trails")
		response.InternalError(w, r, "failed to list trails")
		return
	}

	items := make([]models.Trail, 0, len(trails))
	for _, t := range trails {
		items = append(items, trailModel(t))
	}

	limit := opts.Limit
	if limit == 0 {
		limit = 50
	}
	response.JSON(w, r, http.StatusOK, models.PagedTrails{
		Items: items,
		Meta:  models.PagedResponseMeta{Limit: limit},
	})
}

// GetTrail handles GET /v1/trails/{trailId}.
func (h *TrailHandler) GetTrail(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, trailModel(t))
}

// GetTrailGPX handles GET /v1/trails/{trailId}/gpx - download the GPX export.
func (h *TrailHandler) GetTrailGPX(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+t.ID+`.gpx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(t.GPX))
}

// DeleteTrail handles DELETE /v1/trails/{trailId}.
func (h *TrailHandler) DeleteTrail(w http.ResponseWriter, r *http.Request) {
	trailID := chi.URLParam(r, "trailId")
	if trailID == "" {
		response.BadRequest(w, r, "trailId is required", nil)
		return
	}

	if err := h.trails.Delete(r.Context(), trailID); err != nil {
		if errors.Is(err, trail.ErrTrailNotFound) {
			response.NotFound(w, r, "trail not found")
			return
		}
		h.logger.Error().Err(err).Str("trail_id", trailID).Msg("failed to delete trail")
		response.InternalError(w, r, "failed to delete trail")
		return
	}
	response.NoContent(w, r)
}

func (h *TrailHandler) lookup(w http.ResponseWriter, r *http.Request) (*trail.Trail, bool) {
	trailID := chi.URLParam(r, "trailId")
	if trailID == "" {
		response.BadRequest(w, r, "trailId is required", nil)
		return nil, false
	}

	t, err := h.trails.Get(r.Context(), trailID)
	if err != nil {
		if errors.Is(err, trail.ErrTrailNotFound) {
			response.NotFound(w, r, "trail not found")
			return nil, false
		}
		h.logger.Error().Err(err).Str("trail_id", trailID).Msg("failed to load trail")
		response.InternalError(w, r, "failed to load trail")
		return nil, false
	}
	return t, true
}
