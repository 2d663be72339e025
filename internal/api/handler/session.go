// Package handler provides HTTP handlers for the trailcap API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/api/models"
	"github.com/trailcap/trailcap/internal/api/response"
	"github.com/trailcap/trailcap/internal/session"
	"github.com/trailcap/trailcap/internal/trail"
)

// SessionHandler handles capture session endpoints.
type SessionHandler struct {
	sessions  *session.Manager
	trails    trail.Repository
	publisher trail.Publisher
	logger    zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *session.Manager, trails trail.Repository, publisher trail.Publisher, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		trails:    trails,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateSession handles POST /v1/sessions - open a capture session.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var input models.SessionCreateRequest
	if err := decodeJSON(r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	mode := session.Mode(input.Mode)
	if mode != session.ModeGPS && mode != session.ModeManual {
		response.BadRequest(w, r, "invalid session mode", []models.FieldError{
			{Field: "mode", Message: "must be one of: gps, manual", Code: "invalid_enum"},
		})
		return
	}

	identity, fieldErrs := identityFromRequest(input.Name, input.LocationID, input.Type, input.Difficulty)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid trail identity", fieldErrs)
		return
	}

	var filter trail.FilterConfig
	if input.Filter != nil {
		filter = trail.FilterConfig{
			MaxAccuracyMeters: input.Filter.MaxAccuracyMeters,
			MinInterval:       time.Duration(input.Filter.MinIntervalMs) * time.Millisecond,
			MinDistanceMeters: input.Filter.MinDistanceMeters,
		}
	}

	var initial *session.Sample
	if input.Initial != nil {
		s := sampleFromRequest(*input.Initial)
		initial = &s
	}

	sess, err := h.sessions.Open(mode, identity, filter, initial)
	if err != nil {
		if errors.Is(err, trail.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "initial sample coordinates out of range", nil)
			return
		}
		h.logger.Error().Err(err).Msg("failed to open session")
		response.InternalError(w, r, "failed to open session")
		return
	}

	location := fmt.Sprintf("/v1/sessions/%s", sess.ID())
	response.Created(w, r, location, statusModel(sess.Status()))
}

// GetSession handles GET /v1/sessions/{sessionId} - session status snapshot.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, statusModel(sess.Status()))
}

// IngestSample handles POST /v1/sessions/{sessionId}/samples - submit a
// position sample for admission. A sample rejected by the quality gates is
// not an error; the rejected count in the returned status reflects it.
func (h *SessionHandler) IngestSample(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var input models.SampleRequest
	if err := decodeJSON(r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := sess.Ingest(sampleFromRequest(input)); err != nil {
		switch {
		case errors.Is(err, trail.ErrInvalidCoordinates):
			response.BadRequest(w, r, "coordinates out of range", []models.FieldError{
				{Field: "lat", Message: "latitude must be within [-90, 90]", Code: "out_of_range"},
				{Field: "lon", Message: "longitude must be within [-180, 180]", Code: "out_of_range"},
			})
		case errors.Is(err, trail.ErrTimestampOutOfOrder):
			response.Conflict(w, r, "sample timestamp older than last waypoint")
		case errors.Is(err, session.ErrNotRecording):
			response.Conflict(w, r, "session is not recording")
		default:
			h.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("sample ingest failed")
			response.InternalError(w, r, "sample ingest failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, statusModel(sess.Status()))
}

// PauseSession handles POST /v1/sessions/{sessionId}/pause.
func (h *SessionHandler) PauseSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := sess.Pause(); err != nil {
		response.Conflict(w, r, "session is not recording")
		return
	}
	response.JSON(w, r, http.StatusOK, statusModel(sess.Status()))
}

// ResumeSession handles POST /v1/sessions/{sessionId}/resume.
func (h *SessionHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := sess.Resume(); err != nil {
		response.Conflict(w, r, "session is not paused")
		return
	}
	response.JSON(w, r, http.StatusOK, statusModel(sess.Status()))
}

// RemoveWaypoint handles DELETE /v1/sessions/{sessionId}/waypoints/{index} -
// remove a waypoint from a manual session.
func (h *SessionHandler) RemoveWaypoint(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.BadRequest(w, r, "waypoint index must be an integer", nil)
		return
	}

	if err := sess.RemoveWaypoint(index); err != nil {
		switch {
		case errors.Is(err, session.ErrWrongMode):
			response.Conflict(w, r, "waypoint removal is only available for manual sessions")
		case errors.Is(err, session.ErrInvalidIndex):
			response.NotFound(w, r, "waypoint index out of range")
		default:
			response.Conflict(w, r, "session does not accept waypoint removal in its current state")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, statusModel(sess.Status()))
}

// FinalizeSession handles POST /v1/sessions/{sessionId}/finalize - freeze the
// session into a trail, optionally enriching elevation, then persist and
// announce it.
func (h *SessionHandler) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var input models.FinalizeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &input); err != nil {
			response.BadRequest(w, r, "invalid JSON body", nil)
			return
		}
	}

	identity, fieldErrs := identityFromRequest(input.Name, input.LocationID, input.Type, input.Difficulty)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid trail identity", fieldErrs)
		return
	}

	result, err := sess.Finalize(r.Context(), session.FinalizeOptions{
		Enrich:   input.Enrich,
		Identity: identity,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInsufficientWaypoints):
			response.BadRequest(w, r, "at least 2 waypoints are required to finalize", nil)
		case errors.Is(err, session.ErrFinalizing):
			response.Conflict(w, r, "finalize already in progress")
		case errors.Is(err, session.ErrFinalized):
			response.Conflict(w, r, "session already finalized")
		case errors.Is(err, session.ErrNotRecording):
			response.Conflict(w, r, "session has not started recording")
		default:
			h.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("finalize failed")
			response.InternalError(w, r, "finalize failed")
		}
		return
	}

	if err := h.trails.Create(r.Context(), result.Trail); err != nil {
		h.logger.Error().Err(err).Str("trail_id", result.Trail.ID).Msg("failed to persist trail")
		response.InternalError(w, r, "failed to persist trail")
		return
	}

	// Publishing is best-effort; the trail is already persisted.
	if err := h.publisher.Publish(r.Context(), result.Trail); err != nil {
		h.logger.Error().Err(err).Str("trail_id", result.Trail.ID).Msg("failed to publish trail")
	}

	if err := h.sessions.Remove(sess.ID()); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		h.logger.Warn().Err(err).Str("session_id", sess.ID()).Msg("failed to untrack finalized session")
	}

	location := fmt.Sprintf("/v1/trails/%s", result.Trail.ID)
	response.Created(w, r, location, models.FinalizeResponse{
		Trail:      trailModel(result.Trail),
		Enrichment: enrichmentModel(result.Enrichment),
	})
}

// AbandonSession handles DELETE /v1/sessions/{sessionId} - discard a session
// and everything it captured.
func (h *SessionHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		response.BadRequest(w, r, "sessionId is required", nil)
		return
	}

	if err := h.sessions.Remove(sessionID); err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			response.NotFound(w, r, "session not found")
		case errors.Is(err, session.ErrFinalizing):
			response.Conflict(w, r, "finalize in progress")
		default:
			h.logger.Error().Err(err).Str("session_id", sessionID).Msg("abandon failed")
			response.InternalError(w, r, "abandon failed")
		}
		return
	}
	response.NoContent(w, r)
}

// lookup resolves the session from the URL, writing the error response on
// failure.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		response.BadRequest(w, r, "sessionId is required", nil)
		return nil, false
	}

	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		response.NotFound(w, r, "session not found")
		return nil, false
	}
	return sess, true
}

// identityFromRequest validates the caller-supplied identity fields. Empty
// type and difficulty are allowed; the session's defaults apply.
func identityFromRequest(name, locationID, typeStr, difficultyStr string) (session.Identity, []models.FieldError) {
	identity := session.Identity{
		Name:       name,
		LocationID: locationID,
	}

	var fieldErrs []models.FieldError
	if typeStr != "" {
		t, ok := trail.ParseType(typeStr)
		if !ok {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "type",
				Message: "must be one of: hiking, mountain_biking, dirt_biking, offroading",
				Code:    "invalid_enum",
			})
		}
		identity.Type = t
	}
	if difficultyStr != "" {
		d, ok := trail.ParseDifficulty(difficultyStr)
		if !ok {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "difficulty",
				Message: "must be one of: easy, moderate, hard, expert",
				Code:    "invalid_enum",
			})
		}
		identity.Difficulty = d
	}
	return identity, fieldErrs
}
