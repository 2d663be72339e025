// Package session implements the trail capture state machine: it ingests
// position samples, applies the admission filter, maintains running metrics,
// and finalizes into a Trail record with a GPX export.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/elevation"
	"github.com/trailcap/trailcap/internal/trail"
	"github.com/trailcap/trailcap/pkg/geo"
)

// Caller-sequencing and precondition errors. All are synchronous and leave
// the session in a well-defined state for retry or abandonment.
var (
	ErrAlreadyRecording      = errors.New("session already recording")
	ErrNotRecording          = errors.New("session not recording")
	ErrNotPaused             = errors.New("session not paused")
	ErrWrongMode             = errors.New("operation not valid for session mode")
	ErrInvalidIndex          = errors.New("waypoint index out of range")
	ErrInsufficientWaypoints = errors.New("at least 2 waypoints required")
	ErrFinalizing            = errors.New("finalize in progress")
	ErrFinalized             = errors.New("session already finalized")
)

// State is the session lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StatePaused     State = "paused"
	StateFinalizing State = "finalizing"
	StateFinalized  State = "finalized"
)

// Mode distinguishes live sensor capture from manual drawing.
type Mode string

const (
	ModeGPS    Mode = "gps"
	ModeManual Mode = "manual"
)

// Sample is one raw position sample before admission.
type Sample struct {
	Lat       float64
	Lon       float64
	Elevation *float64
	Accuracy  *float64
	Timestamp time.Time
}

// PositionSource is a push-based position feed. Subscribe registers a
// callback and returns its unsubscribe function; the source delivers samples
// on its own schedule.
type PositionSource interface {
	Subscribe(fn func(Sample)) (unsubscribe func())
}

// Identity carries the caller-supplied trail identity fields.
type Identity struct {
	Name       string
	LocationID string
	Type       trail.Type
	Difficulty trail.Difficulty
}

// Config holds configuration for a capture session.
type Config struct {
	// Mode selects GPS or manual capture. Required.
	Mode Mode

	// Identity is the trail identity, amendable at finalization.
	Identity Identity

	// Filter holds the admission thresholds; zero values take defaults.
	Filter trail.FilterConfig

	// Source is the position feed, required for GPS mode.
	Source PositionSource

	// Enricher performs best-effort elevation enrichment at finalization.
	// Optional; finalize without enrichment when nil.
	Enricher *elevation.Enricher

	// Logger for session operations.
	Logger zerolog.Logger

	// Metrics records capture instruments. Optional.
	Metrics *CaptureMetrics
}

// Snapshot is a point-in-time view of the session, safe to read while
// samples keep arriving.
type Snapshot struct {
	ID            string
	State         State
	Mode          Mode
	WaypointCount int
	RejectedCount int
	Elapsed       time.Duration
	Metrics       trail.Metrics
}

// Result is the outcome of a successful finalization.
type Result struct {
	Trail *trail.Trail

	// Enrichment reports the elevation enrichment outcome; a partial or
	// failed pass is visible here, never as a finalize error.
	Enrichment elevation.Report
}

// FinalizeOptions controls finalization.
type FinalizeOptions struct {
	// Enrich requests elevation enrichment for waypoints lacking it.
	Enrich bool

	// Identity overrides session identity fields when non-zero.
	Identity Identity
}

// Session is the trail capture state machine. One mutex guards the state,
// waypoint list and metrics so a status read never observes a half-appended
// waypoint and a pause cannot interleave with an in-flight ingest.
type Session struct {
	id       string
	mode     Mode
	filter   trail.FilterConfig
	source   PositionSource
	enricher *elevation.Enricher
	logger   zerolog.Logger
	metrics  *CaptureMetrics

	mu          sync.Mutex
	state       State
	identity    Identity
	waypoints   []*trail.Waypoint
	runMetrics  trail.Metrics
	rejected    int
	startedAt   time.Time
	unsubscribe func()
}

// New creates a session in the Idle state.
func New(cfg Config) (*Session, error) {
	if cfg.Mode != ModeGPS && cfg.Mode != ModeManual {
		return nil, errors.New("mode must be gps or manual")
	}
	if cfg.Mode == ModeGPS && cfg.Source == nil {
		return nil, errors.New("gps mode requires a position source")
	}

	id := "ses_" + uuid.New().String()[:22]

	return &Session{
		id:       id,
		mode:     cfg.Mode,
		filter:   cfg.Filter,
		source:   cfg.Source,
		enricher: cfg.Enricher,
		logger:   cfg.Logger.With().Str("session_id", id).Str("mode", string(cfg.Mode)).Logger(),
		metrics:  cfg.Metrics,
		state:    StateIdle,
		identity: cfg.Identity,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the session capture mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Start transitions Idle to Recording. For GPS mode it subscribes to the
// position feed. An optional initial sample (e.g. the current fix) is
// admitted immediately.
func (s *Session) Start(initial *Sample) error {
	s.mu.Lock()

	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}

	s.state = StateRecording
	s.startedAt = time.Now()

	if s.mode == ModeGPS {
		s.unsubscribe = s.source.Subscribe(s.feedSample)
	}

	s.mu.Unlock()

	s.logger.Info().Msg("session started")

	if initial != nil {
		return s.Ingest(*initial)
	}
	return nil
}

// Ingest runs one sample through the admission filter and, on acceptance,
// appends a waypoint and updates metrics in O(1).
//
// For manual sessions, calls outside Recording fail with ErrNotRecording and
// validation failures are errors. For GPS sessions, samples arriving outside
// Recording are dropped without error (the feed is unsubscribed during
// pause; a late delivery is not a caller mistake), and only out-of-range
// coordinates are surfaced as an error. Filter rejections are silent in both
// modes: dropping noise is normal behavior, observable via Status counts.
func (s *Session) Ingest(sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		if s.mode == ModeManual {
			return ErrNotRecording
		}
		return nil
	}

	return s.ingestLocked(sample)
}

// feedSample is the position feed callback. Deliveries racing a pause are
// dropped inside Ingest.
func (s *Session) feedSample(sample Sample) {
	if err := s.Ingest(sample); err != nil {
		s.logger.Debug().Err(err).Msg("feed sample rejected")
	}
}

// ingestLocked applies the admission filter. Caller holds s.mu and has
// verified Recording state.
func (s *Session) ingestLocked(sample Sample) error {
	wp := &trail.Waypoint{
		Lat:       sample.Lat,
		Lon:       sample.Lon,
		Elevation: sample.Elevation,
		Timestamp: sample.Timestamp,
		Accuracy:  sample.Accuracy,
		Manual:    s.mode == ModeManual,
	}

	var last *trail.Waypoint
	if len(s.waypoints) > 0 {
		last = s.waypoints[len(s.waypoints)-1]
	}

	reason := trail.Admit(wp, last, s.filter)
	switch reason {
	case trail.RejectNone:
	case trail.RejectCoordinates:
		return trail.ErrInvalidCoordinates
	case trail.RejectOutOfOrder:
		if s.mode == ModeManual {
			return trail.ErrTimestampOutOfOrder
		}
		s.rejected++
		s.metrics.recordRejected(reason)
		return nil
	default:
		s.rejected++
		s.metrics.recordRejected(reason)
		s.logger.Debug().Str("reason", string(reason)).Msg("sample filtered")
		return nil
	}

	s.waypoints = append(s.waypoints, wp)
	s.runMetrics = trail.UpdateMetrics(s.runMetrics, last, wp)
	s.metrics.recordAdmitted()

	return nil
}

// Pause transitions Recording to Paused. GPS sessions unsubscribe from the
// feed so no samples are silently lost to a suspended consumer.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return ErrNotRecording
	}

	s.state = StatePaused
	s.unsubscribeLocked()

	s.logger.Info().Int("waypoints", len(s.waypoints)).Msg("session paused")
	return nil
}

// Resume transitions Paused to Recording, re-subscribing GPS sessions to the
// feed. Samples delivered while paused are gone; there is no backlog replay.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return ErrNotPaused
	}

	s.state = StateRecording
	if s.mode == ModeGPS {
		s.unsubscribe = s.source.Subscribe(s.feedSample)
	}

	s.logger.Info().Msg("session resumed")
	return nil
}

// RemoveWaypoint removes a manually placed waypoint and rebuilds all metrics
// from scratch: incremental subtraction of elevation gain/loss is not
// algebraically safe after a middle removal.
func (s *Session) RemoveWaypoint(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeManual {
		return ErrWrongMode
	}
	if s.state != StateRecording && s.state != StatePaused {
		return ErrNotRecording
	}
	if index < 0 || index >= len(s.waypoints) {
		return ErrInvalidIndex
	}

	s.waypoints = append(s.waypoints[:index], s.waypoints[index+1:]...)
	s.runMetrics = trail.RecomputeMetrics(s.waypoints)

	s.logger.Debug().Int("index", index).Int("remaining", len(s.waypoints)).Msg("waypoint removed")
	return nil
}

// Abandon discards the session state and returns to Idle, unsubscribing from
// the feed. It fails with ErrFinalizing once a finalize has begun and with
// ErrFinalized afterwards; abandoning an Idle session is a no-op.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateFinalizing:
		return ErrFinalizing
	case StateFinalized:
		return ErrFinalized
	}

	s.unsubscribeLocked()
	s.state = StateIdle
	s.waypoints = nil
	s.runMetrics = trail.Metrics{}
	s.rejected = 0
	s.startedAt = time.Time{}

	s.logger.Info().Msg("session abandoned")
	return nil
}

// Finalize completes the capture: it snapshots the waypoint list under the
// lock, optionally enriches elevations (best-effort, bounded by the
// enricher's timeout), encodes the GPX export, and produces the Trail.
// Requires at least 2 admitted waypoints.
func (s *Session) Finalize(ctx context.Context, opts FinalizeOptions) (*Result, error) {
	s.mu.Lock()

	switch s.state {
	case StateRecording, StatePaused:
	case StateFinalizing:
		s.mu.Unlock()
		return nil, ErrFinalizing
	case StateFinalized:
		s.mu.Unlock()
		return nil, ErrFinalized
	default:
		s.mu.Unlock()
		return nil, ErrNotRecording
	}

	if len(s.waypoints) < 2 {
		s.mu.Unlock()
		return nil, ErrInsufficientWaypoints
	}

	// Snapshot before any blocking work: a concurrent caller can no longer
	// reach the waypoint list once the state is Finalizing.
	s.state = StateFinalizing
	s.unsubscribeLocked()
	waypoints := make([]*trail.Waypoint, len(s.waypoints))
	copy(waypoints, s.waypoints)
	identity := s.identity.merge(opts.Identity)
	startedAt := s.startedAt

	s.mu.Unlock()

	var report elevation.Report
	if opts.Enrich {
		waypoints, report = s.enrich(ctx, waypoints)
	}

	metrics := trail.RecomputeMetrics(waypoints)

	gpxDoc, err := trail.EncodeGPX(waypoints, trail.EncodeOptions{
		Name: identity.Name,
		Type: identity.Type,
	})
	if err != nil {
		// Encoding is deterministic over an admitted waypoint list; a
		// failure here is a programming error, not a recoverable state.
		s.mu.Lock()
		s.state = StatePaused
		s.mu.Unlock()
		return nil, err
	}

	createdAt := waypoints[0].Timestamp
	if createdAt.IsZero() {
		createdAt = startedAt
	}
	now := time.Now()

	t := &trail.Trail{
		ID:         "trl_" + uuid.New().String()[:22],
		Name:       identity.Name,
		LocationID: identity.LocationID,
		Type:       identity.Type,
		Difficulty: identity.Difficulty,
		Waypoints:  waypoints,
		Metrics:    metrics,
		GPX:        gpxDoc,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.state = StateFinalized
	s.waypoints = waypoints
	s.runMetrics = metrics
	s.mu.Unlock()

	s.metrics.recordFinalized()
	s.logger.Info().
		Str("trail_id", t.ID).
		Int("waypoints", len(waypoints)).
		Float64("distance_m", metrics.Distance).
		Int("elevations_resolved", report.Resolved).
		Msg("session finalized")

	return &Result{Trail: t, Enrichment: report}, nil
}

// Status returns a consistent snapshot of the session. Valid in any state
// and safe to call concurrently with Ingest.
func (s *Session) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var elapsed time.Duration
	switch s.state {
	case StateRecording, StatePaused, StateFinalizing:
		elapsed = time.Since(s.startedAt)
	case StateFinalized:
		if s.runMetrics.Duration != nil {
			elapsed = *s.runMetrics.Duration
		}
	}

	return Snapshot{
		ID:            s.id,
		State:         s.state,
		Mode:          s.mode,
		WaypointCount: len(s.waypoints),
		RejectedCount: s.rejected,
		Elapsed:       elapsed,
		Metrics:       s.runMetrics,
	}
}

// enrich fills missing elevations via the enricher, returning a new waypoint
// slice with copies for the points that resolved. Never fails the caller.
func (s *Session) enrich(ctx context.Context, waypoints []*trail.Waypoint) ([]*trail.Waypoint, elevation.Report) {
	if s.enricher == nil {
		missing := countMissing(waypoints)
		return waypoints, elevation.Report{Requested: missing, Failed: missing, Err: elevation.ErrNoProvider}
	}

	var missing []int
	var points []geo.Point
	for i, wp := range waypoints {
		if wp.Elevation == nil {
			missing = append(missing, i)
			points = append(points, wp.Point())
		}
	}
	if len(missing) == 0 {
		return waypoints, elevation.Report{}
	}

	start := time.Now()
	values, report := s.enricher.Enrich(ctx, points)
	s.metrics.recordEnrichment(time.Since(start), report)

	enriched := make([]*trail.Waypoint, len(waypoints))
	copy(enriched, waypoints)
	for j, idx := range missing {
		if values[j] == nil {
			continue
		}
		cp := *waypoints[idx]
		cp.Elevation = values[j]
		enriched[idx] = &cp
	}

	return enriched, report
}

// unsubscribeLocked detaches from the position feed. Caller holds s.mu.
func (s *Session) unsubscribeLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (i Identity) merge(override Identity) Identity {
	if override.Name != "" {
		i.Name = override.Name
	}
	if override.LocationID != "" {
		i.LocationID = override.LocationID
	}
	if override.Type != "" {
		i.Type = override.Type
	}
	if override.Difficulty != "" {
		i.Difficulty = override.Difficulty
	}
	return i
}

func countMissing(waypoints []*trail.Waypoint) int {
	n := 0
	for _, wp := range waypoints {
		if wp.Elevation == nil {
			n++
		}
	}
	return n
}
