package session

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trailcap/trailcap/internal/elevation"
	"github.com/trailcap/trailcap/internal/trail"
)

// Manager errors.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// ManagerConfig holds shared dependencies for sessions created through the
// manager.
type ManagerConfig struct {
	// Source is the position feed handed to GPS-mode sessions.
	Source PositionSource

	// Enricher is handed to every session for finalization.
	Enricher *elevation.Enricher

	// Logger for session operations.
	Logger zerolog.Logger

	// Metrics records capture instruments. Optional.
	Metrics *CaptureMetrics
}

// Manager owns the live capture sessions, keyed by session ID. Each session
// enforces its own lifecycle; the manager only tracks and hands them out.
type Manager struct {
	cfg ManagerConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session, starts it, and registers it. The optional initial
// sample is admitted immediately.
func (m *Manager) Open(mode Mode, identity Identity, filter trail.FilterConfig, initial *Sample) (*Session, error) {
	s, err := New(Config{
		Mode:     mode,
		Identity: identity,
		Filter:   filter,
		Source:   m.cfg.Source,
		Enricher: m.cfg.Enricher,
		Logger:   m.cfg.Logger,
		Metrics:  m.cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Start(initial); err != nil {
		// The session may already be subscribed to the feed; tear it down
		// so a rejected open leaves nothing behind.
		_ = s.Abandon()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	return s, nil
}

// Get returns a tracked session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove abandons a session and drops it from the registry. Finalized
// sessions are dropped without the abandon (they cannot transition anymore).
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	if err := s.Abandon(); err != nil {
		if errors.Is(err, ErrFinalized) {
			return nil
		}
		if errors.Is(err, ErrFinalizing) {
			// Finalize owns the session; keep tracking it.
			m.mu.Lock()
			m.sessions[id] = s
			m.mu.Unlock()
		}
		return err
	}
	return nil
}

// Count returns the number of tracked sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
