package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/reservation"
)

// SessionGauge reports the number of live sessions.
type SessionGauge interface {
	SetActiveSessions(n int)
}

type SessionConfig struct {
	SeatMaps      SeatMapSource
	Bookings      *BookingService
	Currency      string
	StrictPricing bool
	IdleTTL       time.Duration
	Observer      reservation.Observer
	Gauge         SessionGauge
}

// SessionManager owns the reservation sessions of the process.
type SessionManager struct {
	cfg SessionConfig
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*reservation.Session
}

func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &SessionManager{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*reservation.Session),
	}
}

// Create starts a session for userID.
func (m *SessionManager) Create(ctx context.Context, userID string) *reservation.Session {
	opts := []reservation.Option{
		reservation.WithStrictPricing(m.cfg.StrictPricing),
		reservation.WithClock(m.now),
	}
	if m.cfg.Currency != "" {
		opts = append(opts, reservation.WithCurrency(m.cfg.Currency))
	}
	if m.cfg.Observer != nil {
		opts = append(opts, reservation.WithObserver(m.cfg.Observer))
	}

	src := reservation.Sources{SeatMaps: m.cfg.SeatMaps}
	if m.cfg.Bookings != nil {
		src.Bookings = m.cfg.Bookings
		src.History = m.cfg.Bookings
	}

	session := reservation.NewSession(uuid.New().String(), userID, src, opts...)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	n := len(m.sessions)
	m.mu.Unlock()
	m.report(n)

	logger.WithContext(ctx).Info("Session created", "session_id", session.ID(), "user_id", userID)
	return session
}

// Get returns the session owned by userID. Sessions of other users are
// reported as missing.
func (m *SessionManager) Get(id, userID string) (*reservation.Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || session.UserID() != userID {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

func (m *SessionManager) Delete(id, userID string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok || session.UserID() != userID {
		m.mu.Unlock()
		return apperrors.ErrSessionNotFound
	}
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.report(n)
	return nil
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// DeleteAll drops every session.
func (m *SessionManager) DeleteAll() int {
	m.mu.Lock()
	n := len(m.sessions)
	m.sessions = make(map[string]*reservation.Session)
	m.mu.Unlock()
	m.report(0)
	return n
}

// EvictIdle removes sessions untouched for longer than the idle TTL.
func (m *SessionManager) EvictIdle() int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	evicted := 0
	for id, session := range m.sessions {
		if session.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if evicted > 0 {
		m.report(n)
		logger.Get().Info("Evicted idle sessions", "evicted", evicted, "remaining", n)
	}
	return evicted
}

// Run evicts idle sessions until ctx is done.
func (m *SessionManager) Run(ctx context.Context) {
	interval := min(m.cfg.IdleTTL/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

func (m *SessionManager) report(n int) {
	if m.cfg.Gauge != nil {
		m.cfg.Gauge.SetActiveSessions(n)
	}
}
