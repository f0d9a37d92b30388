package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/models"
)

// Step is a stage of the booking workflow.
type Step string

const (
	StepSelection    Step = "selection"
	StepCheckout     Step = "checkout"
	StepConfirmation Step = "confirmation"
)

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepSelection, StepCheckout, StepConfirmation:
		return Step(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, apperrors.ErrInvalidStep)
}

// State is a copy of a session's workflow state.
type State struct {
	Step      Step
	SeatMap   *models.SeatMap
	Selection []models.Seat
	Total     int64
	Currency  string
	Booking   *models.Booking
	Bookings  []models.Booking
	Loading   bool
	Error     string
	// Version changes whenever the seat map or selection changes.
	Version uint64
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers a diagnostics observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithStrictPricing toggles failing bookings on seats with unknown categories.
func WithStrictPricing(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// WithCurrency sets the currency code stamped on bookings.
func WithCurrency(code string) Option {
	return func(s *Session) {
		if code != "" {
			s.currency = code
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides booking id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.newID = gen }
}

// Session owns the seat map, selection and in-progress booking of one user
// flow. All methods are safe for concurrent use; mutations are serialized and
// results of superseded asynchronous calls are dropped.
type Session struct {
	id     string
	userID string

	seatMaps SeatMapSource
	sink     BookingSink
	history  HistorySource

	observer Observer
	strict   bool
	currency string
	now      func() time.Time
	newID    func() string

	mu         sync.Mutex
	step       Step
	seatMap    *models.SeatMap
	selection  []models.Seat
	booking    *models.Booking
	bookings   []models.Booking
	errMsg     string
	version    uint64
	pending    int
	gens       [opKinds]uint64
	rejections int
	lastReject *Rejection
	discarded  int
	lastActive time.Time
}

// NewSession creates a session in the selection step with no seat map.
func NewSession(id, userID string, src Sources, opts ...Option) *Session {
	s := &Session{
		id:       id,
		userID:   userID,
		seatMaps: src.SeatMaps,
		sink:     src.Bookings,
		history:  src.History,
		observer: nopObserver{},
		strict:   true,
		currency: "JPY",
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		step:     StepSelection,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the id of the user owning the session.
func (s *Session) UserID() string { return s.userID }

// State returns a deep copy of the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Step:      s.step,
		SeatMap:   s.seatMap.Clone(),
		Selection: append([]models.Seat{}, s.selection...),
		Currency:  s.currency,
		Booking:   s.booking.Clone(),
		Loading:   s.pending > 0,
		Error:     s.errMsg,
		Version:   s.version,
	}
	for _, b := range s.bookings {
		st.Bookings = append(st.Bookings, *b.Clone())
	}
	if s.seatMap != nil {
		if q, err := Price(s.selection, s.seatMap.Categories, s.strict); err == nil {
			st.Total = q.Total
		}
	}
	return st
}

// Rejections returns how many selection operations were ignored.
func (s *Session) Rejections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejections
}

// LastRejection returns the most recent ignored selection operation.
func (s *Session) LastRejection() (Rejection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReject == nil {
		return Rejection{}, false
	}
	return *s.lastReject, true
}

// Discarded returns how many asynchronous results were dropped as stale.
func (s *Session) Discarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// LastActive reports when the session was last touched.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ClearError resets the error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	s.lastActive = s.now()
}

// LoadSeatMap fetches the seat map of eventID and, on success, replaces the
// whole workflow: selection and booking are dropped and the step returns to
// selection. On failure the previous state is kept and the error recorded.
func (s *Session) LoadSeatMap(ctx context.Context, eventID string) error {
	gen := s.begin(OpSeatMap)

	m, err := s.fetchSeatMap(ctx, eventID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finish(OpSeatMap, gen) {
		return fmt.Errorf("seat map for event %s: %w", eventID, apperrors.ErrSuperseded)
	}
	if err != nil {
		return s.failLocked(fmt.Errorf("failed to load seat map: %w", err))
	}

	s.seatMap = m
	s.selection = nil
	s.booking = nil
	s.step = StepSelection
	s.version++
	// an in-flight booking belongs to the replaced workflow
	s.gens[OpBooking]++

	logger.WithSessionID(s.id).Debug("Seat map loaded", "event_id", eventID, "seat_map_id", m.ID)
	return nil
}

func (s *Session) fetchSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	if s.seatMaps == nil {
		return nil, apperrors.ErrMapUnavailable
	}
	m, err := s.seatMaps.GetSeatMap(ctx, eventID)
	if err != nil {
		return nil, classify(err)
	}
	if m == nil {
		return nil, apperrors.ErrMapUnavailable
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidSeatMap, err)
	}
	if m.EventID != eventID {
		return nil, fmt.Errorf("%w: map %s belongs to event %s", apperrors.ErrInvalidSeatMap, m.ID, m.EventID)
	}
	return m.Clone(), nil
}

// begin issues a new generation for op and marks the session loading.
func (s *Session) begin(op OpKind) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(op)
}

func (s *Session) beginLocked(op OpKind) uint64 {
	s.gens[op]++
	s.pending++
	s.errMsg = ""
	s.lastActive = s.now()
	return s.gens[op]
}

// finish ends a pending call and reports whether its result may be applied.
func (s *Session) finish(op OpKind, gen uint64) bool {
	s.pending--
	s.lastActive = s.now()
	if s.gens[op] != gen {
		s.discarded++
		s.observer.ResultDiscarded(s.id, op)
		logger.WithSessionID(s.id).Debug("Discarding stale result", "op", op.String(), "generation", gen)
		return false
	}
	return true
}

func (s *Session) failLocked(err error) error {
	s.errMsg = apperrors.Message(err)
	return err
}

// classify maps collaborator failures onto the error taxonomy. Anything not
// already categorized is treated as transient.
func classify(err error) error {
	known := []error{
		apperrors.ErrMapUnavailable,
		apperrors.ErrSeatsHeld,
		apperrors.ErrTransientFailure,
		apperrors.ErrInvalidSeatMap,
		apperrors.ErrUnknownCategory,
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", apperrors.ErrTransientFailure, err)
}
