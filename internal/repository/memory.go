package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

// MemoryStore keeps events, seat maps and bookings in process. It backs the
// API when STORAGE=memory and the tests of the upper layers.
type MemoryStore struct {
	mu       sync.RWMutex
	events   map[string]models.Event
	seatMaps map[string]*models.SeatMap
	bookings map[string]*models.Booking
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]models.Event),
		seatMaps: make(map[string]*models.SeatMap),
		bookings: make(map[string]*models.Booking),
		now:      time.Now,
	}
}

// Seed loads the sample catalog with a default seat map per event.
func (m *MemoryStore) Seed(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range SampleEvents() {
		m.events[e.ID] = e
		m.seatMaps[e.ID] = DefaultSeatMap(e.ID, rng)
	}
}

func (m *MemoryStore) Events() EventStore     { return memoryEvents{m} }
func (m *MemoryStore) SeatMaps() SeatMapStore { return memorySeatMaps{m} }
func (m *MemoryStore) Bookings() BookingStore { return memoryBookings{m} }

type memoryEvents struct{ *MemoryStore }

func (s memoryEvents) Create(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}

func (s memoryEvents) GetByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	s.withCounts(&e)
	return &e, nil
}

func (s memoryEvents) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Event{}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	for _, e := range s.events {
		if q != "" && !strings.Contains(strings.ToLower(e.Title+" "+e.Description), q) {
			continue
		}
		if f.Date != "" && e.StartDate.Format("2006-01-02") != f.Date {
			continue
		}
		if f.Category != "" && string(e.Category) != f.Category {
			continue
		}
		s.withCounts(&e)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})

	if f.Page > 0 && f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start >= len(out) {
			return []models.Event{}, nil
		}
		end := min(start+f.PageSize, len(out))
		out = out[start:end]
	}
	return out, nil
}

func (s memoryEvents) withCounts(e *models.Event) {
	if sm, ok := s.seatMaps[e.ID]; ok {
		e.TotalSeats, e.AvailableSeats = sm.CountSeats()
	}
}

type memorySeatMaps struct{ *MemoryStore }

func (s memorySeatMaps) GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, ok := s.seatMaps[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, apperrors.ErrMapUnavailable)
	}
	return sm.Clone(), nil
}

func (s memorySeatMaps) SaveSeatMap(ctx context.Context, sm *models.SeatMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seatMaps[sm.EventID] = sm.Clone()
	return nil
}

func (s memorySeatMaps) ReserveSeats(ctx context.Context, eventID string, seatIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.seatMaps[eventID]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, apperrors.ErrMapUnavailable)
	}
	for _, id := range seatIDs {
		seat, found := sm.FindSeat(id)
		if !found || seat.Status != models.SeatAvailable {
			return fmt.Errorf("event %s seat %s: %w", eventID, id, apperrors.ErrSeatsHeld)
		}
	}
	for _, id := range seatIDs {
		sm.SetStatus(id, models.SeatReserved)
	}
	return nil
}

func (s memorySeatMaps) UpdateSeatStatus(ctx context.Context, eventID string, seatIDs []string, from, to models.SeatStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.seatMaps[eventID]
	if !ok {
		return 0, fmt.Errorf("event %s: %w", eventID, apperrors.ErrMapUnavailable)
	}
	var n int64
	for _, id := range seatIDs {
		if seat, found := sm.FindSeat(id); found && seat.Status == from {
			sm.SetStatus(id, to)
			n++
		}
	}
	return n, nil
}

func (s memorySeatMaps) ResetSeatStatuses(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sm := range s.seatMaps {
		for _, id := range sm.SeatIDsWithStatus(models.SeatSold) {
			n += int64(sm.SetStatus(id, models.SeatAvailable))
		}
		for _, id := range sm.SeatIDsWithStatus(models.SeatReserved) {
			n += int64(sm.SetStatus(id, models.SeatAvailable))
		}
	}
	return n, nil
}

type memoryBookings struct{ *MemoryStore }

func (s memoryBookings) Create(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.bookings[booking.ID]; dup {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (s memoryBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (s memoryBookings) GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.PaymentID != nil && *b.PaymentID == paymentID {
			return b.Clone(), nil
		}
	}
	return nil, apperrors.ErrBookingNotFound
}

func (s memoryBookings) ListByUser(ctx context.Context, userID string, statuses []models.BookingStatus) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool {
		return b.UserID == userID && hasStatus(statuses, b.Status)
	}, true), nil
}

func (s memoryBookings) ListPendingBefore(ctx context.Context, t time.Time) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool {
		return b.Status == models.BookingPending && b.CreatedAt.Before(t)
	}, false), nil
}

func (s memoryBookings) filter(keep func(*models.Booking) bool, newestFirst bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, *b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s memoryBookings) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, from ...models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	if !hasStatus(from, b.Status) {
		return apperrors.ErrInvalidBookingState
	}
	b.Status = status
	b.UpdatedAt = s.now()
	return nil
}

func (s memoryBookings) SetPaymentID(ctx context.Context, id, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	b.PaymentID = &paymentID
	b.UpdatedAt = s.now()
	return nil
}

func (s memoryBookings) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.bookings))
	s.bookings = make(map[string]*models.Booking)
	return n, nil
}

func hasStatus(statuses []models.BookingStatus, s models.BookingStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
