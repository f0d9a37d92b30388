package repository

import (
	"context"
	"time"

	"eventify/internal/database"
	"eventify/internal/models"
)

// SeatMapStore persists seat maps and seat statuses.
type SeatMapStore interface {
	GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error)
	SaveSeatMap(ctx context.Context, m *models.SeatMap) error
	ReserveSeats(ctx context.Context, eventID string, seatIDs []string) error
	UpdateSeatStatus(ctx context.Context, eventID string, seatIDs []string, from, to models.SeatStatus) (int64, error)
	ResetSeatStatuses(ctx context.Context) (int64, error)
}

// BookingStore persists bookings with their seat/price snapshot.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string, statuses []models.BookingStatus) ([]models.Booking, error)
	ListPendingBefore(ctx context.Context, t time.Time) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, from ...models.BookingStatus) error
	SetPaymentID(ctx context.Context, id, paymentID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// EventStore persists catalog events.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, f EventFilter) ([]models.Event, error)
}

type Repositories struct {
	Events   EventStore
	SeatMaps SeatMapStore
	Bookings BookingStore
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:   NewEventRepository(db),
		SeatMaps: NewSeatMapRepository(db),
		Bookings: NewBookingRepository(db),
	}
}

// NewMemoryRepositories returns in-process stores seeded with the sample
// catalog and default seat maps.
func NewMemoryRepositories(seed int64) *Repositories {
	m := NewMemoryStore()
	m.Seed(seed)
	return &Repositories{
		Events:   m.Events(),
		SeatMaps: m.SeatMaps(),
		Bookings: m.Bookings(),
	}
}
