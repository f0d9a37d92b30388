package reservation

import (
	"context"

	"eventify/internal/models"
)

// SeatMapSource supplies the authoritative seat map of an event. It returns an
// error wrapping errors.ErrMapUnavailable when the event has no map.
type SeatMapSource interface {
	GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error)
}

// BookingSink accepts pending bookings produced by CreateBooking.
// WithdrawBooking takes back a submitted booking whose result the session
// discarded.
type BookingSink interface {
	SubmitBooking(ctx context.Context, booking *models.Booking) error
	WithdrawBooking(ctx context.Context, booking *models.Booking) error
}

// HistorySource lists a user's bookings.
type HistorySource interface {
	ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

// Sources bundles the collaborators a Session talks to. Bookings and History
// may be nil; a nil sink accepts every booking and a nil history is empty.
type Sources struct {
	SeatMaps SeatMapSource
	Bookings BookingSink
	History  HistorySource
}

// SeatMapSourceFunc adapts a function to SeatMapSource.
type SeatMapSourceFunc func(ctx context.Context, eventID string) (*models.SeatMap, error)

func (f SeatMapSourceFunc) GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	return f(ctx, eventID)
}
