package repository

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

func TestDefaultSeatMapLayout(t *testing.T) {
	m := DefaultSeatMap("1", rand.New(rand.NewSource(42)))
	require.NoError(t, m.Validate())

	total, _ := m.CountSeats()
	assert.Equal(t, 150, total)
	require.Len(t, m.Sections, 2)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, m.Sections[0].Rows)
	assert.Equal(t, []string{"F", "G", "H", "I", "J"}, m.Sections[1].Rows)

	a1, ok := m.FindSeat("A-1")
	require.True(t, ok)
	assert.Equal(t, "vip", a1.CategoryID)
	c15, ok := m.FindSeat("C-15")
	require.True(t, ok)
	assert.Equal(t, "standard", c15.CategoryID)
	j15, ok := m.FindSeat("J-15")
	require.True(t, ok)
	assert.Equal(t, "standard", j15.CategoryID)

	vip, _ := m.Category("vip")
	std, _ := m.Category("standard")
	assert.Equal(t, int64(15000), vip.Price)
	assert.Equal(t, int64(7500), std.Price)
}

func TestDefaultSeatMapWithoutRandomness(t *testing.T) {
	m := DefaultSeatMap("7", nil)
	total, available := m.CountSeats()
	assert.Equal(t, total, available)
	assert.Equal(t, "7", m.EventID)
}

func TestMemorySeatMaps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed(1)
	seatMaps := store.SeatMaps()

	_, err := seatMaps.GetSeatMap(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrMapUnavailable)

	m, err := seatMaps.GetSeatMap(ctx, "1")
	require.NoError(t, err)

	m.SetStatus("A-1", models.SeatSold)
	again, err := seatMaps.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)

	require.NoError(t, seatMaps.SaveSeatMap(ctx, DefaultSeatMap("1", nil)))
	require.NoError(t, seatMaps.ReserveSeats(ctx, "1", []string{"A-1", "A-2"}))
	n, err := seatMaps.UpdateSeatStatus(ctx, "1", []string{"A-1", "A-2"}, models.SeatReserved, models.SeatSold)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	m, err = seatMaps.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "A-2"}, m.SeatIDsWithStatus(models.SeatSold))

	n, err = seatMaps.ResetSeatStatuses(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(2))

	m, err = seatMaps.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, m.SeatIDsWithStatus(models.SeatSold))
}

func TestMemorySeatTransitionsRespectCurrentStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed(1)
	seatMaps := store.SeatMaps()
	require.NoError(t, seatMaps.SaveSeatMap(ctx, DefaultSeatMap("1", nil)))

	require.NoError(t, seatMaps.ReserveSeats(ctx, "1", []string{"A-1"}))
	_, err := seatMaps.UpdateSeatStatus(ctx, "1", []string{"A-1"}, models.SeatReserved, models.SeatSold)
	require.NoError(t, err)

	// A sold seat cannot be reserved again and nothing else in the request changes
	err = seatMaps.ReserveSeats(ctx, "1", []string{"A-2", "A-1"})
	assert.ErrorIs(t, err, apperrors.ErrSeatsHeld)

	// Releasing reserved seats skips the sold one
	n, err := seatMaps.UpdateSeatStatus(ctx, "1", []string{"A-1", "A-2"}, models.SeatReserved, models.SeatAvailable)
	require.NoError(t, err)
	assert.Zero(t, n)

	m, err := seatMaps.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1"}, m.SeatIDsWithStatus(models.SeatSold))
	assert.Empty(t, m.SeatIDsWithStatus(models.SeatReserved))

	assert.ErrorIs(t, seatMaps.ReserveSeats(ctx, "missing", []string{"A-1"}), apperrors.ErrMapUnavailable)
}

func TestMemoryBookings(t *testing.T) {
	ctx := context.Background()
	bookings := NewMemoryStore().Bookings()
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, b := range []models.Booking{
		{ID: "b1", UserID: "u1", Status: models.BookingPending, CreatedAt: t0},
		{ID: "b2", UserID: "u1", Status: models.BookingPending, CreatedAt: t0.Add(time.Hour)},
		{ID: "b3", UserID: "u2", Status: models.BookingPending, CreatedAt: t0.Add(2 * time.Hour)},
	} {
		b := b
		require.NoError(t, bookings.Create(ctx, &b), i)
	}
	assert.Error(t, bookings.Create(ctx, &models.Booking{ID: "b1"}))

	require.NoError(t, bookings.UpdateStatus(ctx, "b1", models.BookingConfirmed, models.BookingPending))
	require.NoError(t, bookings.UpdateStatus(ctx, "b2", models.BookingConfirmed, models.BookingPending))
	assert.ErrorIs(t, bookings.UpdateStatus(ctx, "b1", models.BookingCancelled, models.BookingPending), apperrors.ErrInvalidBookingState)
	assert.ErrorIs(t, bookings.UpdateStatus(ctx, "nope", models.BookingCancelled, models.BookingPending), apperrors.ErrBookingNotFound)

	list, err := bookings.ListByUser(ctx, "u1", models.FinalizedStatuses)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID)
	assert.Equal(t, "b1", list[1].ID)

	pending, err := bookings.ListPendingBefore(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b3", pending[0].ID)

	require.NoError(t, bookings.SetPaymentID(ctx, "b3", "pay-3"))
	byPayment, err := bookings.GetByPaymentID(ctx, "pay-3")
	require.NoError(t, err)
	assert.Equal(t, "b3", byPayment.ID)

	_, err = bookings.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)

	n, err := bookings.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMemoryEvents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed(1)
	events := store.Events()

	all, err := events.List(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, 150, all[0].TotalSeats)

	found, err := events.List(ctx, EventFilter{Query: "music"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2", found[0].ID)

	byDate, err := events.List(ctx, EventFilter{Date: "2025-06-15"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)

	page, err := events.List(ctx, EventFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "2", page[0].ID)

	_, err = events.GetByID(ctx, "99")
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestPrepareSearchQuery(t *testing.T) {
	assert.Equal(t, "summer:* & music:*", prepareSearchQuery("summer  music"))
	assert.Equal(t, "a & b", prepareSearchQuery("a & b"))
	assert.Equal(t, "", prepareSearchQuery("   "))
}
