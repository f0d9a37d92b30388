package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventify/internal/database"
	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.DB{DB: db}, mock
}

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	booking := &models.Booking{
		ID:          "b-1",
		EventID:     "1",
		UserID:      "u-1",
		Seats:       []models.BookedSeat{{SeatID: "A-1", Price: 15000}, {SeatID: "F-2", Price: 7500}},
		TotalAmount: 22500,
		Currency:    "JPY",
		Status:      models.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs("b-1", "1", "u-1", int64(22500), "JPY", models.BookingPending, nil, nil, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_seats")).
		WithArgs("b-1", "A-1", int64(15000), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_seats")).
		WithArgs("b-1", "F-2", int64(7500), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	created := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

	columns := []string{"id", "event_id", "user_id", "total_amount", "currency", "status", "payment_id", "order_id", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND status = ANY($2)")).
		WithArgs("u-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("booking-1", "1", "u-1", int64(30000), "JPY", "confirmed", "pay_123456", nil, created, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_seats WHERE booking_id = $1")).
		WithArgs("booking-1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id", "price"}).
			AddRow("A-5", int64(15000)).
			AddRow("A-6", int64(15000)))

	list, err := repo.ListByUser(context.Background(), "u-1", models.FinalizedStatuses)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BookingConfirmed, list[0].Status)
	require.NotNil(t, list[0].PaymentID)
	assert.Equal(t, "pay_123456", *list[0].PaymentID)
	assert.Equal(t, []string{"A-5", "A-6"}, list[0].SeatIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusWrongState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1")).
		WithArgs(models.BookingConfirmed, "b-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.UpdateStatus(context.Background(), "b-1", models.BookingConfirmed, models.BookingPending)
	assert.ErrorIs(t, err, apperrors.ErrInvalidBookingState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapRepositoryGetSeatMapUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeatMapRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_maps WHERE event_id = $1")).
		WithArgs("404").
		WillReturnRows(sqlmock.NewRows([]string{"id", "row_count", "column_count"}))

	_, err := repo.GetSeatMap(context.Background(), "404")
	assert.ErrorIs(t, err, apperrors.ErrMapUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapRepositoryGetSeatMap(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeatMapRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_maps WHERE event_id = $1")).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "row_count", "column_count"}).AddRow("map-1", 1, 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_categories")).
		WithArgs("map-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "color"}).
			AddRow("standard", "Standard", int64(7500), "#87CEEB"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_sections")).
		WithArgs("map-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rows"}).
			AddRow("section-1", "Main floor", "{A}"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM seats")).
		WithArgs("map-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "section_id", "row_label", "seat_number", "status", "category_id"}).
			AddRow("A-1", "section-1", "A", 1, "available", "standard").
			AddRow("A-2", "section-1", "A", 2, "sold", "standard"))

	m, err := repo.GetSeatMap(context.Background(), "1")
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	require.Len(t, m.Sections, 1)
	assert.Equal(t, []string{"A"}, m.Sections[0].Rows)
	assert.Len(t, m.Sections[0].Seats, 2)
	assert.Equal(t, []string{"A-2"}, m.SeatIDsWithStatus(models.SeatSold))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapRepositoryReserveSeats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeatMapRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = $1")).
		WithArgs(models.SeatReserved, "1", sqlmock.AnyArg(), models.SeatAvailable).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReserveSeats(context.Background(), "1", []string{"A-1", "A-2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapRepositoryReserveSeatsTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeatMapRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("AND status = $4")).
		WithArgs(models.SeatReserved, "1", sqlmock.AnyArg(), models.SeatAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.ReserveSeats(context.Background(), "1", []string{"A-1", "A-2"})
	assert.ErrorIs(t, err, apperrors.ErrSeatsHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapRepositoryReleaseOnlyReserved(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSeatMapRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = $1")).
		WithArgs(models.SeatAvailable, "1", sqlmock.AnyArg(), models.SeatReserved).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.UpdateSeatStatus(context.Background(), "1", []string{"A-1"}, models.SeatReserved, models.SeatAvailable)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
