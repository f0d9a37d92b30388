package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventify/internal/database"
	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, event_id, user_id, total_amount, currency, status, payment_id, order_id, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *models.Booking) error {
	return row.Scan(
		&b.ID,
		&b.EventID,
		&b.UserID,
		&b.TotalAmount,
		&b.Currency,
		&b.Status,
		&b.PaymentID,
		&b.OrderID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

// Create stores a booking and its seat/price snapshot in one transaction.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (id, event_id, user_id, total_amount, currency, status, payment_id, order_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.EventID,
		booking.UserID,
		booking.TotalAmount,
		booking.Currency,
		booking.Status,
		booking.PaymentID,
		booking.OrderID,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	for i, seat := range booking.Seats {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO booking_seats (booking_id, seat_id, price, position) VALUES ($1, $2, $3, $4)`,
			booking.ID, seat.SeatID, seat.Price, i)
		if err != nil {
			return fmt.Errorf("failed to insert booking seat %s: %w", seat.SeatID, err)
		}
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_id = $1`, paymentID)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg any) (*models.Booking, error) {
	booking := &models.Booking{}
	err := scanBooking(r.db.QueryRowContext(ctx, query, arg), booking)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.Seats, err = r.seats(ctx, booking.ID); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListByUser returns the user's bookings in the given statuses, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, statuses []models.BookingStatus) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC`

	return r.list(ctx, query, userID, pq.Array(statusStrings(statuses)))
}

// ListPendingBefore returns pending bookings created before t, oldest first.
func (r *BookingRepository) ListPendingBefore(ctx context.Context, t time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC`

	return r.list(ctx, query, t)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.QueryWithRetry(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			rows.Close()
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range bookings {
		if bookings[i].Seats, err = r.seats(ctx, bookings[i].ID); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

func (r *BookingRepository) seats(ctx context.Context, bookingID string) ([]models.BookedSeat, error) {
	query := `SELECT seat_id, price FROM booking_seats WHERE booking_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking seats: %w", err)
	}
	defer rows.Close()

	seats := []models.BookedSeat{}
	for rows.Next() {
		var s models.BookedSeat
		if err := rows.Scan(&s.SeatID, &s.Price); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// UpdateStatus moves a booking to status if it is currently in one of from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, from ...models.BookingStatus) error {
	query := `
		UPDATE bookings SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)`

	res, err := r.db.ExecContext(ctx, query, status, id, pq.Array(statusStrings(from)))
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return r.checkAffected(ctx, res, id)
}

func (r *BookingRepository) SetPaymentID(ctx context.Context, id, paymentID string) error {
	query := `UPDATE bookings SET payment_id = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, paymentID, id)
	if err != nil {
		return fmt.Errorf("failed to set payment id: %w", err)
	}
	return r.checkAffected(ctx, res, id)
}

// checkAffected distinguishes a missing booking from one in the wrong state.
func (r *BookingRepository) checkAffected(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrBookingNotFound
	}
	return apperrors.ErrInvalidBookingState
}

// DeleteAll removes every booking. Used by the dev reset endpoint.
func (r *BookingRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	return res.RowsAffected()
}

func statusStrings(statuses []models.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
