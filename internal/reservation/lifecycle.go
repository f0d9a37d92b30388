package reservation

import (
	"context"
	"fmt"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/models"
)

// CreateBooking prices the current selection, hands a pending booking to the
// sink and moves the workflow to checkout. With an empty selection it fails
// with ErrEmptySelection and the step stays where it was. Each successful
// call produces a booking with a new id; earlier bookings are never changed.
func (s *Session) CreateBooking(ctx context.Context) (*models.Booking, error) {
	s.mu.Lock()
	if len(s.selection) == 0 {
		err := s.failLocked(apperrors.ErrEmptySelection)
		s.mu.Unlock()
		return nil, err
	}
	if s.seatMap == nil {
		err := s.failLocked(apperrors.ErrMapUnavailable)
		s.mu.Unlock()
		return nil, err
	}
	quote, err := Price(s.selection, s.seatMap.Categories, s.strict)
	if err != nil {
		err = s.failLocked(fmt.Errorf("failed to price selection: %w", err))
		s.mu.Unlock()
		return nil, err
	}

	now := s.now()
	booking := &models.Booking{
		ID:          s.newID(),
		EventID:     s.seatMap.EventID,
		UserID:      s.userID,
		Seats:       quote.Seats,
		TotalAmount: quote.Total,
		Currency:    s.currency,
		Status:      models.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	gen := s.beginLocked(OpBooking)
	s.mu.Unlock()

	if s.sink != nil {
		err = s.sink.SubmitBooking(ctx, booking.Clone())
	}

	s.mu.Lock()
	if !s.finish(OpBooking, gen) {
		s.mu.Unlock()
		if err == nil && s.sink != nil {
			s.withdraw(ctx, booking)
		}
		return nil, fmt.Errorf("booking %s: %w", booking.ID, apperrors.ErrSuperseded)
	}
	defer s.mu.Unlock()
	if err != nil {
		return nil, s.failLocked(fmt.Errorf("failed to submit booking: %w", classify(err)))
	}

	s.booking = booking
	s.step = StepCheckout

	logger.WithSessionID(s.id).Info("Booking created",
		"booking_id", booking.ID,
		"event_id", booking.EventID,
		"seats", len(booking.Seats),
		"total_amount", booking.TotalAmount)
	return booking.Clone(), nil
}

// withdraw hands back a booking the sink accepted after the session stopped
// waiting for it, so its seats do not stay reserved.
func (s *Session) withdraw(ctx context.Context, booking *models.Booking) {
	if err := s.sink.WithdrawBooking(ctx, booking.Clone()); err != nil {
		logger.WithSessionID(s.id).Error("Failed to withdraw superseded booking",
			"booking_id", booking.ID,
			"error", err)
	}
}

// SetStep moves the workflow to step without checking the order of steps.
func (s *Session) SetStep(step Step) error {
	if _, err := ParseStep(string(step)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	s.lastActive = s.now()
	return nil
}
