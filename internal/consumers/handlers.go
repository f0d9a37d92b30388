package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/models"
)

// PaymentApplier applies payment outcomes to bookings.
type PaymentApplier interface {
	ConfirmPayment(ctx context.Context, bookingID, paymentID string) error
	FailPayment(ctx context.Context, bookingID, reason string) error
}

// SeatMapInvalidator drops cached seat maps.
type SeatMapInvalidator interface {
	Invalidate(ctx context.Context, eventIDs ...string) error
}

// Handlers decode NATS messages and apply them. A returned error leaves the
// message unacknowledged so NATS Streaming redelivers it after AckWait.
type Handlers struct {
	payments PaymentApplier
	cache    SeatMapInvalidator
}

func NewHandlers(payments PaymentApplier, cache SeatMapInvalidator) *Handlers {
	return &Handlers{payments: payments, cache: cache}
}

func (h *Handlers) HandlePaymentCompleted(ctx context.Context, data []byte) error {
	var event models.PaymentCompletedEvent
	if !decode(ctx, models.EventPaymentCompleted, data, &event) {
		return nil
	}

	log := logger.WithContext(ctx).With("booking_id", event.BookingID, "payment_id", event.PaymentID)
	log.Info("Processing payment completed event")

	return settle(log, h.payments.ConfirmPayment(ctx, event.BookingID, event.PaymentID))
}

func (h *Handlers) HandlePaymentFailed(ctx context.Context, data []byte) error {
	var event models.PaymentFailedEvent
	if !decode(ctx, models.EventPaymentFailed, data, &event) {
		return nil
	}

	log := logger.WithContext(ctx).With("booking_id", event.BookingID, "payment_id", event.PaymentID)
	log.Info("Processing payment failed event", "reason", event.Reason)

	return settle(log, h.payments.FailPayment(ctx, event.BookingID, event.Reason))
}

// HandleSeatsChanged drops the cached seat map of the affected event.
func (h *Handlers) HandleSeatsChanged(ctx context.Context, data []byte) error {
	var event models.SeatsChangedEvent
	if !decode(ctx, "seats", data, &event) {
		return nil
	}

	logger.WithContext(ctx).Info("Processing seats changed event",
		"event_id", event.EventID, "status", event.Status, "seats", len(event.SeatIDs))

	if h.cache == nil {
		return nil
	}
	return h.cache.Invalidate(ctx, event.EventID)
}

func (h *Handlers) HandleBookingCreated(ctx context.Context, data []byte) error {
	var event models.BookingCreatedEvent
	if !decode(ctx, models.EventBookingCreated, data, &event) {
		return nil
	}

	logger.WithContext(ctx).Info("Processing booking created event",
		"booking_id", event.BookingID,
		"event_id", event.EventID,
		"seats", len(event.SeatIDs),
		"total_amount", event.TotalAmount)
	return nil
}

func (h *Handlers) HandleBookingCancelled(ctx context.Context, data []byte) error {
	var event models.BookingCancelledEvent
	if !decode(ctx, models.EventBookingCancelled, data, &event) {
		return nil
	}

	logger.WithContext(ctx).Info("Processing booking cancelled event",
		"booking_id", event.BookingID,
		"event_id", event.EventID,
		"reason", event.Reason)
	return nil
}

// decode reports false for malformed payloads, which are acknowledged and
// dropped since redelivery cannot fix them.
func decode(ctx context.Context, subject string, data []byte, v interface{}) bool {
	if err := json.Unmarshal(data, v); err != nil {
		logger.WithContext(ctx).Error("Failed to unmarshal event", "error", err, "event_type", subject)
		return false
	}
	return true
}

// settle acknowledges outcomes that a retry would not change.
func settle(log *slog.Logger, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrBookingNotFound), errors.Is(err, apperrors.ErrInvalidBookingState):
		log.Warn("Dropping payment event", "error", err)
		return nil
	default:
		return err
	}
}
