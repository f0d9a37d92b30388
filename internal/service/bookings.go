package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/messaging"
	"eventify/internal/models"
	"eventify/internal/repository"
)

type BookingService struct {
	bookings  repository.BookingStore
	events    repository.EventStore
	seatMaps  repository.SeatMapStore
	provider  *SeatMapProvider
	publisher messaging.Publisher
	ticketing TicketingProvider
	payment   PaymentGateway
	holds     SeatHolds
	cache     SeatMapInvalidator
	recorder  BookingRecorder
	inline    bool
	now       func() time.Time
}

func NewBookingService(deps Dependencies, cache SeatMapInvalidator, inlinePayments bool) *BookingService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &BookingService{
		bookings:  deps.Repos.Bookings,
		events:    deps.Repos.Events,
		seatMaps:  deps.Repos.SeatMaps,
		provider:  NewSeatMapProvider(deps.Repos.Events, deps.Repos.SeatMaps, deps.Ticketing),
		publisher: publisher,
		ticketing: deps.Ticketing,
		payment:   deps.Payment,
		holds:     deps.Holds,
		cache:     cache,
		recorder:  deps.Recorder,
		inline:    inlinePayments,
		now:       time.Now,
	}
}

// SubmitBooking persists a pending booking produced by a session. Seats are
// held first when holds are enabled, then reserved in the store only if they
// are all still available. A conflicting hold or a seat that is already
// reserved or sold fails with ErrSeatsHeld and nothing is stored.
func (s *BookingService) SubmitBooking(ctx context.Context, booking *models.Booking) error {
	log := logger.WithContext(ctx).With("booking_id", booking.ID, "event_id", booking.EventID)
	seatIDs := booking.SeatIDs()

	if s.holds != nil {
		if err := s.holds.Acquire(ctx, booking.EventID, seatIDs, booking.ID); err != nil {
			return err
		}
	}

	event, err := s.events.GetByID(ctx, booking.EventID)
	if errors.Is(err, apperrors.ErrEventNotFound) {
		err = fmt.Errorf("%w: %w", apperrors.ErrMapUnavailable, err)
	}
	if err != nil {
		s.releaseHolds(ctx, booking)
		return fmt.Errorf("failed to get event: %w", err)
	}

	if event.External {
		if err := s.startExternalOrder(ctx, booking); err != nil {
			s.releaseHolds(ctx, booking)
			return err
		}
	} else if err := s.seatMaps.ReserveSeats(ctx, booking.EventID, seatIDs); err != nil {
		s.releaseHolds(ctx, booking)
		s.invalidate(ctx, booking.EventID)
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		s.undoReservation(ctx, booking)
		return fmt.Errorf("failed to create booking: %w", err)
	}
	s.invalidate(ctx, booking.EventID)
	s.record(models.BookingPending)

	s.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:   booking.ID,
		EventID:     booking.EventID,
		UserID:      booking.UserID,
		SeatIDs:     seatIDs,
		TotalAmount: booking.TotalAmount,
		Currency:    booking.Currency,
		Timestamp:   s.now(),
	})

	log.Info("Booking stored", "seats", len(seatIDs), "total_amount", booking.TotalAmount)
	return nil
}

func (s *BookingService) startExternalOrder(ctx context.Context, booking *models.Booking) error {
	if s.ticketing == nil {
		return fmt.Errorf("event %s: ticketing provider not configured: %w", booking.EventID, apperrors.ErrMapUnavailable)
	}

	placeIDs, err := s.provider.placeIDs(ctx, booking.SeatIDs())
	if err != nil {
		return err
	}

	order, err := s.ticketing.StartOrder(ctx)
	if err != nil {
		return fmt.Errorf("failed to start external order: %w", err)
	}

	for _, placeID := range placeIDs {
		if err := s.ticketing.SelectPlace(ctx, placeID, order.OrderID); err != nil {
			s.cancelExternalOrder(ctx, order.OrderID)
			return fmt.Errorf("failed to select external place: %w", err)
		}
	}

	if err := s.ticketing.SubmitOrder(ctx, order.OrderID); err != nil {
		s.cancelExternalOrder(ctx, order.OrderID)
		return fmt.Errorf("failed to submit external order: %w", err)
	}

	booking.OrderID = &order.OrderID
	return nil
}

// undoReservation returns the seats taken by a booking that was never stored.
func (s *BookingService) undoReservation(ctx context.Context, booking *models.Booking) {
	if booking.OrderID != nil {
		if s.ticketing != nil {
			s.cancelExternalOrder(ctx, *booking.OrderID)
		}
	} else if _, err := s.seatMaps.UpdateSeatStatus(ctx, booking.EventID, booking.SeatIDs(), models.SeatReserved, models.SeatAvailable); err != nil {
		logger.WithContext(ctx).Error("Failed to release reserved seats", "error", err, "booking_id", booking.ID)
	}
	s.releaseHolds(ctx, booking)
	s.invalidate(ctx, booking.EventID)
}

func (s *BookingService) cancelExternalOrder(ctx context.Context, orderID string) {
	if err := s.ticketing.CancelOrder(ctx, orderID); err != nil {
		logger.WithContext(ctx).Error("Failed to cancel external order", "error", err, "order_id", orderID)
	}
}

// ListUserBookings returns the user's confirmed, cancelled and refunded
// bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID, models.FinalizedStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

// Get returns a booking of userID.
func (s *BookingService) Get(ctx context.Context, id, userID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.ErrBookingNotFound
	}
	return booking, nil
}

// InitiatePayment registers a payment for a pending booking. Without a
// gateway a local payment id is issued and no redirect url is returned.
func (s *BookingService) InitiatePayment(ctx context.Context, bookingID, userID string) (*models.InitiatePaymentResponse, error) {
	booking, err := s.Get(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingPending {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, apperrors.ErrInvalidBookingState)
	}

	resp := &models.InitiatePaymentResponse{PaymentID: "local-" + uuid.New().String()}
	if s.payment != nil {
		description := fmt.Sprintf("%d seat(s) for event %s", len(booking.Seats), booking.EventID)
		paymentResp, err := s.payment.InitPayment(ctx, booking.TotalAmount, booking.ID, booking.Currency, description)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize payment: %w", err)
		}
		resp.PaymentID = paymentResp.PaymentID
		resp.PaymentURL = paymentResp.PaymentURL
	}

	if err := s.bookings.SetPaymentID(ctx, booking.ID, resp.PaymentID); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.publish(ctx, models.EventPaymentInitiated, models.PaymentInitiatedEvent{
		BookingID:   booking.ID,
		EventID:     booking.EventID,
		TotalAmount: booking.TotalAmount,
		PaymentID:   resp.PaymentID,
		Timestamp:   s.now(),
	})
	return resp, nil
}

// Cancel cancels a pending booking or refunds a confirmed one and releases
// its seats.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID, reason string) error {
	booking, err := s.Get(ctx, bookingID, userID)
	if err != nil {
		return err
	}
	return s.cancel(ctx, booking, reason)
}

func (s *BookingService) cancel(ctx context.Context, booking *models.Booking, reason string) error {
	var status models.BookingStatus
	switch booking.Status {
	case models.BookingPending:
		status = models.BookingCancelled
	case models.BookingConfirmed:
		status = models.BookingRefunded
	default:
		return fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, apperrors.ErrInvalidBookingState)
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, status, booking.Status); err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	s.record(status)

	log := logger.WithContext(ctx).With("booking_id", booking.ID)
	if booking.PaymentID != nil && s.payment != nil && !isLocalPayment(*booking.PaymentID) {
		if err := s.payment.CancelPayment(ctx, *booking.PaymentID, reason); err != nil {
			log.Error("Failed to cancel payment during booking cancellation",
				"error", err,
				"payment_id", *booking.PaymentID)
		}
	}

	s.releaseSeats(ctx, booking, seatStatusOf(booking.Status))

	s.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		Reason:    reason,
		Timestamp: s.now(),
	})

	log.Info("Booking cancelled", "status", status, "reason", reason)
	return nil
}

// seatStatusOf is the status the seats of a booking in status b hold in the
// stored map.
func seatStatusOf(b models.BookingStatus) models.SeatStatus {
	if b == models.BookingConfirmed {
		return models.SeatSold
	}
	return models.SeatReserved
}

// releaseSeats makes the booking's seats available again. Only seats still in
// status from are touched, so seats that were sold to another booking stay
// sold.
func (s *BookingService) releaseSeats(ctx context.Context, booking *models.Booking, from models.SeatStatus) {
	log := logger.WithContext(ctx).With("booking_id", booking.ID)

	if booking.OrderID != nil {
		if s.ticketing != nil {
			s.cancelExternalOrder(ctx, *booking.OrderID)
		}
	} else {
		n, err := s.seatMaps.UpdateSeatStatus(ctx, booking.EventID, booking.SeatIDs(), from, models.SeatAvailable)
		if err != nil {
			log.Error("Failed to release booked seats", "error", err)
		} else if n != int64(len(booking.Seats)) {
			log.Warn("Some booked seats were not released", "released", n, "seats", len(booking.Seats), "expected_status", from)
		}
	}

	s.releaseHolds(ctx, booking)
	s.invalidate(ctx, booking.EventID)

	s.publish(ctx, models.EventSeatsReleased, models.SeatsChangedEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		SeatIDs:   booking.SeatIDs(),
		Status:    models.SeatAvailable,
		Timestamp: s.now(),
	})
}

// HandlePaymentNotification processes a gateway webhook. Outcomes are
// published for the consumers, or applied directly in inline mode.
func (s *BookingService) HandlePaymentNotification(ctx context.Context, notification *models.PaymentNotificationPayload) error {
	log := logger.WithContext(ctx).With("payment_id", notification.PaymentID, "status", notification.Status)
	log.Info("Received payment notification")

	booking, err := s.bookings.GetByPaymentID(ctx, notification.PaymentID)
	if err != nil {
		return err
	}

	switch strings.ToLower(notification.Status) {
	case "completed", "confirmed", "authorized":
		if s.inline {
			return s.ConfirmPayment(ctx, booking.ID, notification.PaymentID)
		}
		s.publish(ctx, models.EventPaymentCompleted, models.PaymentCompletedEvent{
			BookingID: booking.ID,
			PaymentID: notification.PaymentID,
			Timestamp: s.now(),
		})

	case "failed", "rejected", "cancelled", "expired":
		if s.inline {
			return s.FailPayment(ctx, booking.ID, notification.Status)
		}
		s.publish(ctx, models.EventPaymentFailed, models.PaymentFailedEvent{
			BookingID: booking.ID,
			PaymentID: notification.PaymentID,
			Reason:    notification.Status,
			Timestamp: s.now(),
		})

	default:
		log.Warn("Ignoring payment notification with unknown status")
	}
	return nil
}

// ConfirmPayment finalizes a paid booking: it becomes confirmed with the
// payment reference set and its seats are sold. Confirming twice is a no-op.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID, paymentID string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == models.BookingConfirmed {
		return nil
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingConfirmed, models.BookingPending); err != nil {
		if errors.Is(err, apperrors.ErrInvalidBookingState) {
			s.refundLatePayment(ctx, booking, paymentID)
		}
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	if booking.PaymentID == nil || *booking.PaymentID != paymentID {
		if err := s.bookings.SetPaymentID(ctx, booking.ID, paymentID); err != nil {
			return fmt.Errorf("failed to set payment reference: %w", err)
		}
	}
	s.record(models.BookingConfirmed)

	log := logger.WithContext(ctx).With("booking_id", booking.ID, "payment_id", paymentID)
	if booking.OrderID != nil {
		if s.ticketing != nil {
			if err := s.ticketing.ConfirmOrder(ctx, *booking.OrderID); err != nil {
				log.Error("Failed to confirm external order", "error", err, "order_id", *booking.OrderID)
			}
		}
	} else {
		n, err := s.seatMaps.UpdateSeatStatus(ctx, booking.EventID, booking.SeatIDs(), models.SeatReserved, models.SeatSold)
		if err != nil {
			log.Error("Failed to mark seats sold", "error", err)
		} else if n != int64(len(booking.Seats)) {
			log.Error("Confirmed booking holds seats that were not reserved", "sold", n, "seats", len(booking.Seats))
		}
	}
	s.releaseHolds(ctx, booking)
	s.invalidate(ctx, booking.EventID)

	s.publish(ctx, models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		PaymentID: paymentID,
		Timestamp: s.now(),
	})
	s.publish(ctx, models.EventSeatsSold, models.SeatsChangedEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		SeatIDs:   booking.SeatIDs(),
		Status:    models.SeatSold,
		Timestamp: s.now(),
	})

	log.Info("Booking confirmed")
	return nil
}

// refundLatePayment cancels a payment that completed after its booking left
// the pending state, typically because the booking expired first.
func (s *BookingService) refundLatePayment(ctx context.Context, booking *models.Booking, paymentID string) {
	log := logger.WithContext(ctx).With("booking_id", booking.ID, "payment_id", paymentID)
	log.Error("Payment completed for a booking that is no longer pending", "status", booking.Status)

	if s.payment == nil || isLocalPayment(paymentID) {
		return
	}
	if err := s.payment.CancelPayment(ctx, paymentID, "booking "+string(booking.Status)); err != nil {
		log.Error("Failed to refund late payment", "error", err)
		return
	}
	log.Info("Late payment refunded")
}

// WithdrawBooking cancels a booking its session no longer tracks because a
// newer request superseded it.
func (s *BookingService) WithdrawBooking(ctx context.Context, booking *models.Booking) error {
	stored, err := s.bookings.GetByID(ctx, booking.ID)
	if err != nil {
		return err
	}
	if stored.Status != models.BookingPending {
		return nil
	}
	return s.cancel(ctx, stored, "withdrawn")
}

// FailPayment cancels a pending booking whose payment did not go through.
func (s *BookingService) FailPayment(ctx context.Context, bookingID, reason string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingPending {
		return nil
	}
	return s.cancel(ctx, booking, "payment "+reason)
}

// ExpirePending cancels pending bookings older than maxAge.
func (s *BookingService) ExpirePending(ctx context.Context, maxAge time.Duration) (int, error) {
	pending, err := s.bookings.ListPendingBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to list pending bookings: %w", err)
	}

	expired := 0
	for i := range pending {
		booking := &pending[i]
		if err := s.cancel(ctx, booking, "expired"); err != nil {
			if errors.Is(err, apperrors.ErrInvalidBookingState) {
				continue
			}
			logger.WithContext(ctx).Error("Failed to expire booking", "error", err, "booking_id", booking.ID)
			continue
		}
		expired++
		s.publish(ctx, models.EventBookingExpired, models.BookingCancelledEvent{
			BookingID: booking.ID,
			EventID:   booking.EventID,
			Reason:    "expired",
			Timestamp: s.now(),
		})
	}
	return expired, nil
}

func (s *BookingService) releaseHolds(ctx context.Context, booking *models.Booking) {
	if s.holds == nil {
		return
	}
	if _, err := s.holds.Release(ctx, booking.EventID, booking.SeatIDs(), booking.ID); err != nil {
		logger.WithContext(ctx).Error("Failed to release seat holds", "error", err, "booking_id", booking.ID)
	}
}

func (s *BookingService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate seat map cache", "error", err, "event_id", eventID)
	}
}

func (s *BookingService) record(status models.BookingStatus) {
	if s.recorder != nil {
		s.recorder.BookingTransition(string(status))
	}
}

// publish logs failures without failing the operation.
func (s *BookingService) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}

func isLocalPayment(paymentID string) bool {
	return strings.HasPrefix(paymentID, "local-")
}
