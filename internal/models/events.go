package models

import "time"

// NATS Event Types
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
	EventPaymentInitiated = "payment.initiated"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventSeatsSold        = "seats.sold"
	EventSeatsReleased    = "seats.released"
)

// BookingCreatedEvent is published once a pending booking is persisted
type BookingCreatedEvent struct {
	BookingID   string    `json:"booking_id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	SeatIDs     []string  `json:"seat_ids"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

// BookingConfirmedEvent is published when payment completes
type BookingConfirmedEvent struct {
	BookingID string    `json:"booking_id"`
	EventID   string    `json:"event_id"`
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID string    `json:"booking_id"`
	EventID   string    `json:"event_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentInitiatedEvent represents a payment initiation event
type PaymentInitiatedEvent struct {
	BookingID   string    `json:"booking_id"`
	EventID     string    `json:"event_id"`
	TotalAmount int64     `json:"total_amount"`
	PaymentID   string    `json:"payment_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// PaymentCompletedEvent represents a successful payment event
type PaymentCompletedEvent struct {
	BookingID string    `json:"booking_id"`
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed payment event
type PaymentFailedEvent struct {
	BookingID string    `json:"booking_id"`
	PaymentID string    `json:"payment_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatsChangedEvent is published when booked seats are sold or released
type SeatsChangedEvent struct {
	BookingID string     `json:"booking_id"`
	EventID   string     `json:"event_id"`
	SeatIDs   []string   `json:"seat_ids"`
	Status    SeatStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}
