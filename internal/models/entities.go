package models

import (
	"time"
)

// EventCategory classifies catalog events
type EventCategory string

const (
	CategoryConference EventCategory = "conference"
	CategoryConcert    EventCategory = "concert"
	CategoryWorkshop   EventCategory = "workshop"
	CategorySports     EventCategory = "sports"
	CategoryTheater    EventCategory = "theater"
	CategoryExhibition EventCategory = "exhibition"
	CategoryOther      EventCategory = "other"
)

// Venue represents the place an event is held at
type Venue struct {
	ID      string `json:"id" db:"venue_id"`
	Name    string `json:"name" db:"venue_name"`
	Address string `json:"address" db:"venue_address"`
	City    string `json:"city" db:"venue_city"`
}

// Event represents an event in the catalog
type Event struct {
	ID             string        `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	Description    string        `json:"description" db:"description"`
	Organizer      string        `json:"organizer" db:"organizer"`
	Venue          Venue         `json:"venue"`
	StartDate      time.Time     `json:"start_date" db:"start_date"`
	EndDate        time.Time     `json:"end_date" db:"end_date"`
	Category       EventCategory `json:"category" db:"category"`
	ImageURL       *string       `json:"image_url,omitempty" db:"image_url"`
	Price          int64         `json:"price" db:"price"`
	AvailableSeats int           `json:"available_seats" db:"available_seats"`
	TotalSeats     int           `json:"total_seats" db:"total_seats"`
	Provider       string        `json:"provider,omitempty" db:"provider"`
	External       bool          `json:"external" db:"external"`
}

// BookingStatus is the lifecycle status of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

// Finalized reports whether the booking reached confirmation or a later state
func (s BookingStatus) Finalized() bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingRefunded
}

// FinalizedStatuses lists statuses returned by the history read path
var FinalizedStatuses = []BookingStatus{BookingConfirmed, BookingCancelled, BookingRefunded}

// BookedSeat is the seat/price snapshot taken when a booking is created
type BookedSeat struct {
	SeatID string `json:"id" db:"seat_id"`
	Price  int64  `json:"price" db:"price"`
}

// Booking represents a booking in the system
type Booking struct {
	ID          string        `json:"id" db:"id"`
	EventID     string        `json:"event_id" db:"event_id"`
	UserID      string        `json:"user_id" db:"user_id"`
	Seats       []BookedSeat  `json:"seats"` // Not from bookings table, filled separately
	TotalAmount int64         `json:"total_amount" db:"total_amount"`
	Currency    string        `json:"currency" db:"currency"`
	Status      BookingStatus `json:"status" db:"status"`
	PaymentID   *string       `json:"payment_id,omitempty" db:"payment_id"`
	OrderID     *string       `json:"order_id,omitempty" db:"order_id"` // external provider order
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// SeatIDs returns the booked seat ids in booking order
func (b *Booking) SeatIDs() []string {
	ids := make([]string, len(b.Seats))
	for i, s := range b.Seats {
		ids[i] = s.SeatID
	}
	return ids
}

// Clone returns a copy that does not share the seat slice
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	out := *b
	out.Seats = append([]BookedSeat(nil), b.Seats...)
	if b.PaymentID != nil {
		id := *b.PaymentID
		out.PaymentID = &id
	}
	if b.OrderID != nil {
		id := *b.OrderID
		out.OrderID = &id
	}
	return &out
}
