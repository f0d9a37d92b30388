package service

import (
	"context"
	"time"

	"eventify/internal/cache"
	"eventify/internal/external"
	"eventify/internal/messaging"
	"eventify/internal/models"
	"eventify/internal/repository"
	"eventify/internal/reservation"
)

// TicketingProvider is the external ticketing API used for provider events.
type TicketingProvider interface {
	GetAllPlaces(ctx context.Context, pageSize int) ([]external.Place, error)
	StartOrder(ctx context.Context) (*external.StartOrderResponse, error)
	SelectPlace(ctx context.Context, placeID, orderID string) error
	SubmitOrder(ctx context.Context, orderID string) error
	ConfirmOrder(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID string) error
}

// PaymentGateway initiates and cancels payments.
type PaymentGateway interface {
	InitPayment(ctx context.Context, amount int64, bookingID, currency, description string) (*external.PaymentInitResponse, error)
	CancelPayment(ctx context.Context, paymentID, reason string) error
}

// SeatHolds leases seats across sessions.
type SeatHolds interface {
	Acquire(ctx context.Context, eventID string, seatIDs []string, owner string) error
	Release(ctx context.Context, eventID string, seatIDs []string, owner string) (int, error)
}

// SeatMapInvalidator drops cached seat maps.
type SeatMapInvalidator interface {
	Invalidate(ctx context.Context, eventIDs ...string) error
}

// EventSearcher is the full-text catalog index.
type EventSearcher interface {
	Search(ctx context.Context, f repository.EventFilter) ([]models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

// BookingRecorder counts booking transitions.
type BookingRecorder interface {
	BookingTransition(status string)
}

// Dependencies are the collaborators of the service layer. Everything but
// Repos is optional.
type Dependencies struct {
	Repos     *repository.Repositories
	Publisher messaging.Publisher
	Ticketing TicketingProvider
	Payment   PaymentGateway
	Holds     SeatHolds
	Search    EventSearcher
	Recorder  BookingRecorder
	Observer  reservation.Observer
	Gauge     SessionGauge

	// SeatMapKV enables the read-through seat map cache.
	SeatMapKV  cache.KV
	SeatMapTTL time.Duration
}

type Options struct {
	Currency       string
	StrictPricing  bool
	SessionIdleTTL time.Duration
	// InlinePayments applies payment notifications directly instead of
	// leaving them to the consumers.
	InlinePayments bool
}

type Services struct {
	Sessions *SessionManager
	SeatMaps *SeatMapProvider
	Bookings *BookingService
	Events   *EventService
	Reset    *ResetService
}

// NewServices wires the service layer.
func NewServices(deps Dependencies, opts Options) *Services {
	if deps.Publisher == nil {
		deps.Publisher = messaging.NopPublisher{}
	}

	provider := NewSeatMapProvider(deps.Repos.Events, deps.Repos.SeatMaps, deps.Ticketing)
	var seatMaps reservation.SeatMapSource = provider
	var invalidator SeatMapInvalidator
	if deps.SeatMapKV != nil {
		cached := cache.NewSeatMapCache(provider, deps.SeatMapKV, deps.SeatMapTTL)
		seatMaps = cached
		invalidator = cached
	}

	bookings := NewBookingService(deps, invalidator, opts.InlinePayments)
	sessions := NewSessionManager(SessionConfig{
		SeatMaps:      seatMaps,
		Bookings:      bookings,
		Currency:      opts.Currency,
		StrictPricing: opts.StrictPricing,
		IdleTTL:       opts.SessionIdleTTL,
		Observer:      deps.Observer,
		Gauge:         deps.Gauge,
	})

	return &Services{
		Sessions: sessions,
		SeatMaps: provider,
		Bookings: bookings,
		Events:   NewEventService(deps.Repos.Events, deps.Search),
		Reset:    NewResetService(deps.Repos.Events, deps.Repos.Bookings, deps.Repos.SeatMaps, invalidator, sessions),
	}
}
