package consumers

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/stan.go"
	"github.com/redis/go-redis/v9"
	"github.com/redis/rueidis"

	"eventify/internal/cache"
	"eventify/internal/config"
	"eventify/internal/database"
	"eventify/internal/external"
	"eventify/internal/logger"
	"eventify/internal/messaging"
	"eventify/internal/models"
	"eventify/internal/repository"
	"eventify/internal/service"
)

const queueGroup = "consumers"

// Subscriber is the queue subscription side of the NATS client.
type Subscriber interface {
	SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error)
}

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	rueidis  rueidis.Client
	redis    *redis.Client
	services *service.Services
	handlers *Handlers
	subs     []stan.Subscription
}

// NewConsumerService connects PostgreSQL and NATS and builds the service
// layer the handlers and jobs work through.
func NewConsumerService(ctx context.Context, cfg *config.Config) (*ConsumerService, error) {
	if !cfg.NATS.Enabled() {
		return nil, errors.New("consumers require NATS_URL")
	}

	cs := &ConsumerService{}
	fail := func(err error) (*ConsumerService, error) {
		cs.Shutdown(ctx)
		return nil, err
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	cs.db = db
	if err := db.RunMigrations(ctx); err != nil {
		return fail(fmt.Errorf("failed to run migrations: %w", err))
	}

	cs.nats, err = messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return fail(err)
	}

	deps := service.Dependencies{
		Repos:     repository.NewRepositories(db),
		Publisher: cs.nats,
	}
	if cfg.Ticketing.BaseURL != "" {
		deps.Ticketing = external.NewTicketingClient(cfg.Ticketing)
	}
	if cfg.Payment.Enabled() {
		deps.Payment = external.NewPaymentClient(cfg.Payment)
	}
	if cfg.Cache.SeatMapCacheEnabled {
		cs.rueidis, err = cache.NewRueidisClient(cfg.Cache)
		if err != nil {
			return fail(err)
		}
		deps.SeatMapKV = cache.NewRueidisKV(cs.rueidis, false)
		deps.SeatMapTTL = cfg.Cache.SeatMapTTL
	}
	if cfg.Cache.HoldsEnabled {
		cs.redis, err = cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			return fail(err)
		}
		deps.Holds = cache.NewHoldStore(cs.redis, cfg.Cache.HoldTTL)
	}

	cs.services = service.NewServices(deps, service.Options{
		Currency:       cfg.Currency,
		StrictPricing:  cfg.StrictPricing,
		InlinePayments: true,
	})

	var invalidator SeatMapInvalidator
	if deps.SeatMapKV != nil {
		invalidator = cache.NewSeatMapCache(cs.services.SeatMaps, deps.SeatMapKV, deps.SeatMapTTL)
	}
	cs.handlers = NewHandlers(cs.services.Bookings, invalidator)

	return cs, nil
}

// Services exposes the service layer to background jobs.
func (cs *ConsumerService) Services() *service.Services {
	return cs.services
}

func (cs *ConsumerService) Start(ctx context.Context) error {
	logger.Get().Info("Starting NATS consumers...")
	subs, err := Subscribe(ctx, cs.nats, cs.handlers)
	cs.subs = subs
	if err != nil {
		return err
	}
	logger.Get().Info("All consumers started successfully", "subscriptions", len(subs))
	return nil
}

// Subscribe registers every handler on its subject in the shared queue group.
func Subscribe(ctx context.Context, sub Subscriber, h *Handlers) ([]stan.Subscription, error) {
	routes := []struct {
		subject string
		handle  func(context.Context, []byte) error
	}{
		{models.EventPaymentCompleted, h.HandlePaymentCompleted},
		{models.EventPaymentFailed, h.HandlePaymentFailed},
		{models.EventSeatsSold, h.HandleSeatsChanged},
		{models.EventSeatsReleased, h.HandleSeatsChanged},
		{models.EventBookingCreated, h.HandleBookingCreated},
		{models.EventBookingCancelled, h.HandleBookingCancelled},
		{models.EventBookingExpired, h.HandleBookingCancelled},
	}

	var subs []stan.Subscription
	for _, r := range routes {
		s, err := sub.SubscribeQueue(r.subject, queueGroup, ackHandler(ctx, r.subject, r.handle))
		if err != nil {
			return subs, fmt.Errorf("failed to subscribe to %s: %w", r.subject, err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}

// ackHandler acknowledges a message once handle succeeds.
func ackHandler(ctx context.Context, subject string, handle func(context.Context, []byte) error) stan.MsgHandler {
	return func(m *stan.Msg) {
		msgCtx := logger.ContextWithRequestID(ctx, fmt.Sprintf("%s-%d", subject, m.Sequence))
		if err := handle(msgCtx, m.Data); err != nil {
			logger.WithContext(msgCtx).Error("Event handling failed, awaiting redelivery",
				"error", err, "event_type", subject, "redelivered", m.Redelivered)
			return
		}
		if err := m.Ack(); err != nil {
			logger.WithContext(msgCtx).Error("Failed to ack message", "error", err, "event_type", subject)
		}
	}
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	logger.Get().Info("Shutting down consumer service...")

	for _, s := range cs.subs {
		if err := s.Close(); err != nil {
			logger.Get().Warn("Error closing subscription", "error", err)
		}
	}

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.rueidis != nil {
		cs.rueidis.Close()
	}

	if cs.redis != nil {
		if err := cs.redis.Close(); err != nil {
			logger.Get().Error("Error closing Valkey connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
