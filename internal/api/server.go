package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/redis/rueidis"

	"eventify/internal/cache"
	"eventify/internal/config"
	"eventify/internal/database"
	"eventify/internal/external"
	"eventify/internal/handlers"
	"eventify/internal/logger"
	"eventify/internal/messaging"
	"eventify/internal/metrics"
	"eventify/internal/middleware"
	"eventify/internal/repository"
	"eventify/internal/search"
	"eventify/internal/service"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	rueidis  rueidis.Client
	redis    *redis.Client
	metrics  *metrics.Metrics
	search   *search.ElasticsearchClient
	services *service.Services
	cancel   context.CancelFunc
}

// NewServer создает новый экземпляр сервера и подключает все настроенные зависимости
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	s := &Server{config: cfg}
	deps := service.Dependencies{}

	repos, err := s.openStorage(ctx)
	if err != nil {
		s.Cleanup()
		return nil, err
	}
	deps.Repos = repos

	if cfg.NATS.Enabled() {
		s.nats, err = messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		deps.Publisher = s.nats
	}

	if cfg.Ticketing.BaseURL != "" {
		deps.Ticketing = external.NewTicketingClient(cfg.Ticketing)
	}
	if cfg.Payment.Enabled() {
		deps.Payment = external.NewPaymentClient(cfg.Payment)
	}

	if cfg.Elasticsearch.URL != "" {
		es, err := search.NewElasticsearchClient(ctx, cfg.Elasticsearch)
		if err != nil {
			// Каталог продолжает работать через хранилище
			logger.Get().Warn("Elasticsearch unavailable, search falls back to storage", "error", err)
		} else {
			s.search = es
			deps.Search = es
		}
	}

	if cfg.Cache.SeatMapCacheEnabled {
		s.rueidis, err = cache.NewRueidisClient(cfg.Cache)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		deps.SeatMapKV = cache.NewRueidisKV(s.rueidis, cfg.Cache.ClientSideCache)
		deps.SeatMapTTL = cfg.Cache.SeatMapTTL
	}

	if cfg.Cache.HoldsEnabled {
		s.redis, err = cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		deps.Holds = cache.NewHoldStore(s.redis, cfg.Cache.HoldTTL)
	}

	if cfg.MetricsEnabled {
		s.metrics = metrics.New()
		deps.Observer = s.metrics
		deps.Gauge = s.metrics
		deps.Recorder = s.metrics
	}

	s.services = service.NewServices(deps, service.Options{
		Currency:       cfg.Currency,
		StrictPricing:  cfg.StrictPricing,
		SessionIdleTTL: cfg.SessionIdleTTL,
		InlinePayments: !cfg.NATS.Enabled(),
	})

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.services.Sessions.Run(runCtx)

	s.router = gin.New()
	s.setupRoutes()

	return s, nil
}

// openStorage выбирает хранилище: PostgreSQL с миграциями или память
func (s *Server) openStorage(ctx context.Context) (*repository.Repositories, error) {
	if s.config.Storage == "memory" {
		logger.Get().Info("Using in-memory storage", "seed", s.config.SeedRand)
		return repository.NewMemoryRepositories(s.config.SeedRand), nil
	}

	db, err := database.Connect(ctx, s.config.Database)
	if err != nil {
		return nil, err
	}
	s.db = db

	if err := db.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repository.NewRepositories(db), nil
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS(s.config.AllowedOrigins))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
		s.router.GET("/metrics", s.metrics.Handler())
	}
	s.router.Use(middleware.Timeout(s.config.RequestTimeout))

	s.router.GET("/health", h.Health)
	s.router.GET("/health/ready", s.readiness)

	api := s.router.Group("/api")

	// Колбэки платежного шлюза приходят без идентификатора пользователя
	payments := api.Group("/payments")
	{
		payments.GET("/success", h.NotifyPaymentCompleted)
		payments.GET("/fail", h.NotifyPaymentFailed)
		payments.POST("/notifications", h.OnPaymentUpdates)
	}

	if s.config.ResetEnabled {
		api.POST("/reset", h.ResetDatabase)
	}

	user := api.Group("")
	user.Use(middleware.UserID())
	{
		events := user.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
			events.GET("/:id/seatmap", h.GetEventSeatMap)
		}

		sessions := user.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.DELETE("/:id", h.DeleteSession)
			sessions.POST("/:id/seatmap", h.LoadSeatMap)
			sessions.POST("/:id/seats/select", h.SelectSeat)
			sessions.POST("/:id/seats/deselect", h.DeselectSeat)
			sessions.DELETE("/:id/seats", h.ClearSelection)
			sessions.POST("/:id/booking", h.CreateBooking)
			sessions.PUT("/:id/step", h.SetStep)
			sessions.DELETE("/:id/error", h.ClearError)
			sessions.GET("/:id/bookings", h.FetchUserBookings)
		}

		bookings := user.Group("/bookings")
		{
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.PATCH("/initiatePayment", h.InitiatePayment)
			bookings.PATCH("/cancel", h.CancelBooking)
		}
	}
}

// readiness проверяет доступность хранилища и поиска
func (s *Server) readiness(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ready", "storage": s.config.Storage}

	if s.db != nil {
		check := s.db.HealthCheck(c.Request.Context())
		body["database"] = check
		if check.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
	}

	if s.search != nil {
		if err := s.search.HealthCheck(c.Request.Context()); err != nil {
			body["search"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			body["search"] = "healthy"
		}
	}

	if status != http.StatusOK {
		body["status"] = "not_ready"
	}
	c.JSON(status, body)
}

// Run запускает HTTP сервер и останавливает его по отмене ctx
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Get().Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Services возвращает сервисный слой
func (s *Server) Services() *service.Services {
	return s.services
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.cancel != nil {
		s.cancel()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.rueidis != nil {
		s.rueidis.Close()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Get().Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
