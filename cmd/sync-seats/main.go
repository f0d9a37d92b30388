package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"eventify/internal/cache"
	"eventify/internal/config"
	"eventify/internal/database"
	apperrors "eventify/internal/errors"
	"eventify/internal/external"
	"eventify/internal/logger"
	"eventify/internal/models"
	"eventify/internal/repository"
)

const pageSize = 1000

// PlaceSource lists every place of the provider hall.
type PlaceSource interface {
	GetAllPlaces(ctx context.Context, pageSize int) ([]external.Place, error)
}

// Invalidator drops cached seat maps.
type Invalidator interface {
	Invalidate(ctx context.Context, eventIDs ...string) error
}

// Syncer stores a snapshot of the provider seat map so catalog seat counts
// reflect the external hall.
type Syncer struct {
	events   repository.EventStore
	seatMaps repository.SeatMapStore
	places   PlaceSource
	cache    Invalidator
}

func main() {
	var eventID string
	flag.StringVar(&eventID, "event-id", "", "External event ID to sync seats for")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	if eventID == "" || cfg.Ticketing.BaseURL == "" {
		log.Error("Both -event-id and TICKETING_SERVICE_URL are required")
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	s := &Syncer{
		events:   repository.NewEventRepository(db),
		seatMaps: repository.NewSeatMapRepository(db),
		places:   external.NewTicketingClient(cfg.Ticketing),
	}

	if cfg.Cache.SeatMapCacheEnabled {
		client, err := cache.NewRueidisClient(cfg.Cache)
		if err != nil {
			log.Error("Failed to connect to Valkey", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		s.cache = cache.NewSeatMapCache(s.seatMaps, cache.NewRueidisKV(client, false), cfg.Cache.SeatMapTTL)
	}

	if _, err := s.Sync(ctx, eventID); err != nil {
		log.Error("Seat synchronization failed", "error", err)
		os.Exit(1)
	}
	log.Info("Seat synchronization completed successfully")
}

// Sync pulls the provider places of an external event and saves them as the
// event's seat map.
func (s *Syncer) Sync(ctx context.Context, eventID string) (*models.SeatMap, error) {
	log := logger.WithFields("event_id", eventID)
	start := time.Now()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.External {
		return nil, fmt.Errorf("event %s is not served by the ticketing provider", eventID)
	}

	log.Info("Fetching places from external service")
	places, err := s.places.GetAllPlaces(ctx, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch places from external service: %w", err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("provider returned no places: %w", apperrors.ErrMapUnavailable)
	}

	seatMap := external.PlacesToSeatMap(eventID, event.Price, places)
	if err := seatMap.Validate(); err != nil {
		return nil, err
	}
	if err := s.seatMaps.SaveSeatMap(ctx, seatMap); err != nil {
		return nil, fmt.Errorf("failed to save seat map: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			log.Warn("Failed to invalidate seat map cache", "error", err)
		}
	}

	total, available := seatMap.CountSeats()
	elapsed := time.Since(start)
	log.Info("Seat synchronization completed",
		"seats_processed", total,
		"available", available,
		"duration", elapsed.String())

	return seatMap, nil
}
