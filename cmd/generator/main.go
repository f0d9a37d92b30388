package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"eventify/internal/config"
	"eventify/internal/database"
	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/models"
	"eventify/internal/repository"
	"eventify/internal/search"
)

var (
	count         = flag.Int("count", 0, "Number of synthetic events to generate in addition to the sample catalog")
	clearExisting = flag.Bool("clear", false, "Replace existing seat maps instead of skipping them")
	dryRun        = flag.Bool("dry-run", false, "Show what would be generated without making changes")
	seed          = flag.Int64("seed", time.Now().UnixNano(), "Random seed for seat statuses and synthetic events")
	index         = flag.Bool("index", true, "Index generated events in Elasticsearch when ELASTICSEARCH_URL is set")
)

// EventIndexer receives every generated event.
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
}

type Generator struct {
	events   repository.EventStore
	seatMaps repository.SeatMapStore
	indexer  EventIndexer
	rng      *rand.Rand
	clear    bool
	dryRun   bool
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()
	log.Info("Starting event generator...", "count", *count, "seed", *seed)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	g := &Generator{
		events:   repository.NewEventRepository(db),
		seatMaps: repository.NewSeatMapRepository(db),
		rng:      rand.New(rand.NewSource(*seed)),
		clear:    *clearExisting,
		dryRun:   *dryRun,
	}

	if *index && cfg.Elasticsearch.URL != "" {
		es, err := search.NewElasticsearchClient(ctx, cfg.Elasticsearch)
		if err != nil {
			log.Error("Failed to connect to Elasticsearch", "error", err)
			os.Exit(1)
		}
		g.indexer = es
	}

	events := append(repository.SampleEvents(), SyntheticEvents(*count, g.rng)...)
	generated, err := g.Generate(ctx, events)
	if err != nil {
		log.Error("Failed to generate events", "error", err)
		os.Exit(1)
	}

	log.Info("Event generation completed successfully!", "events", len(events), "seat_maps", generated)
}

// Generate stores events with a default seat map each. Events that already
// have a seat map keep it unless clear is set. It returns the number of seat
// maps written.
func (g *Generator) Generate(ctx context.Context, events []models.Event) (int, error) {
	log := logger.Get()
	generated := 0

	for i := range events {
		event := &events[i]

		if !g.clear {
			_, err := g.seatMaps.GetSeatMap(ctx, event.ID)
			if err == nil {
				log.Info("Event already has a seat map, skipping (use -clear to override)", "event_id", event.ID)
				continue
			}
			if !errors.Is(err, apperrors.ErrMapUnavailable) {
				return generated, fmt.Errorf("failed to check seat map of event %s: %w", event.ID, err)
			}
		}

		seatMap := repository.DefaultSeatMap(event.ID, g.rng)
		event.TotalSeats, event.AvailableSeats = seatMap.CountSeats()

		if g.dryRun {
			log.Info("[DRY RUN] Would generate event", "event_id", event.ID, "title", event.Title, "total_seats", event.TotalSeats)
			continue
		}

		if err := g.events.Create(ctx, event); err != nil {
			return generated, err
		}
		if err := g.seatMaps.SaveSeatMap(ctx, seatMap); err != nil {
			return generated, fmt.Errorf("failed to save seat map of event %s: %w", event.ID, err)
		}
		generated++

		if g.indexer != nil {
			if err := g.indexer.IndexEvent(ctx, event); err != nil {
				log.Warn("Failed to index event", "event_id", event.ID, "error", err)
			}
		}

		log.Info("Generated event", "event_id", event.ID, "title", event.Title,
			"total_seats", event.TotalSeats, "available_seats", event.AvailableSeats)
	}

	return generated, nil
}

var (
	categories = []models.EventCategory{
		models.CategoryConference,
		models.CategoryConcert,
		models.CategoryWorkshop,
		models.CategorySports,
		models.CategoryTheater,
		models.CategoryExhibition,
	}
	cities = []string{"Tokyo", "Osaka", "Kyoto", "Sapporo", "Fukuoka"}
	topics = []string{"Jazz", "Go", "Robotics", "Design", "Football", "Opera", "Photography", "Cloud"}
)

// SyntheticEvents builds n catalog events with ids starting at 1000.
func SyntheticEvents(n int, rng *rand.Rand) []models.Event {
	base := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	out := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		category := categories[rng.Intn(len(categories))]
		topic := topics[rng.Intn(len(topics))]
		city := cities[rng.Intn(len(cities))]
		start := base.AddDate(0, 0, rng.Intn(180)).Add(time.Duration(rng.Intn(10)) * time.Hour)

		out = append(out, models.Event{
			ID:          fmt.Sprintf("%d", 1000+i),
			Title:       fmt.Sprintf("%s %s %d", topic, category, i+1),
			Description: fmt.Sprintf("A %s about %s in %s", category, topic, city),
			Organizer:   "Eventify",
			Venue: models.Venue{
				ID:   fmt.Sprintf("v-%d", rng.Intn(50)),
				Name: city + " Hall",
				City: city,
			},
			StartDate: start,
			EndDate:   start.Add(time.Duration(2+rng.Intn(6)) * time.Hour),
			Category:  category,
			Price:     int64(500+rng.Intn(150)) * 10,
		})
	}
	return out
}
