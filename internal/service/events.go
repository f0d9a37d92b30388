package service

import (
	"context"
	"fmt"

	"eventify/internal/logger"
	"eventify/internal/models"
	"eventify/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EventService serves the catalog. Full-text queries go to the search index
// when one is configured; seat counts always come from the store.
type EventService struct {
	events repository.EventStore
	search EventSearcher
}

func NewEventService(events repository.EventStore, search EventSearcher) *EventService {
	return &EventService{
		events: events,
		search: search,
	}
}

func (s *EventService) List(ctx context.Context, f repository.EventFilter) ([]models.Event, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	f.PageSize = min(f.PageSize, maxPageSize)

	if f.Query != "" && s.search != nil {
		found, err := s.search.Search(ctx, f)
		if err == nil {
			return s.withCounts(ctx, found), nil
		}
		logger.WithContext(ctx).Warn("Search index unavailable, falling back to store", "error", err)
	}

	events, err := s.events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return s.events.GetByID(ctx, id)
}

// withCounts replaces indexed events by their stored version, which carries
// live seat counts. Events missing from the store are kept as indexed.
func (s *EventService) withCounts(ctx context.Context, found []models.Event) []models.Event {
	out := make([]models.Event, len(found))
	for i, e := range found {
		out[i] = e
		if stored, err := s.events.GetByID(ctx, e.ID); err == nil {
			out[i] = *stored
		}
	}
	return out
}
