package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "eventify/internal/errors"
	"eventify/internal/external"
	"eventify/internal/logger"
	"eventify/internal/models"
	"eventify/internal/repository"
	"eventify/internal/reservation"
)

// SeatMapSource is what sessions load seat maps from.
type SeatMapSource = reservation.SeatMapSource

const placesPageSize = 1000

// SeatMapProvider resolves the seat map of an event: provider events are
// built from the ticketing service, the rest come from the store.
type SeatMapProvider struct {
	events    repository.EventStore
	store     repository.SeatMapStore
	ticketing TicketingProvider
}

func NewSeatMapProvider(events repository.EventStore, store repository.SeatMapStore, ticketing TicketingProvider) *SeatMapProvider {
	return &SeatMapProvider{
		events:    events,
		store:     store,
		ticketing: ticketing,
	}
}

func (p *SeatMapProvider) GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	event, err := p.events.GetByID(ctx, eventID)
	if errors.Is(err, apperrors.ErrEventNotFound) {
		return nil, fmt.Errorf("event %s: %w", eventID, apperrors.ErrMapUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if event.External {
		return p.externalSeatMap(ctx, event)
	}
	return p.store.GetSeatMap(ctx, eventID)
}

func (p *SeatMapProvider) externalSeatMap(ctx context.Context, event *models.Event) (*models.SeatMap, error) {
	if p.ticketing == nil {
		return nil, fmt.Errorf("event %s: ticketing provider not configured: %w", event.ID, apperrors.ErrMapUnavailable)
	}

	places, err := p.ticketing.GetAllPlaces(ctx, placesPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get external places: %w", err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("event %s: provider returned no places: %w", event.ID, apperrors.ErrMapUnavailable)
	}

	logger.WithContext(ctx).Debug("Built seat map from provider places",
		"event_id", event.ID,
		"places", len(places))
	return external.PlacesToSeatMap(event.ID, event.Price, places), nil
}

// placeIDs maps booked seats to provider place ids.
func (p *SeatMapProvider) placeIDs(ctx context.Context, seatIDs []string) ([]string, error) {
	places, err := p.ticketing.GetAllPlaces(ctx, placesPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get external places: %w", err)
	}
	index := external.PlaceIndex(places)

	ids := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		placeID, ok := index[seatID]
		if !ok {
			return nil, fmt.Errorf("seat %s has no provider place", seatID)
		}
		ids[i] = placeID
	}
	return ids, nil
}
