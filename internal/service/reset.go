package service

import (
	"context"
	"log/slog"

	"eventify/internal/repository"
)

type ResetService struct {
	events   repository.EventStore
	bookings repository.BookingStore
	seatMaps repository.SeatMapStore
	cache    SeatMapInvalidator
	sessions *SessionManager
}

func NewResetService(events repository.EventStore, bookings repository.BookingStore, seatMaps repository.SeatMapStore, cache SeatMapInvalidator, sessions *SessionManager) *ResetService {
	return &ResetService{
		events:   events,
		bookings: bookings,
		seatMaps: seatMaps,
		cache:    cache,
		sessions: sessions,
	}
}

// ResetResult summarizes a reset.
type ResetResult struct {
	Bookings int64 `json:"bookings"`
	Seats    int64 `json:"seats"`
	Sessions int   `json:"sessions"`
}

// ResetDatabase removes all bookings, marks all seats available and drops
// every live session.
func (s *ResetService) ResetDatabase(ctx context.Context) (*ResetResult, error) {
	slog.Info("Starting database reset")
	result := &ResetResult{}

	n, err := s.bookings.DeleteAll(ctx)
	if err != nil {
		slog.Error("Failed to delete all bookings", "error", err)
		return nil, err
	}
	result.Bookings = n
	slog.Info("All bookings deleted successfully", "count", n)

	if result.Seats, err = s.seatMaps.ResetSeatStatuses(ctx); err != nil {
		slog.Error("Failed to reset all seats", "error", err)
		return nil, err
	}
	slog.Info("All seats reset to available", "count", result.Seats)

	if s.cache != nil {
		s.invalidateAll(ctx)
	}
	if s.sessions != nil {
		result.Sessions = s.sessions.DeleteAll()
	}

	slog.Info("Database reset completed successfully")
	return result, nil
}

func (s *ResetService) invalidateAll(ctx context.Context) {
	events, err := s.events.List(ctx, repository.EventFilter{})
	if err != nil {
		slog.Warn("Failed to list events for cache invalidation", "error", err)
		return
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if len(ids) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		slog.Warn("Failed to invalidate seat map cache", "error", err)
	}
}
