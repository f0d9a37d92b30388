package reservation

import (
	"context"
	"fmt"
	"sort"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

// FetchUserBookings loads the finalized bookings of userID, newest first, and
// stores them on the session. It never touches the seat map or selection.
func (s *Session) FetchUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	gen := s.begin(OpHistory)

	var (
		list []models.Booking
		err  error
	)
	if s.history != nil {
		list, err = s.history.ListUserBookings(ctx, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finish(OpHistory, gen) {
		return nil, fmt.Errorf("history of user %s: %w", userID, apperrors.ErrSuperseded)
	}
	if err != nil {
		return nil, s.failLocked(fmt.Errorf("failed to fetch bookings: %w", classify(err)))
	}

	finalized := make([]models.Booking, 0, len(list))
	for _, b := range list {
		if b.Status.Finalized() {
			finalized = append(finalized, *b.Clone())
		}
	}
	sort.SliceStable(finalized, func(i, j int) bool {
		return finalized[i].CreatedAt.After(finalized[j].CreatedAt)
	})
	s.bookings = finalized

	out := make([]models.Booking, len(finalized))
	for i, b := range finalized {
		out[i] = *b.Clone()
	}
	return out, nil
}
