package reservation

import (
	"fmt"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

// Quote is the priced form of a selection.
type Quote struct {
	Seats []models.BookedSeat
	Total int64
}

// Price resolves each seat's category price and sums them. In strict mode a
// seat whose category is missing fails with ErrUnknownCategory; otherwise it
// is priced at zero.
func Price(seats []models.Seat, categories []models.SeatCategory, strict bool) (Quote, error) {
	prices := make(map[string]int64, len(categories))
	for _, c := range categories {
		prices[c.ID] = c.Price
	}

	q := Quote{Seats: make([]models.BookedSeat, 0, len(seats))}
	for _, seat := range seats {
		price, ok := prices[seat.CategoryID]
		if !ok && strict {
			return Quote{}, fmt.Errorf("seat %s category %q: %w", seat.ID, seat.CategoryID, apperrors.ErrUnknownCategory)
		}
		q.Seats = append(q.Seats, models.BookedSeat{SeatID: seat.ID, Price: price})
		q.Total += price
	}
	return q, nil
}
