package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventify/internal/database"
	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

// EventFilter narrows catalog listings.
type EventFilter struct {
	Query    string
	Date     string // YYYY-MM-DD
	Category string
	Page     int
	PageSize int
}

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Seat counts come from the event's seat map when one exists.
const eventSelect = `
	SELECT e.id, e.title, e.description, e.organizer,
	       e.venue_id, e.venue_name, e.venue_address, e.venue_city,
	       e.start_date, e.end_date, e.category, e.image_url, e.price,
	       e.provider, e.external,
	       COUNT(s.id) FILTER (WHERE s.status = 'available') AS available_seats,
	       COUNT(s.id) AS total_seats
	FROM events e
	LEFT JOIN seat_maps m ON m.event_id = e.id
	LEFT JOIN seats s ON s.seat_map_id = m.id`

func scanEvent(row interface{ Scan(...any) error }, e *models.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Organizer,
		&e.Venue.ID,
		&e.Venue.Name,
		&e.Venue.Address,
		&e.Venue.City,
		&e.StartDate,
		&e.EndDate,
		&e.Category,
		&e.ImageURL,
		&e.Price,
		&e.Provider,
		&e.External,
		&e.AvailableSeats,
		&e.TotalSeats,
	)
}

// Create inserts or updates a catalog event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, title, description, organizer, venue_id, venue_name, venue_address, venue_city,
		                    start_date, end_date, category, image_url, price, provider, external)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
		    title = EXCLUDED.title, description = EXCLUDED.description, organizer = EXCLUDED.organizer,
		    venue_id = EXCLUDED.venue_id, venue_name = EXCLUDED.venue_name,
		    venue_address = EXCLUDED.venue_address, venue_city = EXCLUDED.venue_city,
		    start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, category = EXCLUDED.category,
		    image_url = EXCLUDED.image_url, price = EXCLUDED.price,
		    provider = EXCLUDED.provider, external = EXCLUDED.external`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Organizer,
		event.Venue.ID,
		event.Venue.Name,
		event.Venue.Address,
		event.Venue.City,
		event.StartDate,
		event.EndDate,
		event.Category,
		event.ImageURL,
		event.Price,
		event.Provider,
		event.External,
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	query := eventSelect + ` WHERE e.id = $1 GROUP BY e.id`

	err := scanEvent(r.db.QueryRowContext(ctx, query, id), event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	var args []interface{}
	argIndex := 1
	var searchQueryArgIndex int

	sqlQuery := eventSelect + ` WHERE 1=1`

	if f.Query != "" {
		searchQueryArgIndex = argIndex
		sqlQuery += fmt.Sprintf(" AND to_tsvector('simple', e.title || ' ' || e.description) @@ to_tsquery('simple', $%d)", argIndex)
		args = append(args, prepareSearchQuery(f.Query))
		argIndex++
	}

	if f.Date != "" {
		sqlQuery += fmt.Sprintf(" AND DATE(e.start_date) = $%d", argIndex)
		args = append(args, f.Date)
		argIndex++
	}

	if f.Category != "" {
		sqlQuery += fmt.Sprintf(" AND e.category = $%d", argIndex)
		args = append(args, f.Category)
		argIndex++
	}

	sqlQuery += " GROUP BY e.id"

	if f.Query != "" {
		sqlQuery += fmt.Sprintf(" ORDER BY ts_rank(to_tsvector('simple', e.title || ' ' || e.description), to_tsquery('simple', $%d)) DESC, e.start_date ASC", searchQueryArgIndex)
	} else {
		sqlQuery += " ORDER BY e.start_date ASC, e.id ASC"
	}

	if f.Page > 0 && f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		sqlQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, f.PageSize, offset)
	}

	rows, err := r.db.QueryWithRetry(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// prepareSearchQuery turns free text into a prefix-matching tsquery.
func prepareSearchQuery(query string) string {
	if containsSearchOperators(query) {
		return query
	}

	words := strings.Fields(strings.TrimSpace(query))
	if len(words) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(words))
	for _, word := range words {
		formatted = append(formatted, word+":*")
	}
	return strings.Join(formatted, " & ")
}

func containsSearchOperators(query string) bool {
	return strings.ContainsAny(query, "&|!():*")
}
