package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventify/internal/database"
	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

type SeatMapRepository struct {
	db *database.DB
}

func NewSeatMapRepository(db *database.DB) *SeatMapRepository {
	return &SeatMapRepository{db: db}
}

// GetSeatMap loads the seat map of an event with its categories, sections and
// seats in their stored order.
func (r *SeatMapRepository) GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	m := &models.SeatMap{EventID: eventID}
	query := `SELECT id, row_count, column_count FROM seat_maps WHERE event_id = $1`
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&m.ID, &m.Rows, &m.Columns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, apperrors.ErrMapUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seat map: %w", err)
	}

	if m.Categories, err = r.categories(ctx, m.ID); err != nil {
		return nil, err
	}
	if m.Sections, err = r.sections(ctx, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *SeatMapRepository) categories(ctx context.Context, mapID string) ([]models.SeatCategory, error) {
	query := `
		SELECT id, name, price, color
		FROM seat_categories
		WHERE seat_map_id = $1
		ORDER BY price DESC, id`

	rows, err := r.db.QueryWithRetry(ctx, query, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seat categories: %w", err)
	}
	defer rows.Close()

	var categories []models.SeatCategory
	for rows.Next() {
		var c models.SeatCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.Color); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SeatMapRepository) sections(ctx context.Context, mapID string) ([]models.Section, error) {
	query := `SELECT id, name, rows FROM seat_sections WHERE seat_map_id = $1 ORDER BY position`
	rows, err := r.db.QueryWithRetry(ctx, query, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seat sections: %w", err)
	}

	var sections []models.Section
	index := make(map[string]int)
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.Name, pq.Array(&s.Rows)); err != nil {
			rows.Close()
			return nil, err
		}
		index[s.ID] = len(sections)
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	query = `
		SELECT id, section_id, row_label, seat_number, status, category_id
		FROM seats
		WHERE seat_map_id = $1
		ORDER BY position`

	seatRows, err := r.db.QueryWithRetry(ctx, query, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}
	defer seatRows.Close()

	for seatRows.Next() {
		var (
			seat      models.Seat
			sectionID string
		)
		if err := seatRows.Scan(&seat.ID, &sectionID, &seat.Row, &seat.Number, &seat.Status, &seat.CategoryID); err != nil {
			return nil, err
		}
		i, ok := index[sectionID]
		if !ok {
			return nil, fmt.Errorf("seat %s references unknown section %s", seat.ID, sectionID)
		}
		sections[i].Seats = append(sections[i].Seats, seat)
	}
	return sections, seatRows.Err()
}

// SaveSeatMap replaces the stored seat map of m.EventID.
func (r *SeatMapRepository) SaveSeatMap(ctx context.Context, m *models.SeatMap) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_maps WHERE event_id = $1`, m.EventID); err != nil {
		return fmt.Errorf("failed to delete seat map: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO seat_maps (id, event_id, row_count, column_count) VALUES ($1, $2, $3, $4)`,
		m.ID, m.EventID, m.Rows, m.Columns)
	if err != nil {
		return fmt.Errorf("failed to insert seat map: %w", err)
	}

	for _, c := range m.Categories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO seat_categories (seat_map_id, id, name, price, color) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, c.ID, c.Name, c.Price, c.Color)
		if err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
	}

	position := 0
	for i, s := range m.Sections {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO seat_sections (seat_map_id, id, name, rows, position) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, s.ID, s.Name, pq.Array(s.Rows), i)
		if err != nil {
			return fmt.Errorf("failed to insert section %s: %w", s.ID, err)
		}

		for _, seat := range s.Seats {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO seats (seat_map_id, id, section_id, row_label, seat_number, category_id, status, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				m.ID, seat.ID, s.ID, seat.Row, seat.Number, seat.CategoryID, seat.Status, position)
			if err != nil {
				return fmt.Errorf("failed to insert seat %s: %w", seat.ID, err)
			}
			position++
		}
	}

	return tx.Commit()
}

const seatTransitionQuery = `
	UPDATE seats SET status = $1, updated_at = NOW()
	WHERE seat_map_id = (SELECT id FROM seat_maps WHERE event_id = $2)
	  AND id = ANY($3)
	  AND status = $4`

// ReserveSeats moves every given seat from available to reserved in one
// transaction. If any seat is no longer available nothing changes and the
// error wraps ErrSeatsHeld.
func (r *SeatMapRepository) ReserveSeats(ctx context.Context, eventID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, seatTransitionQuery, models.SeatReserved, eventID, pq.Array(seatIDs), models.SeatAvailable)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if n != int64(len(seatIDs)) {
		return fmt.Errorf("event %s: %d of %d seats available: %w", eventID, n, len(seatIDs), apperrors.ErrSeatsHeld)
	}
	return tx.Commit()
}

// UpdateSeatStatus moves the given seats that are currently in status from
// to status to and reports how many changed. Seats in any other status are
// left alone.
func (r *SeatMapRepository) UpdateSeatStatus(ctx context.Context, eventID string, seatIDs []string, from, to models.SeatStatus) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, seatTransitionQuery, to, eventID, pq.Array(seatIDs), from)
	if err != nil {
		return 0, fmt.Errorf("failed to update seat status: %w", err)
	}
	return res.RowsAffected()
}

// ResetSeatStatuses makes every stored seat available.
func (r *SeatMapRepository) ResetSeatStatuses(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE seats SET status = 'available', updated_at = NOW() WHERE status <> 'available'`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset seats: %w", err)
	}
	return res.RowsAffected()
}
