package database

import (
	"context"
	"fmt"
	"log/slog"
)

// Migrations lists the schema statements in the order they are applied.
var Migrations = []string{
	createEventsTable,
	createSeatMapsTable,
	createSeatCategoriesTable,
	createSeatSectionsTable,
	createSeatsTable,
	createBookingsTable,
	createBookingSeatsTable,
	createBookingsUserIndex,
	createBookingsStatusIndex,
}

func (db *DB) RunMigrations(ctx context.Context) error {
	slog.Info("Running database migrations...")

	for i, migration := range Migrations {
		slog.Debug("Running migration", "step", i+1)
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully", "count", len(Migrations))
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id VARCHAR(64) PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    organizer VARCHAR(255) NOT NULL DEFAULT '',
    venue_id VARCHAR(64) NOT NULL DEFAULT '',
    venue_name VARCHAR(255) NOT NULL DEFAULT '',
    venue_address VARCHAR(500) NOT NULL DEFAULT '',
    venue_city VARCHAR(100) NOT NULL DEFAULT '',
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ NOT NULL,
    category VARCHAR(50) NOT NULL DEFAULT 'other',
    image_url TEXT,
    price BIGINT NOT NULL DEFAULT 0,
    provider VARCHAR(100) NOT NULL DEFAULT '',
    external BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSeatMapsTable = `
CREATE TABLE IF NOT EXISTS seat_maps (
    id VARCHAR(64) PRIMARY KEY,
    event_id VARCHAR(64) NOT NULL UNIQUE REFERENCES events(id) ON DELETE CASCADE,
    row_count INTEGER NOT NULL DEFAULT 0,
    column_count INTEGER NOT NULL DEFAULT 0
);`

const createSeatCategoriesTable = `
CREATE TABLE IF NOT EXISTS seat_categories (
    seat_map_id VARCHAR(64) NOT NULL REFERENCES seat_maps(id) ON DELETE CASCADE,
    id VARCHAR(64) NOT NULL,
    name VARCHAR(100) NOT NULL,
    price BIGINT NOT NULL CHECK (price >= 0),
    color VARCHAR(16) NOT NULL DEFAULT '',
    PRIMARY KEY (seat_map_id, id)
);`

const createSeatSectionsTable = `
CREATE TABLE IF NOT EXISTS seat_sections (
    seat_map_id VARCHAR(64) NOT NULL REFERENCES seat_maps(id) ON DELETE CASCADE,
    id VARCHAR(64) NOT NULL,
    name VARCHAR(255) NOT NULL,
    rows TEXT[] NOT NULL DEFAULT '{}',
    position INTEGER NOT NULL,
    PRIMARY KEY (seat_map_id, id)
);`

const createSeatsTable = `
CREATE TABLE IF NOT EXISTS seats (
    seat_map_id VARCHAR(64) NOT NULL REFERENCES seat_maps(id) ON DELETE CASCADE,
    id VARCHAR(32) NOT NULL,
    section_id VARCHAR(64) NOT NULL,
    row_label VARCHAR(8) NOT NULL,
    seat_number INTEGER NOT NULL,
    category_id VARCHAR(64) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'available',
    position INTEGER NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (seat_map_id, id),
    FOREIGN KEY (seat_map_id, category_id) REFERENCES seat_categories(seat_map_id, id),
    CHECK (status IN ('available', 'reserved', 'sold'))
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id VARCHAR(64) PRIMARY KEY,
    event_id VARCHAR(64) NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id VARCHAR(64) NOT NULL,
    total_amount BIGINT NOT NULL DEFAULT 0,
    currency VARCHAR(3) NOT NULL DEFAULT 'JPY',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    payment_id VARCHAR(255),
    order_id VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (status IN ('pending', 'confirmed', 'cancelled', 'refunded'))
);`

const createBookingSeatsTable = `
CREATE TABLE IF NOT EXISTS booking_seats (
    booking_id VARCHAR(64) NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    seat_id VARCHAR(32) NOT NULL,
    price BIGINT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (booking_id, seat_id)
);`

const createBookingsUserIndex = `
CREATE INDEX IF NOT EXISTS bookings_user_created_idx
ON bookings (user_id, created_at DESC);`

const createBookingsStatusIndex = `
CREATE INDEX IF NOT EXISTS bookings_status_created_idx
ON bookings (status, created_at);`
