package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	connectAttempts = 10
	connectWait     = 2 * time.Second
)

// ─── Connect ──────────────────────────────────────────────────────────────────

// Open connects to Postgres, retrying while the database comes up.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	for i := 0; i < connectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("of", connectAttempts).Msg("waiting for database")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(connectWait):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
	}
	return db, nil
}

// ─── Migrations ───────────────────────────────────────────────────────────────

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS flights (
		id                    TEXT PRIMARY KEY,
		origin                TEXT NOT NULL,
		destination           TEXT NOT NULL,
		price                 NUMERIC(12,2) NOT NULL,
		airline               TEXT NOT NULL,
		airline_code          TEXT,
		flight_number         TEXT,
		departure_time        TEXT NOT NULL,
		arrival_time          TEXT NOT NULL,
		duration              TEXT,
		stops                 INTEGER DEFAULT 0,
		return_departure_time TEXT,
		return_arrival_time   TEXT,
		return_duration       TEXT,
		return_stops          INTEGER DEFAULT 0,
		currency              TEXT DEFAULT 'USD'
	)`,

	`CREATE TABLE IF NOT EXISTS hotels (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		city      TEXT NOT NULL,
		price     NUMERIC(12,2) NOT NULL,
		rating    NUMERIC(3,1) DEFAULT 0,
		location  TEXT,
		type      TEXT,
		room_type TEXT,
		amenities TEXT[],
		currency  TEXT DEFAULT 'USD'
	)`,

	`CREATE TABLE IF NOT EXISTS price_searches (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		request    JSONB NOT NULL,
		result     JSONB NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_flights_route_price
		ON flights(origin, destination, price)`,

	`CREATE INDEX IF NOT EXISTS idx_hotels_city_price
		ON hotels(city, price)`,

	`CREATE INDEX IF NOT EXISTS idx_price_searches_created_at
		ON price_searches(created_at DESC)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
