package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A pooled connection to ":memory:" would get its own empty database;
	// pin tests and ad-hoc tooling to a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS workshops (
            id TEXT PRIMARY KEY,
            owner_user_id TEXT NOT NULL DEFAULT '',
            company_name TEXT NOT NULL,
            latitude REAL NOT NULL,
            longitude REAL NOT NULL,
            address TEXT,
            city TEXT,
            rating REAL NOT NULL DEFAULT 0,
            review_count INTEGER NOT NULL DEFAULT 0,
            is_verified BOOLEAN NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS requests (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL,
            vehicle_id TEXT NOT NULL,
            report_id TEXT NOT NULL,
            description TEXT,
            latitude REAL NOT NULL,
            longitude REAL NOT NULL,
            address TEXT NOT NULL,
            city TEXT NOT NULL,
            postal_code TEXT,
            status TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            expires_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS offers (
            id TEXT PRIMARY KEY,
            request_id TEXT NOT NULL REFERENCES requests(id),
            workshop_id TEXT NOT NULL REFERENCES workshops(id),
            price TEXT NOT NULL,
            estimated_duration_minutes INTEGER NOT NULL,
            warranty TEXT,
            note TEXT,
            available_dates TEXT NOT NULL,
            status TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            request_id TEXT NOT NULL REFERENCES requests(id),
            offer_id TEXT NOT NULL REFERENCES offers(id),
            customer_id TEXT NOT NULL,
            workshop_id TEXT NOT NULL REFERENCES workshops(id),
            scheduled_at DATETIME NOT NULL,
            status TEXT NOT NULL,
            total_amount TEXT NOT NULL,
            commission TEXT NOT NULL,
            workshop_amount TEXT NOT NULL,
            notes TEXT,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS payout_reports (
            id TEXT PRIMARY KEY,
            workshop_id TEXT NOT NULL REFERENCES workshops(id),
            month INTEGER NOT NULL,
            year INTEGER NOT NULL,
            total_jobs INTEGER NOT NULL,
            total_amount TEXT NOT NULL,
            commission TEXT NOT NULL,
            workshop_amount TEXT NOT NULL,
            is_paid BOOLEAN NOT NULL DEFAULT 0,
            paid_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            UNIQUE(workshop_id, month, year)
        )`,

		// Storage-level guarantee for the one-active-offer-per-workshop
		// invariant: the partial unique index makes a race between two
		// concurrent submissions fail on the second insert.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_active
            ON offers(request_id, workshop_id)
            WHERE status IN ('SENT', 'ACCEPTED')`,

		`CREATE INDEX IF NOT EXISTS idx_workshops_owner ON workshops(owner_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_customer ON requests(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_expires ON requests(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_request ON offers(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_workshop ON offers(workshop_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_workshop ON bookings(workshop_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_workshop ON payout_reports(workshop_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// marshalDates serializes offer availability slots for the TEXT column.
func marshalDates(dates []time.Time) (string, error) {
	raw, err := json.Marshal(dates)
	if err != nil {
		return "", fmt.Errorf("failed to marshal available dates: %w", err)
	}
	return string(raw), nil
}

func unmarshalDates(raw string) ([]time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	var dates []time.Time
	if err := json.Unmarshal([]byte(raw), &dates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal available dates: %w", err)
	}
	return dates, nil
}
