package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{db}, nil
}

func runMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS journeys (
			id TEXT PRIMARY KEY,
			destination TEXT NOT NULL,
			departure_date TEXT NOT NULL,
			return_date TEXT NOT NULL,
			activities TEXT,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			id TEXT PRIMARY KEY,
			journey_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			generated_text TEXT NOT NULL,
			source_text_hash TEXT NOT NULL,
			source_text_length INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			edited_at DATETIME,
			edited_text TEXT,
			FOREIGN KEY (journey_id) REFERENCES journeys(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS error_logs (
			id TEXT PRIMARY KEY,
			journey_id TEXT NOT NULL,
			model TEXT NOT NULL,
			source_text_hash TEXT NOT NULL,
			source_text_length INTEGER NOT NULL,
			error_code TEXT NOT NULL,
			error_message TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_journey ON generations(journey_id)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_hash ON generations(source_text_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_error_logs_journey ON error_logs(journey_id)`,
		`CREATE INDEX IF NOT EXISTS idx_error_logs_hash ON error_logs(source_text_hash)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
