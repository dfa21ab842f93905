package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/autopeer-io/leaf/pkg/options"
)

const driverName = "sqlite"

const schemaPlantsReading = `
CREATE TABLE IF NOT EXISTS plants_reading (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plant_name TEXT NOT NULL,
    moisture REAL NOT NULL,
    server_timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plants_reading_plant ON plants_reading (plant_name, id);
`

// Open opens or creates the database file and makes sure the schema exists.
func Open(ctx context.Context, opts *options.SQLiteOptions) (*sql.DB, error) {
	if dir := filepath.Dir(opts.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open(driverName, opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", opts.Path, err)
	}

	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schemaPlantsReading); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}
