package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/autopeer-io/leaf/internal/collector/core"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

const (
	insertReadingSQL = `INSERT INTO plants_reading (plant_name, moisture, server_timestamp) VALUES (?, ?, ?)`

	listByPlantSQL = `SELECT id, plant_name, moisture, server_timestamp FROM plants_reading
WHERE plant_name = ? ORDER BY id DESC LIMIT ?`

	walkSQL = `SELECT id, plant_name, moisture, server_timestamp FROM plants_reading ORDER BY id ASC`
)

// TimestampLayout is how server_timestamp is stored.
const TimestampLayout = time.RFC3339

var _ core.ReadingRepository = (*ReadingRepository)(nil)

type ReadingRepository struct {
	db *sql.DB
}

func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

func (r *ReadingRepository) Insert(ctx context.Context, reading v1.Reading, ts time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		reading.PlantName, reading.Value, ts.UTC().Format(TimestampLayout))
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

func (r *ReadingRepository) ListByPlant(ctx context.Context, plantName string, limit int) ([]v1.StoredReading, error) {
	rows, err := r.db.QueryContext(ctx, listByPlantSQL, plantName, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	out := []v1.StoredReading{}
	for rows.Next() {
		var s v1.StoredReading
		if err := rows.Scan(&s.ID, &s.PlantName, &s.Value, &s.ServerTimestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

func (r *ReadingRepository) Walk(ctx context.Context, fn func(v1.StoredReading) error) error {
	rows, err := r.db.QueryContext(ctx, walkSQL)
	if err != nil {
		return fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s v1.StoredReading
		if err := rows.Scan(&s.ID, &s.PlantName, &s.Value, &s.ServerTimestamp); err != nil {
			return fmt.Errorf("scan reading: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *ReadingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
