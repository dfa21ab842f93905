package core

import (
	"context"
	"errors"
	"time"

	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

// ErrInvalidReading marks a reading rejected before storage.
var ErrInvalidReading = errors.New("invalid reading")

// ReadingRepository persists readings.
// In leaf-collector, this is implemented by the sqlite adapter.
type ReadingRepository interface {
	// Insert stores a reading received at ts and returns its id.
	Insert(ctx context.Context, reading v1.Reading, ts time.Time) (int64, error)

	// ListByPlant returns up to limit readings of one plant, newest first.
	ListByPlant(ctx context.Context, plantName string, limit int) ([]v1.StoredReading, error)

	// Walk calls fn for every stored reading in id order and stops at its first error.
	Walk(ctx context.Context, fn func(v1.StoredReading) error) error

	// Ping checks the database is reachable.
	Ping(ctx context.Context) error
}
