// Package service holds the collector's use cases: accepting, listing and
// exporting readings. Transports call into it.
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/leaf/internal/collector/core"
	"github.com/autopeer-io/leaf/internal/pkg/metrics"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// ErrNotFound is returned when nothing is stored for a plant.
var ErrNotFound = errors.New("no readings found")

// CSVHeader is the first record of every export.
var CSVHeader = []string{"id", "plant_name", "moisture", "server_timestamp"}

type ReadingService struct {
	repo     core.ReadingRepository
	notifier core.ReadingNotifier
	clock    clock.PassiveClock
	logger   log.Logger
}

type Option func(*ReadingService)

// WithNotifier forwards every stored reading to n.
func WithNotifier(n core.ReadingNotifier) Option {
	return func(s *ReadingService) { s.notifier = n }
}

func WithClock(c clock.PassiveClock) Option {
	return func(s *ReadingService) { s.clock = c }
}

func WithLogger(l log.Logger) Option {
	return func(s *ReadingService) { s.logger = l }
}

func NewReadingService(repo core.ReadingRepository, opts ...Option) *ReadingService {
	s := &ReadingService{
		repo:   repo,
		clock:  clock.RealClock{},
		logger: log.WithName("reading-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a submitted reading.
func Validate(r v1.Reading) error {
	switch {
	case r.PlantName == "":
		return fmt.Errorf("%w: plant_name is required", core.ErrInvalidReading)
	case len(r.PlantName) > v1.MaxPlantNameLen:
		return fmt.Errorf("%w: plant_name is %d bytes, at most %d allowed",
			core.ErrInvalidReading, len(r.PlantName), v1.MaxPlantNameLen)
	case math.IsNaN(r.Value) || math.IsInf(r.Value, 0):
		return fmt.Errorf("%w: value must be finite", core.ErrInvalidReading)
	}
	return nil
}

// Submit validates and stores a reading, then forwards it. A forwarding
// failure is logged and does not fail the submission.
func (s *ReadingService) Submit(ctx context.Context, r v1.Reading) (v1.StoredReading, error) {
	if err := Validate(r); err != nil {
		metrics.CollectorReadingsTotal.WithLabelValues("rejected").Inc()
		return v1.StoredReading{}, err
	}

	now := s.clock.Now().UTC()
	id, err := s.repo.Insert(ctx, r, now)
	if err != nil {
		metrics.CollectorReadingsTotal.WithLabelValues("failed").Inc()
		return v1.StoredReading{}, err
	}
	metrics.CollectorReadingsTotal.WithLabelValues("stored").Inc()

	stored := v1.StoredReading{
		ID:              id,
		PlantName:       r.PlantName,
		Value:           r.Value,
		ServerTimestamp: now.Format(time.RFC3339),
	}
	s.logger.Debug("Stored reading", "id", id, "plant", r.PlantName, "value", r.Value)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, stored); err != nil {
			s.logger.Warn("Failed to forward reading", "id", id, "error", err)
		}
	}
	return stored, nil
}

// List returns the newest readings of a plant. limit is clamped to
// [1, MaxListLimit]; zero selects DefaultListLimit.
func (s *ReadingService) List(ctx context.Context, plantName string, limit int) ([]v1.StoredReading, error) {
	switch {
	case limit == 0:
		limit = DefaultListLimit
	case limit < 0:
		limit = 1
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	readings, err := s.repo.ListByPlant(ctx, plantName, limit)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNotFound
	}
	return readings, nil
}

// WriteCSV writes every stored reading to w and returns the row count.
func (s *ReadingService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, err
	}

	n := 0
	err := s.repo.Walk(ctx, func(r v1.StoredReading) error {
		n++
		return cw.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.PlantName,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			r.ServerTimestamp,
		})
	})
	if err != nil {
		return n, fmt.Errorf("export readings: %w", err)
	}
	cw.Flush()
	return n, cw.Error()
}

// Export uploads a CSV snapshot of all readings under key and returns the
// object location with the row count.
func (s *ReadingService) Export(ctx context.Context, store core.ObjectStore, key string) (string, int, error) {
	if err := store.CheckBucket(ctx); err != nil {
		return "", 0, err
	}

	var buf bytes.Buffer
	n, err := s.WriteCSV(ctx, &buf)
	if err != nil {
		return "", n, err
	}

	location, err := store.Put(ctx, key, buf.Bytes(), "text/csv")
	if err != nil {
		return "", n, err
	}
	s.logger.Info("Exported readings", "location", location, "rows", n)
	return location, n, nil
}
