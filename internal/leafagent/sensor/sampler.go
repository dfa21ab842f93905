// Package sensor turns raw probe samples into one averaged reading per cycle.
package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/pkg/log"
)

// Source reads one calibrated sample from the probe.
type Source interface {
	Read(ctx context.Context) (float64, error)
}

var _ core.Sampler = (*Sampler)(nil)

// Sampler fills a fixed-size ring of samples and reports their mean. Averaging
// several samples smooths out ADC noise.
type Sampler struct {
	src  Source
	ring []float64
}

// NewSampler returns a sampler averaging size samples of src.
func NewSampler(src Source, size int) (*Sampler, error) {
	if size <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", size)
	}
	return &Sampler{src: src, ring: make([]float64, size)}, nil
}

// Sample reads a full ring of samples and returns their mean.
func (s *Sampler) Sample(ctx context.Context) (float64, error) {
	for i := range s.ring {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		v, err := s.src.Read(ctx)
		if err != nil {
			return 0, fmt.Errorf("sample %d of %d: %w", i+1, len(s.ring), err)
		}
		s.ring[i] = v
	}

	mean, err := Mean(s.ring)
	if err != nil {
		return 0, err
	}
	log.Debug("Sampled probe", "samples", len(s.ring), "mean", mean)
	return mean, nil
}

// ErrEmpty is returned when averaging no samples.
var ErrEmpty = errors.New("no samples")

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}
