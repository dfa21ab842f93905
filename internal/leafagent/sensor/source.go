package sensor

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// FileSource reads a raw integer from a file such as an IIO sysfs channel and
// applies a linear calibration: value = raw*Scale + Offset.
type FileSource struct {
	Path   string
	Scale  float64
	Offset float64
}

func (f *FileSource) Read(_ context.Context) (float64, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("read probe: %w", err)
	}
	raw, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse probe value %q: %w", strings.TrimSpace(string(b)), err)
	}
	return float64(raw)*f.Scale + f.Offset, nil
}

// SimSource produces a slow sine wave around a base level, with a small
// deterministic ripple between consecutive samples.
type SimSource struct {
	Clock     clock.PassiveClock
	Base      float64
	Amplitude float64
	Period    time.Duration

	mu sync.Mutex
	n  int
}

// NewSimSource returns a source drifting between 1400 and 2000 millivolts once an hour.
func NewSimSource(c clock.PassiveClock) *SimSource {
	if c == nil {
		c = clock.RealClock{}
	}
	return &SimSource{
		Clock:     c,
		Base:      1700,
		Amplitude: 300,
		Period:    time.Hour,
	}
}

func (s *SimSource) Read(_ context.Context) (float64, error) {
	s.mu.Lock()
	s.n++
	ripple := float64(s.n%5) - 2
	s.mu.Unlock()

	phase := 0.0
	if s.Period > 0 {
		elapsed := s.Clock.Now().UnixNano() % int64(s.Period)
		phase = 2 * math.Pi * float64(elapsed) / float64(s.Period)
	}
	return s.Base + s.Amplitude*math.Sin(phase) + ripple, nil
}
