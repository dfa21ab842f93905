package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/internal/pkg/metrics"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

// DefaultRequestTimeout bounds one submission exchange.
const DefaultRequestTimeout = 10 * time.Second

// Result describes a completed exchange.
type Result struct {
	// StatusCode is the collector's HTTP status. Any status counts as delivered.
	StatusCode int
	// Body is the response as accumulated, truncated to the buffer capacity.
	Body     []byte
	Duration time.Duration
}

// Submitter posts one reading per call to a fixed endpoint.
type Submitter struct {
	url     string
	timeout time.Duration
	client  *http.Client
	sink    *Accumulator
	logger  log.Logger

	// mu keeps exchanges one at a time; the sink belongs to a single exchange.
	mu sync.Mutex
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Submitter) { s.timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Submitter) { s.client = c }
}

// WithAccumulator sets the response sink.
func WithAccumulator(a *Accumulator) Option {
	return func(s *Submitter) { s.sink = a }
}

// NewSubmitter returns a submitter posting to url.
func NewSubmitter(url string, opts ...Option) *Submitter {
	s := &Submitter{
		url:     url,
		timeout: DefaultRequestTimeout,
		client:  &http.Client{},
		logger:  log.WithName("submit"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = NewAccumulator(DefaultCapacity)
	}
	return s
}

// Submit posts reading as JSON and blocks until the exchange concludes. Only a
// transport failure is an error; it wraps core.ErrTransport. A non-2xx status
// is logged and returned in the result.
func (s *Submitter) Submit(ctx context.Context, reading v1.Reading) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := reading.Marshal()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", core.ErrTransport, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %w", core.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var res Result
	emit := func(ev *core.HTTPEvent) {
		if ev.Kind == core.HTTPFinish {
			res.Body = s.sink.Bytes()
		}
		if err := s.sink.Handle(ev); err != nil {
			s.logger.Error(err, "Response sink rejected event", "event", ev.Kind)
			metrics.HTTPSinkErrorsTotal.WithLabelValues(sinkErrorKind(err)).Inc()
		}
	}

	start := time.Now()
	res.StatusCode, err = exchange(s.client, req, emit)
	res.Duration = time.Since(start)
	metrics.SubmitDuration.Observe(res.Duration.Seconds())
	if err != nil {
		return res, err
	}

	metrics.HTTPResponsesTotal.WithLabelValues(metrics.StatusClass(res.StatusCode)).Inc()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		s.logger.Warn("Collector did not accept reading", "status", res.StatusCode, "body", string(res.Body))
	} else {
		s.logger.Info("Reading submitted", "plant", reading.PlantName, "value", reading.Value,
			"status", res.StatusCode, "elapsed", res.Duration)
	}
	return res, nil
}

func sinkErrorKind(err error) string {
	if errors.Is(err, core.ErrAllocation) {
		return "allocation"
	}
	return "protocol"
}
