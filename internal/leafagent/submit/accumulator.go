// Package submit posts readings to the collector and accumulates the streamed
// response into a bounded buffer.
package submit

import (
	"fmt"
	"sync"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/pkg/log"
)

// DefaultCapacity is the response buffer size used when none is configured.
const DefaultCapacity = 100

// AllocFunc returns an empty buffer with room for n bytes.
type AllocFunc func(n int) ([]byte, error)

func defaultAlloc(n int) ([]byte, error) {
	return make([]byte, 0, n), nil
}

var _ core.HTTPEventSink = (*Accumulator)(nil)

// Accumulator collects the body of one exchange into a buffer of fixed capacity.
// The buffer is allocated on the first data fragment and released when the
// exchange finishes, disconnects or fails. Bytes past capacity are dropped.
type Accumulator struct {
	capacity int
	alloc    AllocFunc
	logger   log.Logger

	mu          sync.Mutex
	buf         []byte
	allocations int
}

// AccumulatorOption configures an Accumulator.
type AccumulatorOption func(*Accumulator)

// WithAllocFunc replaces the buffer allocator.
func WithAllocFunc(fn AllocFunc) AccumulatorOption {
	return func(a *Accumulator) { a.alloc = fn }
}

// NewAccumulator returns an accumulator holding at most capacity bytes.
func NewAccumulator(capacity int, opts ...AccumulatorOption) *Accumulator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	a := &Accumulator{
		capacity: capacity,
		alloc:    defaultAlloc,
		logger:   log.WithName("http-sink"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle applies one exchange event. It returns an error wrapping
// core.ErrAllocation when the buffer cannot be allocated and core.ErrProtocol
// for an event kind it does not expect. Neither tears the buffer down.
func (a *Accumulator) Handle(ev *core.HTTPEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Kind {
	case core.HTTPConnected, core.HTTPHeaderSent, core.HTTPRedirect:
		a.logger.Debug("Exchange event", "event", ev.Kind)
	case core.HTTPHeaderReceived:
		a.logger.Debug("Header received", "key", ev.HeaderKey, "value", ev.HeaderValue)
	case core.HTTPData:
		return a.appendLocked(ev.Data)
	case core.HTTPFinish, core.HTTPDisconnected, core.HTTPError:
		a.releaseLocked()
	default:
		return fmt.Errorf("%w: %s", core.ErrProtocol, ev.Kind)
	}
	return nil
}

func (a *Accumulator) appendLocked(data []byte) error {
	if a.buf == nil {
		buf, err := a.alloc(a.capacity)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrAllocation, err)
		}
		a.buf = buf[:0]
		a.allocations++
	}

	remaining := a.capacity - len(a.buf)
	n := min(len(data), remaining)
	a.buf = append(a.buf, data[:n]...)
	if n < len(data) {
		a.logger.Debug("Response truncated", "dropped", len(data)-n)
	}
	return nil
}

func (a *Accumulator) releaseLocked() {
	a.buf = nil
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Bytes returns a copy of the buffered bytes.
func (a *Accumulator) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buf == nil {
		return nil
	}
	return append([]byte(nil), a.buf...)
}

// Allocated reports whether a buffer is currently held.
func (a *Accumulator) Allocated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf != nil
}

// Allocations returns how many buffers have been allocated so far.
func (a *Accumulator) Allocations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocations
}

// Capacity returns the buffer capacity.
func (a *Accumulator) Capacity() int {
	return a.capacity
}
