// Package eventsync hands completion notices from asynchronous callbacks to a
// blocked caller through a set of named bits.
package eventsync

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Bits is a set of named event bits.
type Bits uint32

const (
	// AddressAcquired is set when the station reports an assigned address.
	AddressAcquired Bits = 1 << iota
)

// Result is the outcome of Wait.
type Result int

const (
	Signaled Result = iota + 1
	TimedOut
)

func (r Result) String() string {
	switch r {
	case Signaled:
		return "Signaled"
	case TimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// Group is a level-triggered bit set. A bit stays set until a caller clears it,
// either with Clear or by waiting with ClearOnExit.
type Group struct {
	clock clock.Clock

	mu      sync.Mutex
	bits    Bits
	setAt   [32]time.Time // clock time each set bit was set
	changed chan struct{} // closed and replaced whenever bits gain a member
}

// New returns an empty group timed by c. A nil clock means wall time.
func New(c clock.Clock) *Group {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Group{
		clock:   c,
		changed: make(chan struct{}),
	}
}

// Set marks bits as set at the current clock time and wakes waiters. Setting
// a bit that is already set is a no-op. Safe to call from any goroutine.
func (g *Group) Set(bits Bits) {
	g.mu.Lock()
	defer g.mu.Unlock()

	added := bits &^ g.bits
	if added == 0 {
		return
	}
	now := g.clock.Now()
	for i := range g.setAt {
		if added&(1<<i) != 0 {
			g.setAt[i] = now
		}
	}
	g.bits |= added
	close(g.changed)
	g.changed = make(chan struct{})
}

// Clear unsets bits and returns the set as it was before.
func (g *Group) Clear(bits Bits) Bits {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.bits
	g.bits &^= bits
	return prev
}

// Get returns the currently set bits.
func (g *Group) Get() Bits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bits
}

type waitOptions struct {
	clearOnExit bool
	waitForAll  bool
}

// WaitOption tunes Wait.
type WaitOption func(*waitOptions)

// ClearOnExit clears the awaited bits when Wait returns Signaled.
func ClearOnExit() WaitOption {
	return func(o *waitOptions) { o.clearOnExit = true }
}

// WaitForAll requires every awaited bit instead of any one of them.
func WaitForAll() WaitOption {
	return func(o *waitOptions) { o.waitForAll = true }
}

// Wait blocks until the awaited bits are set or timeout elapses. A bit counts
// only if it was set strictly before the deadline by the group's clock, so a
// signal arriving exactly at the deadline is TimedOut regardless of which
// goroutine runs first. A non-nil error is returned only when ctx ends first.
func (g *Group) Wait(ctx context.Context, bits Bits, timeout time.Duration, opts ...WaitOption) (Result, error) {
	o := &waitOptions{}
	for _, opt := range opts {
		opt(o)
	}

	changed, ok := g.check(bits, o, time.Time{})
	if ok {
		return Signaled, nil
	}
	if timeout <= 0 {
		return TimedOut, nil
	}

	deadline := g.clock.Now().Add(timeout)
	timer := g.clock.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-changed:
			if changed, ok = g.check(bits, o, deadline); ok {
				return Signaled, nil
			}
		case <-timer.C():
			if _, ok = g.check(bits, o, deadline); ok {
				return Signaled, nil
			}
			return TimedOut, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// check reports whether the wait condition holds, consuming the bits if asked
// to. Otherwise it returns the channel announcing the next change. With a
// non-zero deadline, bits set at or after it do not count.
func (g *Group) check(bits Bits, o *waitOptions, deadline time.Time) (<-chan struct{}, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	live := g.bits & bits
	if !deadline.IsZero() {
		for i := range g.setAt {
			if live&(1<<i) != 0 && !g.setAt[i].Before(deadline) {
				live &^= 1 << i
			}
		}
	}

	var ok bool
	if o.waitForAll {
		ok = live == bits
	} else {
		ok = live != 0
	}
	if !ok {
		return g.changed, false
	}
	if o.clearOnExit {
		g.bits &^= bits
	}
	return nil, true
}
