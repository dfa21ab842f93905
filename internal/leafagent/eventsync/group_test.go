package eventsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

const (
	otherBit Bits = 1 << 7
	quiet         = 50 * time.Millisecond
)

type waitResult struct {
	res Result
	err error
}

func waitAsync(g *Group, ctx context.Context, bits Bits, timeout time.Duration, opts ...WaitOption) <-chan waitResult {
	ch := make(chan waitResult, 1)
	go func() {
		res, err := g.Wait(ctx, bits, timeout, opts...)
		ch <- waitResult{res, err}
	}()
	return ch
}

func TestWaitReturnsImmediatelyWhenAlreadySet(t *testing.T) {
	g := New(clocktesting.NewFakeClock(time.Now()))
	g.Set(AddressAcquired)

	res, err := g.Wait(context.Background(), AddressAcquired, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Signaled, res)
}

func TestWaitWakesOnSignalFromAnotherGoroutine(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	g := New(fc)

	done := waitAsync(g, context.Background(), AddressAcquired, 5*time.Second)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	go g.Set(AddressAcquired)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, Signaled, r.res)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestWaitTimesOutAtDeadlineNotBefore(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	g := New(fc)

	done := waitAsync(g, context.Background(), AddressAcquired, 5*time.Second)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	fc.Step(5*time.Second - time.Millisecond)
	select {
	case r := <-done:
		t.Fatalf("wait returned %v before the deadline", r.res)
	case <-time.After(quiet):
	}

	fc.Step(time.Millisecond)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, TimedOut, r.res)
	case <-time.After(time.Second):
		t.Fatal("waiter did not time out")
	}
}

func TestUnrelatedBitDoesNotWake(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	g := New(fc)

	done := waitAsync(g, context.Background(), AddressAcquired, time.Second)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	g.Set(otherBit)
	select {
	case r := <-done:
		t.Fatalf("woke on unrelated bit with %v", r.res)
	case <-time.After(quiet):
	}

	fc.Step(time.Second)
	r := <-done
	assert.Equal(t, TimedOut, r.res)
}

func TestBitsAreLevelTriggered(t *testing.T) {
	g := New(clocktesting.NewFakeClock(time.Now()))
	g.Set(AddressAcquired)

	for i := 0; i < 3; i++ {
		res, err := g.Wait(context.Background(), AddressAcquired, 0)
		require.NoError(t, err)
		assert.Equal(t, Signaled, res, "wait %d", i)
	}
	assert.Equal(t, AddressAcquired, g.Get())
}

func TestClearOnExitConsumesTheBit(t *testing.T) {
	g := New(clocktesting.NewFakeClock(time.Now()))
	g.Set(AddressAcquired | otherBit)

	res, err := g.Wait(context.Background(), AddressAcquired, 0, ClearOnExit())
	require.NoError(t, err)
	assert.Equal(t, Signaled, res)
	assert.Equal(t, otherBit, g.Get())

	res, err = g.Wait(context.Background(), AddressAcquired, 0, ClearOnExit())
	require.NoError(t, err)
	assert.Equal(t, TimedOut, res)
}

func TestSetIsIdempotent(t *testing.T) {
	g := New(nil)
	g.Set(AddressAcquired)
	g.Set(AddressAcquired)
	assert.Equal(t, AddressAcquired, g.Get())

	prev := g.Clear(AddressAcquired)
	assert.Equal(t, AddressAcquired, prev)
	assert.Zero(t, g.Get())
}

func TestWaitForAll(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	g := New(fc)

	done := waitAsync(g, context.Background(), AddressAcquired|otherBit, time.Second, WaitForAll())
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	g.Set(AddressAcquired)
	select {
	case r := <-done:
		t.Fatalf("returned %v with one of two bits", r.res)
	case <-time.After(quiet):
	}

	g.Set(otherBit)
	r := <-done
	assert.Equal(t, Signaled, r.res)
}

func TestWaitHonorsContext(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	g := New(fc)
	ctx, cancel := context.WithCancel(context.Background())

	done := waitAsync(g, ctx, AddressAcquired, time.Minute)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	cancel()

	r := <-done
	assert.ErrorIs(t, r.err, context.Canceled)
}

func TestSignalAtDeadlineTimesOut(t *testing.T) {
	for i := 0; i < 200; i++ {
		fc := clocktesting.NewFakeClock(time.Now())
		g := New(fc)

		done := waitAsync(g, context.Background(), AddressAcquired, 5*time.Second, ClearOnExit())
		require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

		fc.Step(5 * time.Second)
		g.Set(AddressAcquired)

		select {
		case r := <-done:
			require.NoError(t, r.err)
			require.Equal(t, TimedOut, r.res, "iteration %d", i)
		case <-time.After(time.Second):
			t.Fatal("waiter did not return")
		}
	}
}

func TestSignalJustBeforeDeadlineIsSignaled(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	g := New(fc)

	done := waitAsync(g, context.Background(), AddressAcquired, 5*time.Second)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	fc.Step(5*time.Second - time.Millisecond)
	g.Set(AddressAcquired)
	fc.Step(time.Millisecond)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, Signaled, r.res)
	case <-time.After(time.Second):
		t.Fatal("waiter did not return")
	}
}
