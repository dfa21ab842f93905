package wifi

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/internal/leafagent/station"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

var home = v1.Credentials{SSID: "Home", Password: "pass1234"}

func newTestManager(cfg station.SimConfig) (*Manager, *station.Sim, *clocktesting.FakeClock) {
	fc := clocktesting.NewFakeClock(time.Now())
	sim := station.NewSim(fc, cfg)
	return NewManager(sim, WithClock(fc)), sim, fc
}

// timerClock counts the timers created through it, so a test knows the
// address wait has been armed.
type timerClock struct {
	*clocktesting.FakeClock
	timers atomic.Int32
}

func (c *timerClock) NewTimer(d time.Duration) clock.Timer {
	c.timers.Add(1)
	return c.FakeClock.NewTimer(d)
}

func connectAsync(m *Manager, timeout time.Duration) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- m.Connect(context.Background(), home, timeout) }()
	return ch
}

func TestConnectRejectsIncompleteCredentialsWithoutStackCalls(t *testing.T) {
	tests := []v1.Credentials{
		{},
		{SSID: "Home"},
		{Password: "pass1234"},
	}
	for _, creds := range tests {
		m, sim, _ := newTestManager(station.SimConfig{})

		err := m.Connect(context.Background(), creds, 5*time.Second)
		assert.ErrorIs(t, err, core.ErrConfig)
		assert.Equal(t, StateFailed, m.State())
		assert.Empty(t, sim.Calls())
	}
}

func TestConnectRejectsOversizedCredentials(t *testing.T) {
	m, sim, _ := newTestManager(station.SimConfig{})
	creds := v1.Credentials{SSID: string(make([]byte, v1.MaxSSIDLen+1)), Password: "pass1234"}

	assert.ErrorIs(t, m.Connect(context.Background(), creds, time.Second), core.ErrConfig)
	assert.Empty(t, sim.Calls())
}

func TestConnectSucceedsWhenAddressArrivesBeforeTimeout(t *testing.T) {
	m, sim, fc := newTestManager(station.SimConfig{AddressDelay: 2000 * time.Millisecond})

	done := connectAsync(m, 5000*time.Millisecond)
	require.Eventually(t, sim.Associated, time.Second, time.Millisecond)

	fc.Step(2000 * time.Millisecond)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("connect did not return")
	}

	assert.Equal(t, StateConnected, m.State())
	addr, ok := m.Address()
	assert.True(t, ok)
	assert.Equal(t, "192.168.4.2", addr.String())
	assert.Equal(t, 1, sim.Observers(core.LinkEvents))
	assert.Equal(t, 1, sim.Observers(core.AddressEvents))
}

func TestConnectTimesOutNotBeforeDeadline(t *testing.T) {
	m, sim, fc := newTestManager(station.SimConfig{AddressDelay: -1})

	done := connectAsync(m, 5000*time.Millisecond)
	require.Eventually(t, func() bool {
		return sim.Associated() && m.State() == StateWaitingForAddress && fc.HasWaiters()
	}, time.Second, time.Millisecond)

	fc.Step(4999 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("connect returned before the deadline: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	fc.Step(time.Millisecond)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, core.ErrConnectTimeout)
	case <-time.After(time.Second):
		t.Fatal("connect did not time out")
	}
	assert.Equal(t, StateFailed, m.State())

	require.NoError(t, m.Disconnect())
	assert.Equal(t, StateIdle, m.State())
}

func TestAddressAtExactDeadlineTimesOut(t *testing.T) {
	const timeout = 5 * time.Second
	for i := 0; i < 200; i++ {
		fc := &timerClock{FakeClock: clocktesting.NewFakeClock(time.Now())}
		sim := station.NewSim(fc.FakeClock, station.SimConfig{AddressDelay: timeout})
		m := NewManager(sim, WithClock(fc))

		done := connectAsync(m, timeout)
		require.Eventually(t, func() bool {
			return sim.Associated() && fc.timers.Load() == 1
		}, time.Second, time.Millisecond)

		fc.Step(timeout)
		select {
		case err := <-done:
			require.ErrorIs(t, err, core.ErrConnectTimeout, "iteration %d", i)
		case <-time.After(time.Second):
			t.Fatal("connect did not return")
		}
		require.NoError(t, m.Disconnect())
	}
}

func TestConnectReportsStackInitFailure(t *testing.T) {
	m, sim, _ := newTestManager(station.SimConfig{InitErr: errors.New("no radio")})

	err := m.Connect(context.Background(), home, time.Second)
	assert.ErrorIs(t, err, core.ErrStackInit)
	assert.ErrorContains(t, err, "no radio")
	assert.Equal(t, StateFailed, m.State())
	assert.Equal(t, []string{"Init"}, sim.Calls())

	require.NoError(t, m.Disconnect())
	assert.Equal(t, []string{"Init"}, sim.Calls())
}

func TestDisconnectReleasesStackAndObservers(t *testing.T) {
	m, sim, fc := newTestManager(station.SimConfig{AddressDelay: time.Second})

	done := connectAsync(m, 5*time.Second)
	require.Eventually(t, sim.Associated, time.Second, time.Millisecond)
	fc.Step(time.Second)
	require.NoError(t, <-done)

	require.NoError(t, m.Disconnect())
	assert.Equal(t, StateIdle, m.State())
	assert.Zero(t, sim.Observers(core.LinkEvents))
	assert.Zero(t, sim.Observers(core.AddressEvents))

	calls := sim.Calls()
	assert.Equal(t, []string{"Stop", "Deinit"}, calls[len(calls)-2:])
	_, ok := m.Address()
	assert.False(t, ok)
}

func TestDisconnectWrapsTeardownFailure(t *testing.T) {
	m, sim, fc := newTestManager(station.SimConfig{
		AddressDelay: 0,
		DeinitErr:    errors.New("busy"),
	})

	done := connectAsync(m, time.Second)
	require.Eventually(t, sim.Associated, time.Second, time.Millisecond)
	fc.Step(0)
	require.NoError(t, <-done)

	err := m.Disconnect()
	assert.ErrorIs(t, err, core.ErrDisconnect)
	assert.ErrorContains(t, err, "busy")
}

func TestStaleSignalDoesNotSatisfyNextCycle(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	first := station.NewSim(fc, station.SimConfig{AddressDelay: time.Second})
	m := NewManager(first, WithClock(fc))

	done := connectAsync(m, 5*time.Second)
	require.Eventually(t, first.Associated, time.Second, time.Millisecond)
	fc.Step(time.Second)
	require.NoError(t, <-done)
	require.NoError(t, m.Disconnect())

	// Next cycle: the radio never assigns an address.
	second := station.NewSim(fc, station.SimConfig{AddressDelay: -1})
	m.station = second

	done = connectAsync(m, 5*time.Second)
	require.Eventually(t, func() bool {
		return second.Associated() && m.State() == StateWaitingForAddress && fc.HasWaiters()
	}, time.Second, time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("connect returned without a new address: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	fc.Step(5 * time.Second)
	assert.ErrorIs(t, <-done, core.ErrConnectTimeout)
	require.NoError(t, m.Disconnect())
}
