package station

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
)

func ipNet(cidr string) net.Addr {
	ip, n, _ := net.ParseCIDR(cidr)
	n.IP = ip
	return n
}

func TestHostReportsFirstRoutableIPv4(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	var assigned atomic.Bool
	addrs := func(string) ([]net.Addr, error) {
		out := []net.Addr{ipNet("fe80::1/64"), ipNet("169.254.3.4/16")}
		if assigned.Load() {
			out = append(out, ipNet("192.168.1.23/24"))
		}
		return out, nil
	}
	h := NewHost("wlan0", WithAddrsFunc(addrs), WithHostClock(fc), WithPollInterval(time.Second))

	require.NoError(t, h.Init(context.Background()))
	link, _ := collect(t, h, core.LinkEvents)
	address, _ := collect(t, h, core.AddressEvents)

	require.NoError(t, h.Start())
	assert.Equal(t, core.LinkStarted, next(t, link).ID)
	require.NoError(t, h.Associate())
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	assigned.Store(true)
	fc.Step(time.Second)

	assert.Equal(t, core.LinkConnected, next(t, link).ID)
	ev := next(t, address)
	assert.Equal(t, netip.MustParseAddr("192.168.1.23"), ev.Addr)

	require.NoError(t, h.Stop())
	require.NoError(t, h.Deinit())
}

func TestHostInitFailsForMissingInterface(t *testing.T) {
	missing := errors.New("no such network interface")
	h := NewHost("wlan9", WithAddrsFunc(func(string) ([]net.Addr, error) { return nil, missing }))
	assert.ErrorIs(t, h.Init(context.Background()), missing)
}

func TestHostStopEndsPolling(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	h := NewHost("wlan0",
		WithAddrsFunc(func(string) ([]net.Addr, error) { return nil, nil }),
		WithHostClock(fc),
	)
	require.NoError(t, h.Init(context.Background()))
	require.NoError(t, h.Start())
	require.NoError(t, h.Associate())
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- h.Stop() }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not exit")
	}
	require.NoError(t, h.Deinit())
}
