package station

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

// DefaultPollInterval is how often the host station looks for an address.
const DefaultPollInterval = 250 * time.Millisecond

// AddrsFunc lists the addresses of a named interface.
type AddrsFunc func(name string) ([]net.Addr, error)

var _ core.Station = (*Host)(nil)

// Host treats an existing interface of the host as the radio. Association is
// owned by the OS supplicant, so the station only watches the interface for a
// routable IPv4 address.
type Host struct {
	iface  string
	clock  clock.WithTicker
	addrs  AddrsFunc
	poll   time.Duration
	events *dispatcher

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithAddrsFunc replaces the interface address lookup.
func WithAddrsFunc(fn AddrsFunc) HostOption {
	return func(h *Host) { h.addrs = fn }
}

// WithPollInterval sets the address poll period.
func WithPollInterval(d time.Duration) HostOption {
	return func(h *Host) { h.poll = d }
}

// WithHostClock sets the clock driving the poller.
func WithHostClock(c clock.WithTicker) HostOption {
	return func(h *Host) { h.clock = c }
}

// NewHost returns a station bound to the interface named iface.
func NewHost(iface string, opts ...HostOption) *Host {
	h := &Host{
		iface:  iface,
		clock:  clock.RealClock{},
		addrs:  interfaceAddrs,
		poll:   DefaultPollInterval,
		events: newDispatcher(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) Init(_ context.Context) error {
	if _, err := h.addrs(h.iface); err != nil {
		return fmt.Errorf("interface %s: %w", h.iface, err)
	}
	h.events.start()
	return nil
}

func (h *Host) Configure(creds v1.Credentials) error {
	log.Info("Association is managed by the system supplicant", "interface", h.iface, "ssid", creds.SSID)
	return nil
}

func (h *Host) Start() error {
	h.mu.Lock()
	h.started = true
	h.mu.Unlock()

	h.events.emit(core.Event{Base: core.LinkEvents, ID: core.LinkStarted})
	return nil
}

func (h *Host) Associate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return ErrNotStarted
	}
	if h.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.watch(ctx)
	}()
	return nil
}

func (h *Host) Stop() error {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	wasStarted := h.started
	h.started = false
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.wg.Wait()

	if wasStarted {
		h.events.emit(core.Event{Base: core.LinkEvents, ID: core.LinkDisconnected, Reason: "station stopped"})
	}
	return nil
}

func (h *Host) Deinit() error {
	h.events.stop()
	return nil
}

func (h *Host) Register(base core.EventBase, fn core.EventHandler) (core.Registration, error) {
	return h.events.register(base, fn), nil
}

// watch polls until the interface carries a usable IPv4 address, then reports it
// once and returns.
func (h *Host) watch(ctx context.Context) {
	ticker := h.clock.NewTicker(h.poll)
	defer ticker.Stop()

	for {
		if addr, ok := h.lookup(); ok {
			h.events.emit(core.Event{Base: core.LinkEvents, ID: core.LinkConnected})
			h.events.emit(core.Event{Base: core.AddressEvents, ID: core.AddressAcquired, Addr: addr})
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

func (h *Host) lookup() (netip.Addr, bool) {
	addrs, err := h.addrs(h.iface)
	if err != nil {
		log.Debug("Interface lookup failed", "interface", h.iface, "err", err)
		return netip.Addr{}, false
	}
	for _, a := range addrs {
		prefix, err := netip.ParsePrefix(a.String())
		if err != nil {
			continue
		}
		ip := prefix.Addr()
		if ip.Is4() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified() {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

func interfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}
