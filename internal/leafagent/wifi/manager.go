// Package wifi drives station-mode network attachment for one wake cycle.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/internal/leafagent/eventsync"
	"github.com/autopeer-io/leaf/internal/pkg/metrics"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

// Manager attaches the station to an access point and blocks until an address is
// assigned. It makes exactly one attempt per Connect and never reconnects.
type Manager struct {
	station core.Station
	events  *eventsync.Group
	clock   clock.Clock
	logger  log.Logger

	// mu serializes Connect and Disconnect.
	mu          sync.Mutex
	sm          *stateMachine
	regs        []core.Registration
	initialized bool

	addr atomic.Pointer[netip.Addr]
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used to bound the address wait.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger replaces the default "wifi" logger.
func WithLogger(l log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns an idle manager driving station.
func NewManager(station core.Station, opts ...Option) *Manager {
	m := &Manager{
		station: station,
		clock:   clock.RealClock{},
		logger:  log.WithName("wifi"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.events = eventsync.New(m.clock)
	m.sm = newStateMachine(m.logger.Logr())
	return m
}

// State returns the current connection state.
func (m *Manager) State() State {
	return m.sm.state()
}

// Address returns the address acquired by the last successful Connect.
func (m *Manager) Address() (netip.Addr, bool) {
	if a := m.addr.Load(); a != nil {
		return *a, true
	}
	return netip.Addr{}, false
}

// Connect validates creds, brings the stack up, issues the connect request and
// waits up to timeout for an address. The returned error wraps one of
// core.ErrConfig, core.ErrStackInit or core.ErrConnectTimeout.
func (m *Manager) Connect(ctx context.Context, creds v1.Credentials, timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		m.logger.Warn("Previous connection was not torn down, releasing it")
		if err := m.teardownLocked(); err != nil {
			m.logger.Error(err, "Failed to release previous connection")
		}
	}
	m.transition(ctx, EventReset)
	m.addr.Store(nil)

	if err := validateCredentials(creds); err != nil {
		m.transition(ctx, EventFail)
		return err
	}

	// A bit left over from an earlier cycle must not satisfy this wait.
	m.events.Clear(eventsync.AddressAcquired)

	m.transition(ctx, EventInit)
	if err := m.station.Init(ctx); err != nil {
		m.transition(ctx, EventFail)
		return fmt.Errorf("%w: %w", core.ErrStackInit, err)
	}
	m.initialized = true

	if err := m.registerObservers(); err != nil {
		m.transition(ctx, EventFail)
		return fmt.Errorf("%w: register observers: %w", core.ErrStackInit, err)
	}

	m.transition(ctx, EventAssociate)
	if err := m.station.Configure(creds); err != nil {
		m.transition(ctx, EventFail)
		return fmt.Errorf("%w: apply credentials: %w", core.ErrStackInit, err)
	}
	if err := m.station.Start(); err != nil {
		m.transition(ctx, EventFail)
		return fmt.Errorf("%w: start radio: %w", core.ErrStackInit, err)
	}

	m.transition(ctx, EventAwait)
	m.logger.Info("Waiting for address", "ssid", creds.SSID, "timeout", timeout)

	start := m.clock.Now()
	res, err := m.events.Wait(ctx, eventsync.AddressAcquired, timeout, eventsync.ClearOnExit())
	if err != nil {
		m.transition(ctx, EventFail)
		return fmt.Errorf("connect aborted: %w", err)
	}
	if res == eventsync.TimedOut {
		m.transition(ctx, EventFail)
		return fmt.Errorf("%w after %s", core.ErrConnectTimeout, timeout)
	}

	elapsed := m.clock.Since(start)
	metrics.ConnectDuration.Observe(elapsed.Seconds())
	m.transition(ctx, EventAcquire)

	addr, _ := m.Address()
	m.logger.Info("Connected", "ssid", creds.SSID, "address", addr, "elapsed", elapsed)
	return nil
}

// Disconnect powers the radio down, releases the stack and drops the observers
// registered by Connect. It is a no-op when nothing was initialized.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.teardownLocked()
	m.transition(context.Background(), EventReset)
	return err
}

func (m *Manager) teardownLocked() error {
	m.unregisterObservers()
	m.addr.Store(nil)

	if !m.initialized {
		return nil
	}
	m.initialized = false

	var errs []error
	if err := m.station.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop radio: %w", err))
	}
	if err := m.station.Deinit(); err != nil {
		errs = append(errs, fmt.Errorf("deinit stack: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrDisconnect, errors.Join(errs...))
	}
	return nil
}

func (m *Manager) registerObservers() error {
	link, err := m.station.Register(core.LinkEvents, m.onLinkEvent)
	if err != nil {
		return err
	}
	m.regs = append(m.regs, link)

	address, err := m.station.Register(core.AddressEvents, m.onAddressEvent)
	if err != nil {
		return err
	}
	m.regs = append(m.regs, address)
	return nil
}

func (m *Manager) unregisterObservers() {
	for _, r := range m.regs {
		r.Unregister()
	}
	m.regs = nil
}

// onLinkEvent runs on the station's goroutine.
func (m *Manager) onLinkEvent(ev core.Event) {
	switch ev.ID {
	case core.LinkStarted:
		if err := m.station.Associate(); err != nil {
			m.logger.Error(err, "Association request failed")
		}
	case core.LinkConnected:
		m.logger.Debug("Associated with access point")
	case core.LinkDisconnected:
		m.logger.Info("Disassociated from access point", "reason", ev.Reason)
	}
}

// onAddressEvent runs on the station's goroutine.
func (m *Manager) onAddressEvent(ev core.Event) {
	switch ev.ID {
	case core.AddressAcquired:
		addr := ev.Addr
		m.addr.Store(&addr)
		m.events.Set(eventsync.AddressAcquired)
	case core.AddressLost:
		m.logger.Warn("Address lost")
		m.addr.Store(nil)
	}
}

func (m *Manager) transition(ctx context.Context, event string) {
	if err := m.sm.fire(ctx, event); err != nil {
		m.logger.Error(err, "Invalid connection state transition", "event", event, "state", m.sm.state())
	}
}

func validateCredentials(creds v1.Credentials) error {
	if !creds.Complete() {
		return fmt.Errorf("%w: ssid and password must be set", core.ErrConfig)
	}
	if len(creds.SSID) > v1.MaxSSIDLen {
		return fmt.Errorf("%w: ssid exceeds %d bytes", core.ErrConfig, v1.MaxSSIDLen)
	}
	if len(creds.Password) > v1.MaxPasswordLen {
		return fmt.Errorf("%w: password exceeds %d bytes", core.ErrConfig, v1.MaxPasswordLen)
	}
	return nil
}
