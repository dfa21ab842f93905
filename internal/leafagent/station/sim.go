package station

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

// ErrNotStarted is returned when the radio is driven before Init or Start.
var ErrNotStarted = errors.New("radio not started")

// SimConfig shapes the behavior of a simulated radio.
type SimConfig struct {
	// AddressDelay is the time from association to address assignment.
	// A negative delay means no address is ever assigned.
	AddressDelay time.Duration

	// Address is the assigned address. Defaults to 192.168.4.2.
	Address netip.Addr

	// Failures injected into the matching calls.
	InitErr   error
	StopErr   error
	DeinitErr error
}

var _ core.Station = (*Sim)(nil)

// Sim is a station-mode radio simulated on a clock. It is used on development
// hosts and in tests, and records every call made to it.
type Sim struct {
	clock  clock.WithDelayedExecution
	cfg    SimConfig
	events *dispatcher

	mu          sync.Mutex
	calls       []string
	creds       v1.Credentials
	initialized bool
	started     bool
	pending     clock.Timer
}

// NewSim returns a powered-down simulated radio. A nil clock means wall time.
func NewSim(c clock.WithDelayedExecution, cfg SimConfig) *Sim {
	if c == nil {
		c = clock.RealClock{}
	}
	if !cfg.Address.IsValid() {
		cfg.Address = netip.MustParseAddr("192.168.4.2")
	}
	return &Sim{
		clock:  c,
		cfg:    cfg,
		events: newDispatcher(),
	}
}

func (s *Sim) Init(_ context.Context) error {
	s.record("Init")
	if s.cfg.InitErr != nil {
		return s.cfg.InitErr
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.events.start()
	log.Debug("[Sim] Station initialized")
	return nil
}

func (s *Sim) Configure(creds v1.Credentials) error {
	s.record("Configure")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *Sim) Start() error {
	s.record("Start")

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = true
	s.mu.Unlock()

	s.events.emit(core.Event{Base: core.LinkEvents, ID: core.LinkStarted})
	return nil
}

func (s *Sim) Associate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.calls = append(s.calls, "Associate")
		return ErrNotStarted
	}

	log.Debug("[Sim] Associating", "ssid", s.creds.SSID)
	s.events.emit(core.Event{Base: core.LinkEvents, ID: core.LinkConnected})

	if s.cfg.AddressDelay >= 0 {
		addr := s.cfg.Address
		s.pending = s.clock.AfterFunc(s.cfg.AddressDelay, func() {
			s.events.emit(core.Event{Base: core.AddressEvents, ID: core.AddressAcquired, Addr: addr})
		})
	}
	// Recorded last so observers of Calls know the address timer is armed.
	s.calls = append(s.calls, "Associate")
	return nil
}

func (s *Sim) Stop() error {
	s.record("Stop")

	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	wasStarted := s.started
	s.started = false
	s.mu.Unlock()

	if wasStarted {
		s.events.emit(core.Event{Base: core.LinkEvents, ID: core.LinkDisconnected, Reason: "station stopped"})
	}
	return s.cfg.StopErr
}

func (s *Sim) Deinit() error {
	s.record("Deinit")

	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()

	s.events.stop()
	return s.cfg.DeinitErr
}

func (s *Sim) Register(base core.EventBase, h core.EventHandler) (core.Registration, error) {
	s.record("Register:" + string(base))
	return s.events.register(base, h), nil
}

// Calls returns the names of the calls made so far, in order.
func (s *Sim) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Observers returns the number of live registrations for base.
func (s *Sim) Observers(base core.EventBase) int {
	return s.events.count(base)
}

// Associated reports whether an association request has been served.
func (s *Sim) Associated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == "Associate" {
			return true
		}
	}
	return false
}

func (s *Sim) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}
