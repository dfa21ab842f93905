// Package leafagent runs the device's wake cycles: sample the probe, connect,
// submit one reading, disconnect and sleep.
package leafagent

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/internal/leafagent/submit"
	"github.com/autopeer-io/leaf/internal/pkg/metrics"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
	"github.com/autopeer-io/leaf/pkg/options"
)

// Connector attaches the device to the network for one cycle.
type Connector interface {
	Connect(ctx context.Context, creds v1.Credentials, timeout time.Duration) error
	Disconnect() error
	Address() (netip.Addr, bool)
}

// Submitter delivers one reading.
type Submitter interface {
	Submit(ctx context.Context, reading v1.Reading) (submit.Result, error)
}

// Cycle stages, used as metric labels and report keys.
const (
	StageSample     = "sample"
	StageConnect    = "connect"
	StageSubmit     = "submit"
	StageDisconnect = "disconnect"
)

// CycleReport summarizes one wake cycle.
type CycleReport struct {
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`

	// Result is "ok" or "<stage>_failed" for the first stage that failed.
	Result string `json:"result"`

	Reading    *v1.Reading `json:"reading,omitempty"`
	Address    string      `json:"address,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Response   string      `json:"response,omitempty"`

	// Errors maps each failed stage to its error.
	Errors map[string]string `json:"errors,omitempty"`
}

// Failed reports whether stage failed.
func (r *CycleReport) Failed(stage string) bool {
	_, ok := r.Errors[stage]
	return ok
}

func (r *CycleReport) fail(stage string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
		r.Result = stage + "_failed"
	}
	r.Errors[stage] = err.Error()
	metrics.StageFailuresTotal.WithLabelValues(stage).Inc()
}

// Agent runs wake cycles. Stage failures are logged and recorded and never stop
// the loop; recovery is the next cycle.
type Agent struct {
	plantName      string
	creds          v1.Credentials
	connectTimeout time.Duration
	sleepInterval  time.Duration
	once           bool

	sampler   core.Sampler
	conn      Connector
	submitter Submitter
	clock     clock.Clock
	logger    log.Logger

	httpOptions *options.HttpOptions

	mu     sync.RWMutex
	last   *CycleReport
	cycles int
}

// NewAgent assembles an agent from its collaborators.
func NewAgent(cfg *AgentConfig, sampler core.Sampler, conn Connector, submitter Submitter) *Agent {
	c := cfg.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &Agent{
		plantName:      cfg.PlantName,
		creds:          cfg.Credentials,
		connectTimeout: cfg.ConnectTimeout,
		sleepInterval:  cfg.SleepInterval,
		once:           cfg.Once,
		sampler:        sampler,
		conn:           conn,
		submitter:      submitter,
		clock:          c,
		logger:         log.WithName("agent").WithValues("plant", cfg.PlantName),
	}
}

// AgentConfig holds the boot-time settings of an Agent.
type AgentConfig struct {
	PlantName      string
	Credentials    v1.Credentials
	ConnectTimeout time.Duration
	SleepInterval  time.Duration
	Once           bool
	Clock          clock.Clock
}

// Run repeats cycles separated by the sleep interval until ctx ends, or runs a
// single cycle in once mode.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("Starting leaf-agent", "sleep", a.sleepInterval, "once", a.once)

	for {
		if ctx.Err() != nil {
			break
		}
		a.RunCycle(ctx)
		if a.once {
			break
		}

		a.logger.Info("Sleeping", "duration", a.sleepInterval)
		select {
		case <-ctx.Done():
		case <-a.clock.After(a.sleepInterval):
		}
	}

	a.logger.Info("Agent shutting down")
	return nil
}

// RunCycle performs sample, connect, submit and disconnect once.
func (a *Agent) RunCycle(ctx context.Context) *CycleReport {
	report := &CycleReport{Started: a.clock.Now(), Result: "ok"}
	defer func() {
		report.Duration = a.clock.Since(report.Started).String()
		metrics.CyclesTotal.WithLabelValues(report.Result).Inc()
		a.record(report)
		a.logger.Info("Cycle finished", "result", report.Result, "duration", report.Duration)
	}()

	value, err := a.sampler.Sample(ctx)
	if err != nil {
		a.logger.Error(err, "Failed to sample probe, skipping submission")
		report.fail(StageSample, err)
		return report
	}
	reading := v1.Reading{PlantName: a.plantName, Value: value}
	report.Reading = &reading
	metrics.LastReading.Set(value)

	a.logger.Info("Starting network connection")
	if err := a.conn.Connect(ctx, a.creds, a.connectTimeout); err != nil {
		a.logger.Error(err, "Failed to connect")
		report.fail(StageConnect, err)
	} else {
		if addr, ok := a.conn.Address(); ok {
			report.Address = addr.String()
		}

		a.logger.Info("Submitting reading", "value", value)
		res, err := a.submitter.Submit(ctx, reading)
		if err != nil {
			a.logger.Error(err, "Failed to submit reading")
			report.fail(StageSubmit, err)
		} else {
			report.StatusCode = res.StatusCode
			report.Response = string(res.Body)
		}
	}

	a.logger.Info("Disconnecting")
	if err := a.conn.Disconnect(); err != nil {
		a.logger.Error(err, "Failed to disconnect")
		report.fail(StageDisconnect, err)
	}
	return report
}

func (a *Agent) record(r *CycleReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = r
	a.cycles++
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (a *Agent) LastReport() *CycleReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Cycles returns the number of completed cycles.
func (a *Agent) Cycles() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cycles
}
