package leafagent

import (
	"fmt"
	"net/http"

	"github.com/autopeer-io/leaf/internal/leafagent/core"
	"github.com/autopeer-io/leaf/internal/leafagent/sensor"
	"github.com/autopeer-io/leaf/internal/leafagent/station"
	"github.com/autopeer-io/leaf/internal/leafagent/submit"
	"github.com/autopeer-io/leaf/internal/leafagent/wifi"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/options"
)

// Config is the completed configuration of the agent binary.
type Config struct {
	DeviceOptions   *options.DeviceOptions
	WifiOptions     *options.WifiOptions
	EndpointOptions *options.EndpointOptions
	SensorOptions   *options.SensorOptions
	HttpOptions     *options.HttpOptions
}

// NewAgent builds the agent and its collaborators from cfg.
func (cfg *Config) NewAgent() (*Agent, error) {
	st, err := cfg.newStation()
	if err != nil {
		return nil, err
	}
	sampler, err := cfg.newSampler()
	if err != nil {
		return nil, err
	}

	ep := cfg.EndpointOptions
	submitter := submit.NewSubmitter(ep.URL(),
		submit.WithTimeout(ep.RequestTimeout),
		submit.WithAccumulator(submit.NewAccumulator(ep.BufferCapacity)),
		submit.WithHTTPClient(&http.Client{}),
	)

	a := NewAgent(&AgentConfig{
		PlantName: cfg.DeviceOptions.PlantName,
		Credentials: v1.Credentials{
			SSID:     cfg.WifiOptions.SSID,
			Password: cfg.WifiOptions.Password,
		},
		ConnectTimeout: cfg.WifiOptions.ConnectTimeout,
		SleepInterval:  cfg.DeviceOptions.SleepInterval,
		Once:           cfg.DeviceOptions.Once,
	}, sampler, wifi.NewManager(st), submitter)
	a.httpOptions = cfg.HttpOptions
	return a, nil
}

func (cfg *Config) newStation() (core.Station, error) {
	o := cfg.WifiOptions
	switch o.Driver {
	case "sim":
		return station.NewSim(nil, station.SimConfig{AddressDelay: o.SimAddressDelay}), nil
	case "host":
		return station.NewHost(o.Interface), nil
	default:
		return nil, fmt.Errorf("unknown wifi driver %q", o.Driver)
	}
}

func (cfg *Config) newSampler() (core.Sampler, error) {
	o := cfg.SensorOptions
	var src sensor.Source
	switch o.Source {
	case "sim":
		src = sensor.NewSimSource(nil)
	case "file":
		src = &sensor.FileSource{Path: o.Path, Scale: o.Scale, Offset: o.Offset}
	default:
		return nil, fmt.Errorf("unknown sensor source %q", o.Source)
	}
	return sensor.NewSampler(src, o.SampleSize)
}
