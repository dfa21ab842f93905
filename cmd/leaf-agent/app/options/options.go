package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/leaf/internal/leafagent"
	"github.com/autopeer-io/leaf/pkg/app"
	"github.com/autopeer-io/leaf/pkg/log"
	"github.com/autopeer-io/leaf/pkg/options"
)

type AgentOptions struct {
	DeviceOptions   *options.DeviceOptions   `json:"device" mapstructure:"device"`
	WifiOptions     *options.WifiOptions     `json:"wifi" mapstructure:"wifi"`
	EndpointOptions *options.EndpointOptions `json:"endpoint" mapstructure:"endpoint"`
	SensorOptions   *options.SensorOptions   `json:"sensor" mapstructure:"sensor"`
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	Log             *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		DeviceOptions:   options.NewDeviceOptions(),
		WifiOptions:     options.NewWifiOptions(),
		EndpointOptions: options.NewEndpointOptions(),
		SensorOptions:   options.NewSensorOptions(),
		HttpOptions:     options.NewHttpOptions(""),
		Log:             log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.DeviceOptions.AddFlags(fss.FlagSet("device"))
	o.WifiOptions.AddFlags(fss.FlagSet("wifi"))
	o.EndpointOptions.AddFlags(fss.FlagSet("endpoint"))
	o.SensorOptions.AddFlags(fss.FlagSet("sensor"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "leaf-agent"
	}
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.DeviceOptions.Validate()...)
	errs = append(errs, o.WifiOptions.Validate()...)
	errs = append(errs, o.EndpointOptions.Validate()...)
	errs = append(errs, o.SensorOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*leafagent.Config, error) {
	return &leafagent.Config{
		DeviceOptions:   o.DeviceOptions,
		WifiOptions:     o.WifiOptions,
		EndpointOptions: o.EndpointOptions,
		SensorOptions:   o.SensorOptions,
		HttpOptions:     o.HttpOptions,
	}, nil
}
