package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SensorOptions)(nil)

// SensorOptions configures the moisture probe.
type SensorOptions struct {
	// Source is "sim" or "file".
	Source string `json:"source" mapstructure:"source"`

	// Path is the raw ADC value file read by the "file" source,
	// e.g. /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
	Path string `json:"path" mapstructure:"path"`

	// Scale and Offset convert a raw sample into millivolts: mv = raw*Scale + Offset.
	Scale  float64 `json:"scale" mapstructure:"scale"`
	Offset float64 `json:"offset" mapstructure:"offset"`

	// SampleSize is the number of samples averaged into one reading.
	SampleSize int `json:"sample-size" mapstructure:"sample-size"`
}

// NewSensorOptions creates a SensorOptions object with default parameters.
func NewSensorOptions() *SensorOptions {
	return &SensorOptions{
		Source:     "sim",
		Path:       "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
		Scale:      1,
		SampleSize: 10,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SensorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	switch o.Source {
	case "sim":
	case "file":
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("--sensor.path is required for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sensor source %q, must be 'sim' or 'file'", o.Source))
	}
	if o.SampleSize <= 0 {
		errs = append(errs, fmt.Errorf("--sensor.sample-size must be positive"))
	}

	return errs
}

// AddFlags adds flags for SensorOptions to the specified FlagSet.
func (o *SensorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Source, "sensor.source", o.Source, "Sample source: 'sim' or 'file'.")
	fs.StringVar(&o.Path, "sensor.path", o.Path, "Raw ADC value file read by the file source.")
	fs.Float64Var(&o.Scale, "sensor.scale", o.Scale, "Calibration slope applied to raw samples.")
	fs.Float64Var(&o.Offset, "sensor.offset", o.Offset, "Calibration offset applied to raw samples.")
	fs.IntVar(&o.SampleSize, "sensor.sample-size", o.SampleSize, "Number of samples averaged into one reading.")
}
