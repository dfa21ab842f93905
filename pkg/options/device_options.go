package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

// MaxPlantNameLen bounds the device name carried in every reading.
const MaxPlantNameLen = v1.MaxPlantNameLen

var _ IOptions = (*DeviceOptions)(nil)

// DeviceOptions holds the boot-time identity of the device and its wake schedule.
type DeviceOptions struct {
	// PlantName identifies the device in every submitted reading.
	PlantName string `json:"plant-name" mapstructure:"plant-name"`

	// SleepInterval is the time spent asleep between two wake cycles.
	SleepInterval time.Duration `json:"sleep-interval" mapstructure:"sleep-interval"`

	// Once runs a single wake cycle and exits.
	Once bool `json:"once" mapstructure:"once"`
}

// NewDeviceOptions creates a DeviceOptions object with default parameters.
func NewDeviceOptions() *DeviceOptions {
	return &DeviceOptions{
		PlantName:     "leaf",
		SleepInterval: 8 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *DeviceOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.PlantName == "" {
		errs = append(errs, fmt.Errorf("--device.plant-name is required"))
	}
	if len(o.PlantName) > MaxPlantNameLen {
		errs = append(errs, fmt.Errorf("plant name is %d bytes, at most %d allowed", len(o.PlantName), MaxPlantNameLen))
	}
	if o.SleepInterval < 0 {
		errs = append(errs, fmt.Errorf("--device.sleep-interval must not be negative"))
	}

	return errs
}

// AddFlags adds flags for DeviceOptions to the specified FlagSet.
func (o *DeviceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.PlantName, "device.plant-name", o.PlantName, "Name of the monitored plant (at most 15 bytes).")
	fs.DurationVar(&o.SleepInterval, "device.sleep-interval", o.SleepInterval, "Sleep time between two wake cycles.")
	fs.BoolVar(&o.Once, "device.once", o.Once, "Run a single wake cycle and exit.")
}
