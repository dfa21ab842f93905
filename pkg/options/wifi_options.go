package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

// Station credential limits.
const (
	MaxSSIDLen     = v1.MaxSSIDLen
	MaxPasswordLen = v1.MaxPasswordLen
)

var _ IOptions = (*WifiOptions)(nil)

// WifiOptions configures the station-mode network attachment.
type WifiOptions struct {
	// Driver selects the station implementation: "sim" or "host".
	Driver string `json:"driver" mapstructure:"driver"`

	// Interface is the host network interface used by the "host" driver.
	Interface string `json:"interface" mapstructure:"interface"`

	SSID     string `json:"ssid" mapstructure:"ssid"`
	Password string `json:"password" mapstructure:"password"`

	// ConnectTimeout bounds the wait for an assigned address.
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`

	// SimAddressDelay is how long the "sim" driver takes to hand out an address.
	// A negative value means the address never arrives.
	SimAddressDelay time.Duration `json:"sim-address-delay" mapstructure:"sim-address-delay"`
}

// NewWifiOptions creates a WifiOptions object with default parameters.
func NewWifiOptions() *WifiOptions {
	return &WifiOptions{
		Driver:          "sim",
		Interface:       "wlan0",
		ConnectTimeout:  5 * time.Second,
		SimAddressDelay: 500 * time.Millisecond,
	}
}

// Validate checks length bounds only. Empty credentials are reported per
// cycle by the connection manager, not at boot.
func (o *WifiOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	switch o.Driver {
	case "sim", "host":
	default:
		errs = append(errs, fmt.Errorf("unknown wifi driver %q, must be 'sim' or 'host'", o.Driver))
	}
	if o.Driver == "host" && o.Interface == "" {
		errs = append(errs, fmt.Errorf("--wifi.interface is required for the host driver"))
	}
	if len(o.SSID) > MaxSSIDLen {
		errs = append(errs, fmt.Errorf("wifi ssid is %d bytes, at most %d allowed", len(o.SSID), MaxSSIDLen))
	}
	if len(o.Password) > MaxPasswordLen {
		errs = append(errs, fmt.Errorf("wifi password is %d bytes, at most %d allowed", len(o.Password), MaxPasswordLen))
	}
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--wifi.connect-timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for WifiOptions to the specified FlagSet.
func (o *WifiOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, "wifi.driver", o.Driver, "Station implementation: 'sim' (simulated radio) or 'host' (existing host interface).")
	fs.StringVar(&o.Interface, "wifi.interface", o.Interface, "Host network interface used by the host driver.")
	fs.StringVar(&o.SSID, "wifi.ssid", o.SSID, "Network name of the access point (at most 31 bytes).")
	fs.StringVar(&o.Password, "wifi.password", o.Password, "Passphrase of the access point (at most 63 bytes).")
	fs.DurationVar(&o.ConnectTimeout, "wifi.connect-timeout", o.ConnectTimeout, "How long to wait for an assigned address.")
	fs.DurationVar(&o.SimAddressDelay, "wifi.sim-address-delay", o.SimAddressDelay, "Address assignment delay of the sim driver; negative never assigns.")
}
