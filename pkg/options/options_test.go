package options

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWifiOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *WifiOptions)
		wantErr int
	}{
		{"defaults", func(o *WifiOptions) {}, 0},
		{"empty credentials are a per-cycle error", func(o *WifiOptions) { o.SSID, o.Password = "", "" }, 0},
		{"ssid at limit", func(o *WifiOptions) { o.SSID = strings.Repeat("s", MaxSSIDLen) }, 0},
		{"ssid too long", func(o *WifiOptions) { o.SSID = strings.Repeat("s", MaxSSIDLen+1) }, 1},
		{"password too long", func(o *WifiOptions) { o.Password = strings.Repeat("p", MaxPasswordLen+1) }, 1},
		{"unknown driver", func(o *WifiOptions) { o.Driver = "esp" }, 1},
		{"host without interface", func(o *WifiOptions) { o.Driver, o.Interface = "host", "" }, 1},
		{"zero timeout", func(o *WifiOptions) { o.ConnectTimeout = 0 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewWifiOptions()
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestEndpointOptions(t *testing.T) {
	o := NewEndpointOptions()
	require.Empty(t, o.Validate())
	assert.Equal(t, "http://127.0.0.1:8080/submit-reading", o.URL())
	assert.Equal(t, 10*time.Second, o.RequestTimeout)
	assert.Equal(t, 100, o.BufferCapacity)

	o.BaseURL = "http://collector.local/"
	assert.Equal(t, "http://collector.local/submit-reading", o.URL())

	o.BaseURL = "https://collector.local"
	o.BufferCapacity = 0
	o.Path = "submit"
	assert.Len(t, o.Validate(), 3)
}

func TestDeviceOptionsValidate(t *testing.T) {
	o := NewDeviceOptions()
	require.Empty(t, o.Validate())

	o.PlantName = "Basil"
	assert.Empty(t, o.Validate())

	o.PlantName = strings.Repeat("x", MaxPlantNameLen+1)
	assert.Len(t, o.Validate(), 1)

	o.PlantName = ""
	assert.Len(t, o.Validate(), 1)
}

func TestFlagsBindOptions(t *testing.T) {
	wifi := NewWifiOptions()
	endpoint := NewEndpointOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	wifi.AddFlags(fs)
	endpoint.AddFlags(fs)

	err := fs.Parse([]string{
		"--wifi.ssid=Home",
		"--wifi.password=pass1234",
		"--wifi.connect-timeout=2s",
		"--endpoint.base-url=http://10.0.0.2:8080",
		"--endpoint.buffer-capacity=64",
	})
	require.NoError(t, err)

	assert.Equal(t, "Home", wifi.SSID)
	assert.Equal(t, "pass1234", wifi.Password)
	assert.Equal(t, 2*time.Second, wifi.ConnectTimeout)
	assert.Equal(t, "http://10.0.0.2:8080/submit-reading", endpoint.URL())
	assert.Equal(t, 64, endpoint.BufferCapacity)
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(":8080"))
	assert.NoError(t, ValidateAddress("127.0.0.1:9100"))
	assert.Error(t, ValidateAddress("8080"))
	assert.Error(t, ValidateAddress("127.0.0.1:http"))
	assert.Error(t, ValidateAddress("127.0.0.1:70000"))
}

func TestOptionalGroupsDisabledByDefault(t *testing.T) {
	assert.False(t, NewMqttOptions().Enabled())
	assert.Empty(t, NewMqttOptions().Validate())

	h := NewHttpOptions("")
	assert.False(t, h.Enabled())
	assert.Empty(t, h.Validate())
}
