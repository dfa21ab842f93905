package leafagent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/leaf/pkg/options"
)

func newTestConfig() *Config {
	return &Config{
		DeviceOptions:   options.NewDeviceOptions(),
		WifiOptions:     options.NewWifiOptions(),
		EndpointOptions: options.NewEndpointOptions(),
		SensorOptions:   options.NewSensorOptions(),
		HttpOptions:     options.NewHttpOptions(""),
	}
}

func TestNewAgentFromDefaults(t *testing.T) {
	a, err := newTestConfig().NewAgent()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, a.connectTimeout)
	assert.Equal(t, 8*time.Second, a.sleepInterval)
}

func TestNewAgentRejectsUnknownDrivers(t *testing.T) {
	cfg := newTestConfig()
	cfg.WifiOptions.Driver = "esp"
	_, err := cfg.NewAgent()
	assert.Error(t, err)

	cfg = newTestConfig()
	cfg.SensorOptions.Source = "i2c"
	_, err = cfg.NewAgent()
	assert.Error(t, err)
}

func TestStartOnceWithoutCredentialsFinishes(t *testing.T) {
	cfg := newTestConfig()
	cfg.DeviceOptions.Once = true
	cfg.HttpOptions.Addr = "127.0.0.1:0"

	a, err := cfg.NewAgent()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop after one cycle")
	}

	require.NotNil(t, a.LastReport())
	assert.Equal(t, "connect_failed", a.LastReport().Result)
}
