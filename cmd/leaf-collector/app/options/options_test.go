package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeOptionsDefaults(t *testing.T) {
	o := NewServeOptions()
	require.NoError(t, o.Complete())
	require.NoError(t, o.Validate())

	assert.Equal(t, ":8080", o.HttpOptions.Addr)
	assert.Equal(t, "leaf-collector", o.Log.Name)
	assert.Contains(t, o.CollectorID, "leaf-collector-")

	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.SQLiteOptions, cfg.SQLiteOptions)
	assert.False(t, cfg.MqttOptions.Enabled())
}

func TestServeOptionsValidate(t *testing.T) {
	o := NewServeOptions()
	o.HttpOptions.Addr = ""
	o.SQLiteOptions.Path = ""
	o.MqttOptions.Broker = "mqtt://broker:1883"
	o.MqttOptions.QoS = 3

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--http.addr is required")
	assert.Contains(t, err.Error(), "--sqlite.path is required")
	assert.Contains(t, err.Error(), "--mqtt.qos")
}

func TestListOptionsValidate(t *testing.T) {
	o := NewListOptions()
	o.Limit = 0
	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--plant is required")
	assert.Contains(t, err.Error(), "--limit must be positive")

	o.PlantName = "fern"
	o.Limit = 5
	assert.NoError(t, o.Validate())
}

func TestExportOptionsFlags(t *testing.T) {
	o := NewExportOptions()
	fss := o.Flags()
	assert.NotNil(t, fss.FlagSet("s3").Lookup("s3.bucket-name"))
	assert.NotNil(t, fss.FlagSet("sqlite").Lookup("sqlite.path"))

	o.S3Options.BucketName = ""
	assert.ErrorContains(t, o.Validate(), "--s3.bucket-name is required")
}
