package log

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time and duration", []any{"t", now, "d", time.Second}, []string{"t", "d"}},
		{"bytes as text", []any{"body", []byte(`{"status":"ok"}`)}, []string{"body"}},
		{"error only", []any{err}, []string{"error"}},
		{"error value", []any{"cause", err, "addr", netip.MustParseAddr("192.168.4.2")}, []string{"cause", "addr"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"nil values", []any{"a", nil, "b", (*int)(nil)}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			keys := make([]string, 0, len(fields))
			for _, f := range fields {
				require.NotEmpty(t, f.Key, "field has empty key: %+v", f)
				keys = append(keys, f.Key)
			}
			if len(tt.wantKeys) == 0 {
				assert.Empty(t, keys)
				return
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestBodiesAndAddressesStayReadable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	FromZap(zap.New(core)).Info("response",
		"body", []byte(`{"status":"ok"}`),
		"addr", netip.MustParseAddr("192.168.4.2"),
		"elapsed", 1500*time.Millisecond)

	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, `{"status":"ok"}`, ctx["body"])
	assert.Equal(t, 1500*time.Millisecond, ctx["elapsed"])
	assert.NotNil(t, ctx["addr"])
}

func TestFromZapRecordsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithName("wifi").WithValues("ssid", "Home")

	l.Info("connected", "ip", "192.168.1.20")
	l.Error(errors.New("stop failed"), "disconnect failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "wifi", entries[0].LoggerName)
	assert.Equal(t, "Home", entries[0].ContextMap()["ssid"])
	assert.Equal(t, "192.168.1.20", entries[0].ContextMap()["ip"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "stop failed", entries[1].ContextMap()["error"])
}

func TestOptionsValidate(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate())

	o.Level = "loud"
	o.Format = "xml"
	assert.Len(t, o.Validate(), 2)
}
