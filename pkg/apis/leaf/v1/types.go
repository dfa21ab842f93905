// Package v1 holds the wire types exchanged between the leaf agent and the collector.
package v1

import (
	"encoding/json"
	"fmt"
)

// Field limits, leaving room for the terminating NUL on the radio side.
const (
	MaxSSIDLen      = 31
	MaxPasswordLen  = 63
	MaxPlantNameLen = 15
)

// Credentials are the station-mode credentials of one access point.
// They are populated once at boot and read-only afterwards.
type Credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.SSID != "" && c.Password != ""
}

// Reading is one telemetry sample submitted by a device.
type Reading struct {
	PlantName string  `json:"plant_name"`
	Value     float64 `json:"value"`
}

// Marshal encodes the reading as the JSON submission body.
func (r Reading) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal reading: %w", err)
	}
	return b, nil
}

// SubmitResponse is the collector's reply to an accepted reading.
// It is kept short enough to fit the device's response buffer.
type SubmitResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// StoredReading is a reading as persisted by the collector.
type StoredReading struct {
	ID        int64   `json:"id"`
	PlantName string  `json:"plant_name"`
	Value     float64 `json:"value"`
	// ServerTimestamp is the collector-side receive time in RFC 3339.
	ServerTimestamp string `json:"server_timestamp"`
}
