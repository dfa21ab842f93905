package core

import (
	"context"

	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
)

// Station is the station-mode networking stack and radio the agent drives.
// Implementations deliver events asynchronously through registered handlers.
type Station interface {
	// Init brings up the network interface layer and the radio in station mode.
	Init(ctx context.Context) error

	// Configure applies the credentials used by the next association.
	Configure(creds v1.Credentials) error

	// Start powers the radio. A LinkStarted event follows.
	Start() error

	// Associate issues the connect request to the configured access point.
	Associate() error

	// Stop powers the radio down.
	Stop() error

	// Deinit releases everything acquired by Init.
	Deinit() error

	// Register subscribes h to all events of base.
	Register(base EventBase, h EventHandler) (Registration, error)
}
