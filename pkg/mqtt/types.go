package mqtt

import (
	"context"
)

// Client is a publish-side MQTT client. It hides the underlying paho implementation.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error

	// Publish sends a message to the specified topic.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)
}
