package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/leaf/internal/collector/core"
	"github.com/autopeer-io/leaf/internal/pkg/metrics"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
	pkgmqtt "github.com/autopeer-io/leaf/pkg/mqtt"
	"github.com/autopeer-io/leaf/pkg/mqtt/topic"
	"github.com/autopeer-io/leaf/pkg/options"
)

// Status payloads on the retained status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

var _ core.ReadingNotifier = (*MQTTNotifier)(nil)

// MQTTNotifier publishes accepted readings on {root}/readings/{plant} and
// keeps a retained online/offline flag on {root}/status/{id}.
type MQTTNotifier struct {
	client  pkgmqtt.Client
	topics  *topic.Builder
	id      string
	qos     int
	started bool
}

// NewMQTTNotifier creates a notifier with its own client. The broker is
// told to publish StatusOffline if the collector drops without a goodbye.
func NewMQTTNotifier(opts *options.MqttOptions, collectorID string) (*MQTTNotifier, error) {
	topics := topic.NewBuilder(opts.TopicRoot)

	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = collectorID
	}
	cfg.WillTopic = topics.Status(collectorID)
	cfg.WillPayload = []byte(StatusOffline)
	cfg.WillQoS = 1
	cfg.WillRetain = true

	client, err := pkgmqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return newMQTTNotifier(client, topics, collectorID, opts.QoS), nil
}

func newMQTTNotifier(client pkgmqtt.Client, topics *topic.Builder, id string, qos int) *MQTTNotifier {
	return &MQTTNotifier{client: client, topics: topics, id: id, qos: qos}
}

// Start connects in the background and announces the collector once the
// first connection is up. It returns after the announcement or when ctx ends.
func (n *MQTTNotifier) Start(ctx context.Context) error {
	if err := n.client.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}
	n.started = true

	if err := n.client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("await mqtt connection: %w", err)
	}
	if err := n.client.Publish(ctx, n.topics.Status(n.id), 1, true, []byte(StatusOnline)); err != nil {
		return fmt.Errorf("publish online status: %w", err)
	}
	log.Info("Collector announced on MQTT", "topic", n.topics.Status(n.id))
	return nil
}

func (n *MQTTNotifier) Notify(ctx context.Context, reading v1.StoredReading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}

	if err := n.client.Publish(ctx, n.topics.Readings(reading.PlantName), n.qos, false, payload); err != nil {
		metrics.CollectorPublishFailuresTotal.Inc()
		return fmt.Errorf("publish reading %d: %w", reading.ID, err)
	}
	return nil
}

// Stop marks the collector offline and disconnects.
func (n *MQTTNotifier) Stop(ctx context.Context) {
	if !n.started {
		return
	}
	if err := n.client.Publish(ctx, n.topics.Status(n.id), 1, true, []byte(StatusOffline)); err != nil {
		log.Warn("Failed to publish offline status", "error", err)
	}
	n.client.Disconnect(ctx)
}
