package collector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/autopeer-io/leaf/internal/collector/core"
	"github.com/autopeer-io/leaf/internal/collector/notifier"
	"github.com/autopeer-io/leaf/internal/collector/service"
	"github.com/autopeer-io/leaf/internal/collector/storage/s3"
	"github.com/autopeer-io/leaf/internal/collector/storage/sqlite"
	"github.com/autopeer-io/leaf/pkg/log"
	"github.com/autopeer-io/leaf/pkg/options"
)

// Config is the completed configuration of a collector command. Sections a
// command does not use are nil.
type Config struct {
	CollectorID   string
	SQLiteOptions *options.SQLiteOptions
	HttpOptions   *options.HttpOptions
	MqttOptions   *options.MqttOptions
	S3Options     *options.S3Options
}

// NewCollector opens the store and wires the HTTP API and, when a broker is
// configured, the MQTT notifier.
func (cfg *Config) NewCollector(ctx context.Context) (*Collector, error) {
	db, err := sqlite.Open(ctx, cfg.SQLiteOptions)
	if err != nil {
		return nil, err
	}
	repo := sqlite.NewReadingRepository(db)

	c := &Collector{
		db:          db,
		repo:        repo,
		httpOptions: cfg.HttpOptions,
	}

	opts := []service.Option{service.WithLogger(log.WithName("reading-service"))}
	if cfg.MqttOptions.Enabled() {
		n, err := notifier.NewMQTTNotifier(cfg.MqttOptions, cfg.CollectorID)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create mqtt notifier: %w", err)
		}
		c.notifier = n
		opts = append(opts, service.WithNotifier(n))
	}
	c.svc = service.NewReadingService(repo, opts...)
	return c, nil
}

// OpenService opens the store for one-shot commands. The returned DB must be closed.
func (cfg *Config) OpenService(ctx context.Context) (*service.ReadingService, *sql.DB, error) {
	db, err := sqlite.Open(ctx, cfg.SQLiteOptions)
	if err != nil {
		return nil, nil, err
	}
	return service.NewReadingService(sqlite.NewReadingRepository(db)), db, nil
}

// NewObjectStore creates the export target.
func (cfg *Config) NewObjectStore() (core.ObjectStore, error) {
	return s3.NewMinIOStore(cfg.S3Options)
}
