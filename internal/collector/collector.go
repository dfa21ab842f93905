// Package collector is the remote endpoint devices submit readings to.
package collector

import (
	"context"
	"database/sql"
	"time"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/leaf/internal/collector/core"
	"github.com/autopeer-io/leaf/internal/collector/handler"
	"github.com/autopeer-io/leaf/internal/collector/notifier"
	"github.com/autopeer-io/leaf/internal/collector/service"
	"github.com/autopeer-io/leaf/internal/pkg/server"
	httpserver "github.com/autopeer-io/leaf/internal/pkg/server/http"
	"github.com/autopeer-io/leaf/pkg/log"
	"github.com/autopeer-io/leaf/pkg/options"
)

const notifierStopTimeout = 2 * time.Second

type Collector struct {
	db          *sql.DB
	repo        core.ReadingRepository
	svc         *service.ReadingService
	notifier    *notifier.MQTTNotifier
	httpOptions *options.HttpOptions
}

func (c *Collector) Service() *service.ReadingService { return c.svc }

// Handler returns the collector's HTTP API. It is ready while the store answers pings.
func (c *Collector) Handler() *mux.Router {
	return handler.NewRouter(c.svc, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return c.repo.Ping(ctx)
	}, 0, log.WithName("http"))
}

// Start serves until ctx ends, then closes the store.
func (c *Collector) Start(ctx context.Context) error {
	defer c.Close()

	m := server.NewManager(httpserver.NewServer(c.httpOptions, c.Handler()))
	if c.notifier != nil {
		m.Add(server.Func(c.runNotifier))
	}
	return m.Start(ctx)
}

// runNotifier keeps the broker session for the collector's lifetime. An
// unreachable broker is not fatal: readings are still stored.
func (c *Collector) runNotifier(ctx context.Context) error {
	if err := c.notifier.Start(ctx); err != nil && ctx.Err() == nil {
		log.Warn("MQTT notifier not announced, readings will be forwarded once connected", "error", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), notifierStopTimeout)
	defer cancel()
	c.notifier.Stop(stopCtx)
	return nil
}

func (c *Collector) Close() error {
	return c.db.Close()
}
