package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/leaf/cmd/leaf-collector/app/options"
	"github.com/autopeer-io/leaf/internal/collector/service"
	"github.com/autopeer-io/leaf/internal/collector/storage/s3"
	"github.com/autopeer-io/leaf/pkg/app"
	"github.com/autopeer-io/leaf/pkg/log"
)

const (
	commandName = "leaf-collector"
	commandDesc = `The leaf collector receives readings posted by leaf probes, stores them
in sqlite and optionally forwards them over MQTT. It also lists stored readings
and exports them as CSV to S3-compatible storage.`
)

func NewApp() *app.App {
	return app.NewApp(
		commandName,
		"Collect and manage leaf probe readings",
		app.WithDescription(commandDesc),
		app.WithDefaultValidArgs(),
		app.WithSubCommands(newServeApp(), newListApp(), newExportApp()),
	)
}

func newServeApp() *app.App {
	opts := options.NewServeOptions()
	return app.NewApp(
		"serve",
		"Accept readings over HTTP",
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(),
		app.WithRunFunc(runServe(opts)),
	)
}

func runServe(opts *options.ServeOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		c, err := cfg.NewCollector(ctx)
		if err != nil {
			return fmt.Errorf("failed to create collector: %w", err)
		}

		return c.Start(ctx)
	}
}

func newListApp() *app.App {
	opts := options.NewListOptions()
	return app.NewApp(
		"list",
		"Print the newest readings of a plant",
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(runList(opts)),
	)
}

func runList(opts *options.ListOptions) app.RunFunc {
	return func() error {
		ctx := context.Background()

		cfg, err := opts.Config()
		if err != nil {
			return err
		}
		svc, db, err := cfg.OpenService(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		readings, err := svc.List(ctx, opts.PlantName, opts.Limit)
		if errors.Is(err, service.ErrNotFound) {
			_, err = fmt.Fprintf(opts.Out, "No readings for plant %q\n", opts.PlantName)
			return err
		}
		if err != nil {
			return err
		}

		table := uitable.New()
		table.MaxColWidth = 40
		table.AddRow("ID", "PLANT", "MOISTURE", "RECEIVED")
		for _, r := range readings {
			table.AddRow(r.ID, r.PlantName, r.Value, r.ServerTimestamp)
		}
		_, err = fmt.Fprintln(opts.Out, table)
		return err
	}
}

func newExportApp() *app.App {
	opts := options.NewExportOptions()
	return app.NewApp(
		"export",
		"Upload all readings as CSV to S3-compatible storage",
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(runExport(opts)),
	)
}

func runExport(opts *options.ExportOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		svc, db, err := cfg.OpenService(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		store, err := cfg.NewObjectStore()
		if err != nil {
			return err
		}

		key := s3.ExportKey(opts.S3Options.KeyPrefix, time.Now())
		location, n, err := svc.Export(ctx, store, key)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		log.Info("Export complete", "location", location, "rows", n)
		return nil
	}
}
