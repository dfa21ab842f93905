package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/leaf/cmd/leaf-agent/app/options"
	"github.com/autopeer-io/leaf/pkg/app"
	"github.com/autopeer-io/leaf/pkg/log"
)

const (
	commandName = "leaf-agent"
	commandDesc = `The leaf agent runs on the plant probe. Each wake cycle it samples the
moisture sensor, joins the configured wireless network, posts one reading to the
collector, disconnects and sleeps until the next cycle.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	application := app.NewApp(
		commandName,
		"Launch a leaf probe agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.AgentOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Start(ctx)
	}
}
