package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/vidshrink/cmd"
	"github.com/smazurov/vidshrink/internal/api"
	"github.com/smazurov/vidshrink/internal/config"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/logging"
	"github.com/smazurov/vidshrink/internal/metrics/exporters"
	"github.com/smazurov/vidshrink/internal/systemd"
)

func main() {
	// Shared by the API server and the subcommands.
	eventBus := events.New()

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}
		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		stopLogs := api.ForwardLogs(eventBus)

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			CORSOrigin:        opts.CorsOrigin,
			EventBus:          eventBus,
			PrometheusHandler: exporters.HTTPHandler(),
			Transcode:         opts.TranscodeOptions(""),
			OnListening: func() {
				if _, err := systemd.Ready(); err != nil {
					logger.Warn("Failed to notify systemd", "error", err)
				}
			},
		})
		watchdogCtx, stopWatchdog := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if _, err := opts.SessionOptions(); err != nil {
				logger.Error("Invalid preview settings", "error", err)
				os.Exit(1)
			}
			go systemd.Watchdog(watchdogCtx, logger)
			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			systemd.Stopping()
			stopWatchdog()
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			stopLogs()
		})
	})

	root := cli.Root()
	root.Use = "vidshrink"
	root.Short = "Plan and run size-constrained video encodes"
	root.AddCommand(
		cmd.CreateProbeCmd(eventBus),
		cmd.CreatePlanCmd(eventBus),
		cmd.CreateArgsCmd(eventBus),
		cmd.CreateEncodeCmd(eventBus),
		cmd.CreateThumbsCmd(eventBus),
		cmd.CreateVersionCmd(),
	)

	cli.Run()
}
