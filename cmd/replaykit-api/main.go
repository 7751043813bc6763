// Package main provides the Replaykit API server implementation.
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/browser/rodsurface"
	"github.com/replaykit/replaykit/pkg/cmd"
	"github.com/replaykit/replaykit/pkg/execution"
	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/otelhelper"
	"github.com/replaykit/replaykit/pkg/store"
	"github.com/replaykit/replaykit/pkg/templates"
	"github.com/replaykit/replaykit/pkg/web"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	command := &cli.Command{
		Name:                  "replaykit-api",
		EnableShellCompletion: true,
		Usage:                 "Serve the workflow engine over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   8080,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Storage URL for workflows (file path or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "headless",
				Usage:   "Run the browser headless",
				Value:   true,
				Sources: cli.EnvVars("HEADLESS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: serve,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("replaykit-api").Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("replaykit-api")

	logger.InfoContext(ctx, "Initializing Replaykit API")

	persistence := cmd.NewPersistence(command.String("database-url"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	st := store.NewStore(persistence)

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	var tracer trace.Tracer

	if command.Bool("tracing") {
		var err error

		tracer, err = otelhelper.NewTracer(ctx, "replaykit-api")
		if err != nil {
			return err
		}
	}

	surface, err := rodsurface.New(ctx, command.Bool("headless"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := surface.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close browser", "error", err)
		}
	}()

	engine := execution.NewEngine(st, surface, eventBus, tracer, logger, execution.DefaultConfig())
	tmpl := templates.NewEngine(st, logger)

	handlers := web.NewAPIHandlers(
		st,
		engine,
		tmpl,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := web.NewApp(handlers)

	logger.InfoContext(ctx, "Listening", "port", command.Int("port"))

	return app.Listen(":" + strconv.Itoa(command.Int("port")))
}
