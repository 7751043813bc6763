// Package main provides the recorder: it consumes a captured interaction
// stream (JSON lines on stdin, e.g. piped from a capture bridge) and turns
// it into a stored workflow.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/assist"
	"github.com/replaykit/replaykit/pkg/cmd"
	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/optimizer"
	"github.com/replaykit/replaykit/pkg/patterns"
	"github.com/replaykit/replaykit/pkg/recorder"
	"github.com/replaykit/replaykit/pkg/store"
)

func main() {
	command := &cli.Command{
		Name:                  "replaykit-recorder",
		EnableShellCompletion: true,
		Usage:                 "Record a captured interaction stream into a workflow",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Name for the recorded workflow",
				Required: true,
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
				Name:    "pattern-store-url",
				Usage:   "Redis URL for the shared pattern table (in-memory if empty)",
				Sources: cli.EnvVars("PATTERN_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "no-optimize",
				Usage: "Disable real-time dedup during capture",
			},
		},
		Action: record,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("replaykit-recorder").Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func record(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("replaykit-recorder")

	st := store.NewStore(cmd.NewPersistence(command.String("database-url")))
	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	recognizer := patterns.NewRecognizer(cmd.NewPatternStore(command.String("pattern-store-url")), eventBus, logger)

	rec := recorder.NewRecorder(
		st,
		optimizer.NewOptimizer(logger),
		recognizer,
		assist.NewHeuristicNamer(),
		eventBus,
		logger,
	)

	settings := models.DefaultRecordingSettings()
	if command.Bool("no-optimize") {
		settings.AutoOptimize = false
	}

	sessionID, err := rec.Start(ctx, command.String("name"), settings, map[string]any{"source": "stdin"})
	if err != nil {
		return err
	}

	logger.Info("Recording from stdin, close the stream to finish", "session_id", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event models.CapturedEvent
		if err := json.Unmarshal(line, &event); err != nil {
			logger.Warn("Skipping malformed capture line", "error", err)

			continue
		}

		if err := rec.Record(ctx, event); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("capture stream failed: %w", err)
	}

	workflow, err := rec.Stop(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("recorded workflow %s (%d steps)\n", workflow.ID, workflow.Metadata.StepCount)

	return nil
}
