// Package main provides the workflow runner: execute stored workflows once
// or on a cron schedule, and import/export workflow documents.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "replaykit-runner",
		EnableShellCompletion: true,
		Usage:                 "Execute recorded browser workflows",
		Flags: []cli.Flag{
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
		},
		Commands: []*cli.Command{
			runCommand(),
			listCommand(),
			importCommand(),
			exportCommand(),
		},
	}

	log.Setup(os.Getenv("LOG_LEVEL"))

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("replaykit-runner").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
