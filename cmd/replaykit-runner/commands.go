package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/browser/rodsurface"
	"github.com/replaykit/replaykit/pkg/cmd"
	"github.com/replaykit/replaykit/pkg/execution"
	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/scheduler"
	"github.com/replaykit/replaykit/pkg/store"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a workflow by ID, once or on a cron schedule",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Workflow parameter as name=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Replay on this cron expression instead of running once",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := command.Args().First()
			if workflowID == "" {
				return fmt.Errorf("workflow ID argument is required")
			}

			logger := log.WithModule("replaykit-runner")

			parameters, err := parseParams(command.StringSlice("param"))
			if err != nil {
				return err
			}

			st := store.NewStore(cmd.NewPersistence(command.String("database-url")))
			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			surface, err := rodsurface.New(ctx, command.Bool("headless"), logger)
			if err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}

			defer func() {
				if err := surface.Close(); err != nil {
					logger.Error("Failed to close browser", "error", err)
				}
			}()

			engine := execution.NewEngine(st, surface, eventBus, nil, logger, execution.DefaultConfig())

			if cronExpr := command.String("cron"); cronExpr != "" {
				return runScheduled(ctx, engine, workflowID, parameters, cronExpr, logger)
			}

			result, err := engine.Execute(ctx, workflowID, parameters)
			if err != nil {
				if result != nil {
					logger.Error("Workflow failed",
						"execution_id", result.ID,
						"failed_step", result.CurrentStep,
					)
				}

				return err
			}

			logger.Info("Workflow completed",
				"execution_id", result.ID,
				"duration", result.Duration(),
			)

			return nil
		},
	}
}

func runScheduled(
	ctx context.Context,
	engine *execution.Engine,
	workflowID string,
	parameters map[string]string,
	cronExpr string,
	logger *slog.Logger,
) error {
	sched := scheduler.NewScheduler(engine)

	err := sched.Add(scheduler.Entry{
		CronExpr:   cronExpr,
		WorkflowID: workflowID,
		Parameters: parameters,
	})
	if err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	logger.Info("Scheduler running, press Ctrl+C to stop", "cron", cronExpr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case <-ctx.Done():
	}

	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored workflows",
		Action: func(ctx context.Context, command *cli.Command) error {
			st := store.NewStore(cmd.NewPersistence(command.String("database-url")))

			workflows, err := st.Workflows(ctx)
			if err != nil {
				return err
			}

			for _, workflow := range workflows {
				fmt.Printf("%s  %-30s  steps=%d  complexity=%.1f\n",
					workflow.ID, workflow.Name, workflow.Metadata.StepCount, workflow.Metadata.Complexity)
			}

			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a workflow JSON document",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			if err := models.ValidateWorkflowJSON(data); err != nil {
				return err
			}

			var workflow models.Workflow
			if err := json.Unmarshal(data, &workflow); err != nil {
				return fmt.Errorf("failed to decode workflow: %w", err)
			}

			st := store.NewStore(cmd.NewPersistence(command.String("database-url")))

			saved, err := st.SaveWorkflow(ctx, &workflow)
			if err != nil {
				return err
			}

			fmt.Printf("imported workflow %s\n", saved.ID)

			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Print a workflow as JSON",
		ArgsUsage: "<workflow-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := command.Args().First()
			if workflowID == "" {
				return fmt.Errorf("workflow ID argument is required")
			}

			st := store.NewStore(cmd.NewPersistence(command.String("database-url")))

			workflow, err := st.WorkflowByID(ctx, workflowID)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(workflow, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(data))

			return nil
		},
	}
}

func parseParams(pairs []string) (map[string]string, error) {
	parameters := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}

		parameters[name] = value
	}

	return parameters, nil
}
