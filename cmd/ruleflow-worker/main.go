package main

import (
	"context"
	"os"

	"github.com/dukex/ruleflow/pkg/cmd"
	"github.com/dukex/ruleflow/pkg/log"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "ruleflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Evaluate record changes against workflow rules",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
		}, cmd.CommonFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("ruleflow-worker")
			logger.InfoContext(ctx, "Initializing ruleflow worker")

			rt, err := cmd.Bootstrap(ctx, command, "ruleflow-worker", logger)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			worker := NewWorkerManager(workerID, rt.Engine, rt.Registry, rt.EventBus, logger)

			err = worker.Run(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)

				return err
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
