package main

import (
	"context"
	"os"
	"time"

	"github.com/dukex/ruleflow/pkg/cmd"
	"github.com/dukex/ruleflow/pkg/log"
	"github.com/dukex/ruleflow/pkg/scheduler"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "ruleflow-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Fire scheduled workflow rules on their cron expressions",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "Time zone cron expressions are evaluated in",
				Value:   "UTC",
				Sources: cli.EnvVars("SCHEDULER_TIMEZONE"),
			},
		}, cmd.CommonFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("ruleflow-scheduler")
			logger.InfoContext(ctx, "Initializing ruleflow scheduler")

			location, err := time.LoadLocation(command.String("timezone"))
			if err != nil {
				return err
			}

			rt, err := cmd.Bootstrap(ctx, command, "ruleflow-scheduler", logger)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			cronScheduler := scheduler.New(
				rt.Persistence.RuleRepository(),
				rt.Engine,
				logger,
				scheduler.WithLocation(location),
			)

			manager := NewSchedulerManager(cronScheduler, rt.EventBus, logger)

			err = manager.Run(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Scheduler stopped with error", "error", err)

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
