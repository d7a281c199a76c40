package main

import (
	"context"
	"os"

	"github.com/dukex/ruleflow/pkg/cmd"
	"github.com/dukex/ruleflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "ruleflow-api",
		Usage:                 "Manage workflow rules and run them on demand",
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		}, cmd.CommonFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("ruleflow-api")
			logger.InfoContext(ctx, "Initializing ruleflow API")

			rt, err := cmd.Bootstrap(ctx, command, "ruleflow-api", logger)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			api := NewAPI(logger, rt.Persistence, rt.Engine, rt.Registry, rt.EventBus)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

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
