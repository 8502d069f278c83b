package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/convopilot/convopilot/pkg/bots"
	"github.com/convopilot/convopilot/pkg/cache"
	"github.com/convopilot/convopilot/pkg/cmd"
	"github.com/convopilot/convopilot/pkg/lifecycle"
	"github.com/convopilot/convopilot/pkg/log"
	"github.com/convopilot/convopilot/pkg/otelhelper"
	"github.com/convopilot/convopilot/pkg/store/postgresql"
)

const defaultPort = 9092

const activeDocumentTTL = 5 * time.Minute

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "convopilot-api",
		Usage:                 "Manage and publish bot workflow versions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for version storage (postgres:// or a file path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the active document cache (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "integrations",
				Usage:   "Comma-separated integration slugs blueprints may reference",
				Sources: cli.EnvVars("INTEGRATIONS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for lifecycle operations",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Convopilot API")

			registry := cmd.NewNodeRegistry(logger)
			allowList := cmd.NewAllowList(command.String("integrations"))

			versionStore := cmd.NewVersionStore(ctx, logger, command.String("database-url"))

			defer func() {
				if err := versionStore.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close version store", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var botRepo bots.Repository = bots.AllowAll{}
			if pgStore, ok := versionStore.(*postgresql.Store); ok {
				botRepo = pgStore.Bots()
			}

			opts := []lifecycle.ControllerOption{lifecycle.WithEventBus(eventBus)}

			if redisURL := command.String("redis-url"); redisURL != "" {
				docCache, err := cache.NewActiveDocumentCache(logger, redisURL, activeDocumentTTL)
				if err != nil {
					return err
				}

				defer func() {
					if err := docCache.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close cache", "error", err)
					}
				}()

				opts = append(opts, lifecycle.WithCache(docCache))
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "convopilot-api")
				if err != nil {
					return err
				}

				opts = append(opts, lifecycle.WithTracer(tracer))
			}

			controller := lifecycle.NewController(logger, versionStore, registry, botRepo, allowList, opts...)

			api := NewAPI(logger, controller, registry)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
