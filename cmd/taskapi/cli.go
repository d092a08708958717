package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/urfave/cli/v2"
)

// deps are the command implementations, replaceable in tests.
type deps struct {
	LoadConfig   func(path string) (*config.Config, error)
	RunServer    func(ctx context.Context, cfg *config.Config) error
	RunMigrate   func(ctx context.Context, cfg *config.Config, command string) error
	RunReconcile func(ctx context.Context, cfg *config.Config) error
}

func defaultDeps() deps {
	return deps{
		LoadConfig:   config.Load,
		RunServer:    runServer,
		RunMigrate:   runMigrate,
		RunReconcile: runReconcile,
	}
}

// migrateCommands are the goose commands exposed under "migrate".
var migrateCommands = []struct {
	name  string
	usage string
}{
	{"up", "apply all pending migrations"},
	{"down", "roll back the most recent migration"},
	{"status", "print the status of every migration"},
	{"version", "print the current schema version"},
}

func buildApp(d deps) *cli.App {
	serve := func(c *cli.Context) error {
		cfg, err := loadConfig(c, d)
		if err != nil {
			return err
		}
		return d.RunServer(c.Context, cfg)
	}

	migrate := make([]*cli.Command, 0, len(migrateCommands))
	for _, mc := range migrateCommands {
		command := mc.name
		migrate = append(migrate, &cli.Command{
			Name:  command,
			Usage: mc.usage,
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c, d)
				if err != nil {
					return err
				}
				return d.RunMigrate(c.Context, cfg, command)
			},
		})
	}

	return &cli.App{
		Name:  "taskapi",
		Usage: "task board REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a config file (yaml, toml or json)",
				EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:        "migrate",
				Usage:       "manage the PostgreSQL schema",
				Subcommands: migrate,
			},
			{
				Name:  "reconcile",
				Usage: "repair task assignments and pendingTasks once, then exit",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c, d)
					if err != nil {
						return err
					}
					return d.RunReconcile(c.Context, cfg)
				},
			},
		},
	}
}

func loadConfig(c *cli.Context, d deps) (*config.Config, error) {
	if d.LoadConfig == nil {
		return nil, errors.New("config loader is not configured")
	}
	cfg, err := d.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
