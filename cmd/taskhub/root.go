package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "taskhub",
		Short:         "TaskHub task tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a config file (default ./config.yaml when present)")

	load := func() (*config.Config, *slog.Logger, error) {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		log, err := logger.Setup(cfg.Server)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
		}
		return cfg, log, nil
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newCreateAdminCmd(load))
	return root
}

// loadFunc loads configuration and installs the configured logger.
type loadFunc func() (*config.Config, *slog.Logger, error)
