package main

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
)

const defaultMigrationsDir = "internal/platform/postgres/migrations"

// migrateActions are the goose commands run against the database.
var migrateActions = []struct {
	use, short string
	args       cobra.PositionalArgs
}{
	{"up", "Apply every pending migration", cobra.NoArgs},
	{"down", "Roll back the most recent migration", cobra.NoArgs},
	{"redo", "Roll back and reapply the most recent migration", cobra.NoArgs},
	{"reset", "Roll back every migration", cobra.NoArgs},
	{"status", "Show the state of each migration", cobra.NoArgs},
	{"version", "Print the current schema version", cobra.NoArgs},
}

func newMigrateCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	for _, action := range migrateActions {
		command := action.use
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: action.short,
			Args:  action.args,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := load()
				if err != nil {
					return err
				}

				db, err := connectDatabase(cmd.Context(), cfg.Database, logger)
				if err != nil {
					return err
				}
				defer db.Close()

				logger.Info("running migration", "command", command)
				return postgres.Migrate(cmd.Context(), db, logger, command)
			},
		})
	}

	cmd.AddCommand(newMigrateCreateCmd())
	return cmd
}

// newMigrateCreateCmd scaffolds a SQL migration. It touches only the
// filesystem, so it runs without configuration.
func newMigrateCreateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new SQL migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := goose.Create(nil, dir, args[0], "sql"); err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "migrations directory")
	return cmd
}
