package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

// adminPasswordKey is read through config.LookupEnv, i.e. TASKHUB_ADMIN_PASSWORD.
const adminPasswordKey = "admin.password"

type createAdminOptions struct {
	username string
	email    string
	password string
}

func newCreateAdminCmd(load loadFunc) *cobra.Command {
	opts := createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "createadmin",
		Short: "Create a superuser account",
		Long: "Create a superuser account. Running it again for an existing " +
			"username leaves that account untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := opts.resolvePassword()
			if err != nil {
				return err
			}

			cfg, logger, err := load()
			if err != nil {
				return err
			}

			db, err := connectDatabase(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(
				postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger),
				auth.NewBcryptVerifier(),
				db,
				logger,
			)

			user, created, err := users.CreateAdmin(cmd.Context(), opts.username, opts.email, password)
			if err != nil {
				return fmt.Errorf("failed to create superuser: %w", err)
			}

			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "User %q already exists, nothing to do.\n", user.Username)
				return nil
			}
			logger.Info("superuser created", "user_id", user.ID, "username", user.Username)
			fmt.Fprintf(out, "Superuser %q created.\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "admin", "superuser username")
	cmd.Flags().StringVar(&opts.email, "email", "admin@taskhub.local", "superuser email")
	cmd.Flags().StringVar(&opts.password, "password", "",
		"superuser password (default $"+config.EnvName(adminPasswordKey)+")")
	return cmd
}

func (o createAdminOptions) resolvePassword() (string, error) {
	if o.password != "" {
		return o.password, nil
	}
	if v, ok := config.LookupEnv(adminPasswordKey); ok && v != "" {
		return v, nil
	}
	return "", errors.New("a password is required: pass --password or set " + config.EnvName(adminPasswordKey))
}
