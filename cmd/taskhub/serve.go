package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(load loadFunc) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the background job runner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateFirst bool) error {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("invalid redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	closeAll := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
	}

	if err := pingBackends(ctx, db, rdb); err != nil {
		closeAll()
		return err
	}
	logger.Info("backends reachable", "redis_enabled", rdb != nil)

	if migrateFirst {
		if err := postgres.MigrateUp(ctx, db, logger); err != nil {
			closeAll()
			return err
		}
	}

	app, err := newApplication(cfg, logger, db, rdb)
	if err != nil {
		closeAll()
		return err
	}

	handler, err := app.setupRouter()
	if err != nil {
		closeAll()
		return err
	}

	if err := app.runner.Start(); err != nil {
		closeAll()
		return fmt.Errorf("failed to start job runner: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			listenErr <- err
			// Route the failure through the same shutdown path as a signal.
			if p, findErr := os.FindProcess(os.Getpid()); findErr == nil {
				_ = p.Signal(syscall.SIGTERM)
			}
		}
	}()

	timeout := cfg.Server.ShutdownTimeout()
	wait := gfshutdown.GracefulShutdown(context.Background(), timeout, map[string]gfshutdown.Operation{
		"taskhub": func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			logger.Info("shutting down server")
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("server shutdown failed", "error", err)
			}
			return app.shutdown(ctx)
		},
	})

	code := <-wait
	logger.Info("shutdown complete", "exit_code", code)

	select {
	case err := <-listenErr:
		return fmt.Errorf("server error: %w", err)
	default:
	}
	if code != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", code)
	}
	return nil
}

// pingBackends checks the database and, when configured, Redis in parallel.
func pingBackends(ctx context.Context, db *sql.DB, rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		return nil
	})
	if rdb != nil {
		g.Go(func() error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to ping redis: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
