package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/taskhub/taskhub-api/internal/api"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/notify"
	"github.com/taskhub/taskhub-api/internal/platform/mail"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"github.com/taskhub/taskhub-api/internal/ratelimit"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

// application holds the dependencies shared by the HTTP handlers.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskService service.TaskService
	userService service.UserService
	jwtService  auth.JWTService

	// loginLimiter throttles credential endpoints; nil disables throttling.
	loginLimiter ratelimit.Limiter
	healthChecks map[string]api.HealthCheck

	// Background machinery, nil in router tests.
	db     *sql.DB
	redis  *redis.Client
	runner *job.Runner
}

// newApplication wires stores, services and the notification pipeline on
// top of an open database. rdb may be nil when Redis is not configured.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	rdb *redis.Client,
) (*application, error) {
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	jobStore := postgres.NewPostgresJobStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	sender, err := mail.New(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}

	runner := job.NewRunner(jobStore, job.RunnerConfigFrom(cfg.Jobs), logger)
	notify.NewHandlers(
		taskStore,
		userStore,
		sender,
		notify.NewMessages(cfg.App.BaseURL, cfg.App.Location()),
		cfg.Mail.From,
		logger,
	).Register(runner)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(notify.NewScheduler(runner, logger),
		events.TypeTaskCreated, events.TypeTaskReplaced, events.TypeTaskUpdated)

	taskService, err := service.NewTaskService(taskStore, userStore, db, emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	userService := service.NewUserService(userStore, auth.NewBcryptVerifier(), db, logger)

	app := &application{
		config:      cfg,
		logger:      logger,
		taskService: taskService,
		userService: userService,
		jwtService:  jwtService,
		healthChecks: map[string]api.HealthCheck{
			"database": db.PingContext,
		},
		db:     db,
		redis:  rdb,
		runner: runner,
	}

	if rdb != nil {
		app.loginLimiter = ratelimit.NewSlidingWindow(
			rdb,
			cfg.Redis.LoginLimit,
			cfg.Redis.LoginWindow(),
			ratelimit.DefaultKeyPrefix,
		)
		app.healthChecks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	return app, nil
}

// shutdown stops the application in dependency order: the job runner
// first, so no worker touches a closed pool, then Redis and the database.
func (app *application) shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if app.runner != nil {
		keep(app.runner.Shutdown(ctx))
	}
	if app.redis != nil {
		keep(app.redis.Close())
	}
	if app.db != nil {
		keep(app.db.Close())
	}
	return firstErr
}
