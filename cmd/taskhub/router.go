package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskhub/taskhub-api/internal/api"
	apiMiddleware "github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/ratelimit"
	"github.com/taskhub/taskhub-api/internal/web"
)

// setupRouter creates the router with the JSON API under /api, the health
// probe, and the HTML pages at the root.
func (app *application) setupRouter() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	loginLimit := ratelimit.NewMiddleware(app.loginLimiter, app.logger).Limit

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimit).Post("/token", authHandler.Token)
		r.Post("/token/refresh", authHandler.Refresh)
		r.Post("/users", userHandler.Signup)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/tasks", taskHandler.Routes)
			r.Get("/users", userHandler.List)
			r.Delete("/users/{id}", userHandler.Delete)
		})
	})

	r.Method(http.MethodGet, "/health", api.NewHealthHandler(app.healthChecks))

	pages, err := web.NewHandler(app.taskService, app.userService, app.jwtService, web.Options{
		Location:     app.config.App.Location(),
		SecureCookie: app.config.App.SecureCookies(),
	}, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web handler: %w", err)
	}
	pages.Routes(r, loginLimit)

	return r, nil
}
