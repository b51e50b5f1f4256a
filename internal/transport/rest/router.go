package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/user-access-management/internal"
	"github.com/frahmantamala/user-access-management/internal/auth"
	"github.com/frahmantamala/user-access-management/internal/transport/middleware"
	"github.com/frahmantamala/user-access-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterAllRoutes wires the HTTP surface: public auth endpoints, the
// session-protected API, docs, metrics and health. db may be nil when the
// memory store is in use.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, obs internal.ObservabilityConfig, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	if obs.Metrics.Enabled {
		router.Handle(obs.Metrics.Path, promhttp.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// public: login and logout never require a session
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/logout", authHandler.Logout)
		})

		// everything else requires an authenticated principal
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.SessionMiddleware)

			pr.Get("/users/me", authHandler.Me)

			// registration is an administrator-only resource
			pr.Group(func(ar chi.Router) {
				ar.Use(authHandler.RequireResource("/admin"))
				ar.Post("/users", authHandler.Register)
			})
		})
	})
}
