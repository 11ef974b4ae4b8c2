// Package api exposes the notifier's small HTTP surface: a health probe
// and the caller-driven notification endpoints, scoped per tenant.
package api

import (
	"log/slog"
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	customMiddleware "github.com/planora/notify/internal/api/middleware"
	"github.com/planora/notify/internal/tenant"
)

type Server struct {
	Router  *chi.Mux
	Tenants *tenant.Registry
	Logger  *slog.Logger
}

func NewServer(tenants *tenant.Registry, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Sentry before recovery so it sees the panic first.
	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
	})
	r.Use(sentryHandler.Handle)

	r.Use(customMiddleware.RequestLogger)
	r.Use(customMiddleware.PanicRecovery)

	limiter := customMiddleware.NewIPRateLimiter(5, 10)
	r.Use(limiter.Middleware)

	notifyHandler := NewNotifyHandler(tenants, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1/{tenant}/notify", func(r chi.Router) {
		r.Post("/project-tags", notifyHandler.ProjectTags)
		r.Post("/owner-assigned", notifyHandler.OwnerAssigned)
		r.Post("/charter", notifyHandler.Charter)
		r.Post("/risk", notifyHandler.Risk)
	})

	return &Server{
		Router:  r,
		Tenants: tenants,
		Logger:  logger,
	}
}
