package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/planora/notify/internal/api"
	"github.com/planora/notify/internal/config"
	"github.com/planora/notify/internal/graph"
	"github.com/planora/notify/internal/tenant"
	"github.com/planora/notify/pkg/logger"
)

// listenerRetryDelay paces reconnects after a tenant's live feed drops.
const listenerRetryDelay = 5 * time.Second

func main() {
	// Dev convenience; in production we rely on system env vars.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Setup(cfg.Env)
	log.Info("application_startup", "env", cfg.Env)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
			Environment:      cfg.Env,
		})
		if err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	if err := cfg.Validate(); err != nil {
		log.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	if !cfg.MailEnabled() {
		log.Warn("mail_disabled", "details", "azure_credentials_incomplete")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := graph.NewAzureTokens(cfg, log)
	mailer := graph.NewMailer(cfg.GraphSenderUser, log)

	tenants := tenant.Connect(ctx, cfg, tokens, mailer, log)
	if len(tenants.Names()) == 0 {
		log.Error("no_tenants_connected")
		os.Exit(1)
	}
	defer tenants.Close(context.Background())
	log.Info("tenants_connected", "tenants", tenants.Names())

	for _, name := range tenants.Names() {
		b, _ := tenants.Get(name)
		go runListener(ctx, b, log)
	}

	server := api.NewServer(tenants, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("server_listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)

		// Stop the listeners first so no new dispatches start while the
		// HTTP server drains.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			if err := srv.Close(); err != nil {
				log.Error("server_force_close_failed", "error", err)
			}
		}

		log.Info("server_shutdown_complete")
	}
}

// runListener keeps one tenant's live feed alive, reconnecting after
// failures until the context is cancelled.
func runListener(ctx context.Context, b *tenant.Binding, log *slog.Logger) {
	l := tenant.NewListener(b, log)
	for {
		err := l.Run(ctx)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		log.Error("listener_stopped_unexpectedly", "tenant", b.Name, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(listenerRetryDelay):
		}
	}
}
