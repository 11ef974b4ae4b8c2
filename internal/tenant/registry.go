// Package tenant binds the notification pipeline to each tenant database.
// Every tenant gets its own connection, store, dispatcher and listener;
// nothing is shared across tenants and one tenant failing to connect or
// process events never affects the others.
package tenant

import (
	"context"
	"log/slog"

	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/planora/notify/internal/config"
	"github.com/planora/notify/internal/graph"
	"github.com/planora/notify/internal/notify"
	"github.com/planora/notify/internal/store"
)

// Binding is one tenant's fully wired pipeline.
type Binding struct {
	Name       string
	DB         *surrealdb.DB
	Store      store.Store
	Dispatcher *notify.Dispatcher
}

// Registry holds the connected tenant bindings.
type Registry struct {
	bindings map[string]*Binding
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. Connect is the usual entry point;
// tests assemble bindings by hand via Add.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		bindings: map[string]*Binding{},
		logger:   logger,
	}
}

// Add registers a wired binding under its tenant name.
func (r *Registry) Add(b *Binding) {
	r.bindings[b.Name] = b
}

// Connect dials every configured tenant and wires its pipeline. A tenant
// whose database is unreachable is logged and skipped; the registry still
// serves the rest.
func Connect(ctx context.Context, cfg config.Config, tokens graph.TokenSource, mailer graph.Sender, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	for _, name := range config.TenantKeys {
		url, configured := cfg.TenantURLs[name]
		if !configured {
			logger.Warn("tenant_not_configured", "tenant", name)
			continue
		}

		db, err := dial(ctx, cfg, name, url)
		if err != nil {
			logger.Error("tenant_connect_failed", "tenant", name, "error", err)
			continue
		}

		st := store.NewSurreal(db)
		r.Add(&Binding{
			Name:       name,
			DB:         db,
			Store:      st,
			Dispatcher: notify.NewDispatcher(name, st, tokens, mailer, logger),
		})
		logger.Info("tenant_connected", "tenant", name)
	}

	return r
}

func dial(ctx context.Context, cfg config.Config, name, url string) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, url)
	if err != nil {
		return nil, err
	}

	if cfg.DBUser != "" {
		if _, err := db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.DBUser,
			Password: cfg.DBPass,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
	}

	// One namespace, one database per tenant.
	if err := db.Use(ctx, cfg.DBNamespace, name); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// Get returns the binding for a tenant name.
func (r *Registry) Get(name string) (*Binding, bool) {
	b, ok := r.bindings[name]
	return b, ok
}

// Names lists the connected tenants.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.bindings))
	for _, key := range config.TenantKeys {
		if _, ok := r.bindings[key]; ok {
			names = append(names, key)
		}
	}
	return names
}

// Close tears down every tenant connection.
func (r *Registry) Close(ctx context.Context) {
	for name, b := range r.bindings {
		if b.DB == nil {
			continue
		}
		if err := b.DB.Close(ctx); err != nil {
			r.logger.Warn("tenant_close_failed", "tenant", name, "error", err)
		}
	}
}
