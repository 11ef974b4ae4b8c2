// Package config loads the notifier's environment configuration.
//
// The notification core is deliberately tolerant of missing configuration:
// absent mail credentials disable outbound mail (logged once at startup),
// and an absent tenant URL simply leaves that tenant unbound. Nothing in
// here is fatal except an empty tenant set.
package config

import (
	"fmt"
	"os"
	"strings"
)

// TenantKeys are the four recognized tenant databases ("sites"). Each key
// maps to a DB_URL_<KEY> environment variable holding that tenant's
// SurrealDB endpoint.
var TenantKeys = []string{"central", "norte", "sur", "bajio"}

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPPort string

	// Client-credential identity for the Microsoft Graph mail API.
	// If any of the three is empty the notification core degrades to
	// no-op sends.
	AzureClientID     string
	AzureTenantID     string
	AzureClientSecret string

	// Optional "send as" mailbox. Empty means "send as the authenticated
	// principal" (/me/sendMail).
	GraphSenderUser string

	// Tenant database endpoints, keyed by tenant name. Only keys from
	// TenantKeys appear here, and only when the corresponding URL is set.
	TenantURLs map[string]string

	// Shared database credentials and namespace for all tenants.
	DBNamespace string
	DBUser      string
	DBPass      string

	SentryDSN string
}

// Load reads configuration from environment variables.
func Load() Config {
	cfg := Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("PORT", "8085"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		GraphSenderUser:   os.Getenv("GRAPH_SENDER_USER"),
		DBNamespace:       getEnv("DB_NAMESPACE", "planora"),
		DBUser:            os.Getenv("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		TenantURLs:        map[string]string{},
	}

	for _, key := range TenantKeys {
		if url := os.Getenv(tenantURLVar(key)); url != "" {
			cfg.TenantURLs[key] = url
		}
	}

	return cfg
}

// MailEnabled reports whether the Graph client-credential identity is
// complete. When false, every handler still runs but performs no sends.
func (c Config) MailEnabled() bool {
	return c.AzureClientID != "" && c.AzureTenantID != "" && c.AzureClientSecret != ""
}

// Validate checks the minimum viable configuration.
func (c Config) Validate() error {
	if len(c.TenantURLs) == 0 {
		return fmt.Errorf("no tenant database configured (set at least one of %s)", tenantURLVar(TenantKeys[0]))
	}
	return nil
}

func tenantURLVar(key string) string {
	return "DB_URL_" + strings.ToUpper(key)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
