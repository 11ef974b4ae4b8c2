// Package graph talks to the Microsoft Graph mail API: client-credential
// token acquisition and the single-shot sendMail call.
package graph

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/planora/notify/internal/config"
)

const defaultScope = "https://graph.microsoft.com/.default"

// TokenSource yields a bearer token for the mail API. The boolean is false
// when no token is available; callers must treat that as "notifications
// disabled", never as an error to propagate.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// AzureTokens acquires tokens via the client-credential flow. It is
// constructed once per process and injected into every handler invocation;
// there is no process-global client. Tokens are re-acquired per call, not
// cached here.
type AzureTokens struct {
	conf   *clientcredentials.Config
	logger *slog.Logger
}

// NewAzureTokens builds the provider from configuration. When any of the
// three credential values is missing the provider is permanently disabled:
// it never attempts acquisition and consistently reports absence.
func NewAzureTokens(cfg config.Config, logger *slog.Logger) *AzureTokens {
	if !cfg.MailEnabled() {
		logger.Warn("mail_credentials_missing",
			"details", "AZURE_CLIENT_ID/AZURE_TENANT_ID/AZURE_CLIENT_SECRET incomplete, notifications disabled",
		)
		return &AzureTokens{logger: logger}
	}

	return &AzureTokens{
		conf: &clientcredentials.Config{
			ClientID:     cfg.AzureClientID,
			ClientSecret: cfg.AzureClientSecret,
			TokenURL:     authorityURL(cfg.AzureTenantID),
			Scopes:       []string{defaultScope},
		},
		logger: logger,
	}
}

// NewAzureTokensForEndpoint is like NewAzureTokens but against an explicit
// token endpoint. Used by tests.
func NewAzureTokensForEndpoint(clientID, clientSecret, tokenURL string, logger *slog.Logger) *AzureTokens {
	return &AzureTokens{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{defaultScope},
		},
		logger: logger,
	}
}

// AccessToken acquires a fresh token. Acquisition failures are logged and
// reported as absence; they never surface as errors.
func (a *AzureTokens) AccessToken(ctx context.Context) (string, bool) {
	if a.conf == nil {
		a.logger.Warn("token_skipped_mail_disabled")
		return "", false
	}

	tok, err := a.conf.Token(ctx)
	if err != nil {
		a.logger.Error("token_acquisition_failed", "error", err)
		return "", false
	}
	return tok.AccessToken, true
}

func authorityURL(tenantID string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/token"
}
