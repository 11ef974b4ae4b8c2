package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planora/notify/internal/store"
)

// unknownUser is the presentation fallback when a display name cannot be
// resolved at all.
const unknownUser = "Usuario desconocido"

// lookupEmail resolves a user's notification address from the tenant
// directory. Absence is reported as (_, false), never as an error; the
// warning includes the raw record so missing-email entries can be traced
// operationally.
func lookupEmail(ctx context.Context, st store.Store, logger *slog.Logger, userID string) (string, bool) {
	if userID == "" {
		return "", false
	}

	user, err := st.GetUser(ctx, userID)
	if err != nil {
		logger.Warn("directory_lookup_failed", "user_id", userID, "error", err)
		return "", false
	}
	if user == nil {
		logger.Warn("directory_entry_missing", "user_id", userID)
		return "", false
	}
	if user.Email == "" {
		logger.Warn("directory_entry_without_email",
			"user_id", userID,
			"record", fmt.Sprintf("%+v", *user),
		)
		return "", false
	}
	return user.Email, true
}

// lookupDisplayName resolves a user's presentation name with the fallback
// chain: display name, legacy name field, email, fixed placeholder. It
// never returns an empty string.
func lookupDisplayName(ctx context.Context, st store.Store, logger *slog.Logger, userID string) string {
	if userID == "" {
		return unknownUser
	}

	user, err := st.GetUser(ctx, userID)
	if err != nil {
		logger.Warn("directory_lookup_failed", "user_id", userID, "error", err)
		return unknownUser
	}
	if user == nil {
		return unknownUser
	}
	switch {
	case user.DisplayName != "":
		return user.DisplayName
	case user.Name != "":
		return user.Name
	case user.Email != "":
		return user.Email
	}
	return unknownUser
}
