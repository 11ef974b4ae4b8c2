// Package store provides read access to a tenant database. The notifier
// only reads the entities the web client writes; its single write is the
// notification log.
package store

import (
	"context"

	"github.com/planora/notify/internal/domain"
)

// Store is a read-only view over one tenant's database. Every lookup
// returns (nil, nil) when the record does not exist: absence is a normal
// outcome for this core, never an error.
type Store interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	GetUser(ctx context.Context, id string) (*domain.DirectoryUser, error)

	// ListProjects and ListTasks seed the listener's before-image cache
	// at startup.
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)

	// LogNotification appends a dispatch record to the tenant's
	// notification log. Best effort; callers log and continue on error.
	LogNotification(ctx context.Context, entry NotificationEntry) error
}

// NotificationEntry is the compact audit record written after a successful
// send.
type NotificationEntry struct {
	DispatchID string `json:"dispatchId"`
	Kind       string `json:"kind"`
	EntityID   string `json:"entityId,omitempty"`
	Recipients int    `json:"recipients"`
	SentAt     int64  `json:"sentAt"`
}
