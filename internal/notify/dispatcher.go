// Package notify contains the notification core: the change detector, the
// recipient and directory resolvers, and the event handlers that compose
// them into outbound emails.
//
// Every exported handler is wrapped in a single boundary combinator that
// guarantees the terminal failure policy: no error or panic raised while
// composing or sending an email ever escapes to the caller, because the
// triggering database mutation already succeeded independently of us.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/planora/notify/internal/domain"
	"github.com/planora/notify/internal/graph"
	"github.com/planora/notify/internal/render"
	"github.com/planora/notify/internal/store"
)

// actorFallback names the actor when the triggering event carries no
// authorship information (updates and deletes arrive without one).
const actorFallback = "Un miembro del equipo"

// Dispatcher binds the notification pipeline to one tenant. It holds no
// mutable state; every handler invocation re-reads what it needs and
// re-acquires its own token.
type Dispatcher struct {
	Tenant string
	Store  store.Store
	Tokens graph.TokenSource
	Mailer graph.Sender
	Logger *slog.Logger
}

// NewDispatcher wires the pipeline for a tenant database handle.
func NewDispatcher(tenant string, st store.Store, tokens graph.TokenSource, mailer graph.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		Tenant: tenant,
		Store:  st,
		Tokens: tokens,
		Mailer: mailer,
		Logger: logger,
	}
}

// invocation carries the per-event dispatch id and scoped logger through
// one handler run. It is created per invocation and never shared.
type invocation struct {
	id  string
	log *slog.Logger
}

// run is the uniform handler boundary: it tags the invocation, recovers
// panics, and converts any error into a log entry plus telemetry instead of
// letting it reach the event source.
func (d *Dispatcher) run(ctx context.Context, event string, fn func(context.Context, *invocation) error) {
	inv := &invocation{id: uuid.New().String()}
	inv.log = d.Logger.With("tenant", d.Tenant, "event", event, "dispatch_id", inv.id)

	defer func() {
		if r := recover(); r != nil {
			inv.log.Error("handler_panic",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			sentry.CurrentHub().Recover(r)
		}
	}()

	if err := fn(ctx, inv); err != nil {
		inv.log.Error("handler_failed", "error", err)
		sentry.CaptureException(err)
	}
}

// deliver performs the send half of every handler: skip on empty recipient
// set, skip when mail is disabled, one outbound call, then a best-effort
// notification-log write.
func (d *Dispatcher) deliver(ctx context.Context, inv *invocation, kind, entityID string, set *RecipientSet, email render.Email) error {
	if set.Empty() {
		inv.log.Info("notification_skipped_no_recipients", "kind", kind)
		return nil
	}

	token, ok := d.Tokens.AccessToken(ctx)
	if !ok {
		inv.log.Info("notification_skipped_mail_disabled", "kind", kind)
		return nil
	}

	if err := d.Mailer.Send(ctx, token, set.Addresses(), email.Subject, email.HTML); err != nil {
		return fmt.Errorf("deliver %s: %w", kind, err)
	}

	inv.log.Info("notification_sent", "kind", kind, "recipients", set.Count())

	entry := store.NotificationEntry{
		DispatchID: inv.id,
		Kind:       kind,
		EntityID:   entityID,
		Recipients: set.Count(),
		SentAt:     time.Now().UnixMilli(),
	}
	if err := d.Store.LogNotification(ctx, entry); err != nil {
		inv.log.Warn("notification_log_write_failed", "error", err)
	}
	return nil
}

// ProjectCreated reacts to a project's absent→present transition.
func (d *Dispatcher) ProjectCreated(ctx context.Context, p *domain.Project) {
	d.run(ctx, "project_created", func(ctx context.Context, inv *invocation) error {
		if p == nil {
			return nil
		}
		actor := lookupDisplayName(ctx, d.Store, inv.log, p.OwnerID)
		set := projectRecipients(ctx, d.Store, inv.log, p, false)
		return d.deliver(ctx, inv, "project_created", p.ID, set, render.ProjectCreated(p, actor))
	})
}

// ProjectDeleted reacts to a project's present→absent transition. The
// project value is the prior state; members are notified alongside owners.
func (d *Dispatcher) ProjectDeleted(ctx context.Context, p *domain.Project) {
	d.run(ctx, "project_deleted", func(ctx context.Context, inv *invocation) error {
		if p == nil {
			return nil
		}
		set := projectRecipients(ctx, d.Store, inv.log, p, true)
		return d.deliver(ctx, inv, "project_deleted", p.ID, set, render.ProjectDeleted(p, actorFallback))
	})
}

// TaskWritten reacts to any task write. The (before, after) pair encodes
// the transition: (nil, t) create, (t, t') update, (t, nil) delete.
func (d *Dispatcher) TaskWritten(ctx context.Context, before, after *domain.Task) {
	d.run(ctx, "task_written", func(ctx context.Context, inv *invocation) error {
		switch {
		case after != nil:
			return d.taskSaved(ctx, inv, before, after)
		case before != nil:
			return d.taskDeleted(ctx, inv, before)
		}
		return nil
	})
}

func (d *Dispatcher) taskSaved(ctx context.Context, inv *invocation, before, after *domain.Task) error {
	changes := DiffTask(before, after)
	if len(changes) == 0 {
		// Not every write is a user-visible change; stay silent.
		inv.log.Debug("task_write_without_visible_change", "task_id", after.ID)
		return nil
	}

	project, err := d.Store.GetProject(ctx, after.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", after.ProjectID, err)
	}
	if project == nil {
		inv.log.Warn("task_project_missing", "task_id", after.ID, "project_id", after.ProjectID)
		return nil
	}

	created := before == nil
	actor := actorFallback
	if created && after.CreatedBy != "" {
		actor = lookupDisplayName(ctx, d.Store, inv.log, after.CreatedBy)
	}

	set := taskRecipients(ctx, d.Store, inv.log, project, after)
	email := render.TaskSaved(after, project.Name, actor, created, changes)
	return d.deliver(ctx, inv, "task_saved", after.ID, set, email)
}

// taskDeleted notifies from the prior state, since the current one is gone.
func (d *Dispatcher) taskDeleted(ctx context.Context, inv *invocation, before *domain.Task) error {
	project, err := d.Store.GetProject(ctx, before.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", before.ProjectID, err)
	}
	if project == nil {
		inv.log.Warn("deleted_task_project_missing", "task_id", before.ID, "project_id", before.ProjectID)
		return nil
	}

	set := taskRecipients(ctx, d.Store, inv.log, project, before)
	email := render.TaskDeleted(before, project.Name, actorFallback)
	return d.deliver(ctx, inv, "task_deleted", before.ID, set, email)
}

// CommentAdded reacts to a comment creation. The policy is "notify everyone
// involved": the project owner and all task assignees, the comment's own
// author included when they are among them.
func (d *Dispatcher) CommentAdded(ctx context.Context, c *domain.Comment) {
	d.run(ctx, "comment_added", func(ctx context.Context, inv *invocation) error {
		if c == nil {
			return nil
		}

		task, err := d.Store.GetTask(ctx, c.TaskID)
		if err != nil {
			return fmt.Errorf("load task %s: %w", c.TaskID, err)
		}
		if task == nil {
			inv.log.Warn("comment_task_missing", "comment_id", c.ID, "task_id", c.TaskID)
			return nil
		}

		project, err := d.Store.GetProject(ctx, task.ProjectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", task.ProjectID, err)
		}
		if project == nil {
			inv.log.Warn("comment_project_missing", "comment_id", c.ID, "project_id", task.ProjectID)
			return nil
		}

		author := c.AuthorName
		if author == "" {
			author = lookupDisplayName(ctx, d.Store, inv.log, c.AuthorID)
		}

		set := taskRecipients(ctx, d.Store, inv.log, project, task)
		email := render.CommentAdded(c, task, project.Name, author)
		return d.deliver(ctx, inv, "comment_added", c.ID, set, email)
	})
}

// TagsUpdated is caller-driven: the UI invokes it after changing a
// project's tag set. The tag diff itself is the caller's business.
func (d *Dispatcher) TagsUpdated(ctx context.Context, projectID, actorID string, tags []string) {
	d.run(ctx, "project_tags_updated", func(ctx context.Context, inv *invocation) error {
		project, err := d.Store.GetProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", projectID, err)
		}
		if project == nil {
			inv.log.Warn("tags_project_missing", "project_id", projectID)
			return nil
		}

		actor := lookupDisplayName(ctx, d.Store, inv.log, actorID)
		set := projectRecipients(ctx, d.Store, inv.log, project, false)
		email := render.TagsUpdated(project, tags, actor)
		return d.deliver(ctx, inv, "project_tags_updated", projectID, set, email)
	})
}

// OwnerAssigned is caller-driven: a user was made owner of a project. Only
// the new owner is addressed.
func (d *Dispatcher) OwnerAssigned(ctx context.Context, projectID, newOwnerID, actorID string) {
	d.run(ctx, "project_owner_assigned", func(ctx context.Context, inv *invocation) error {
		project, err := d.Store.GetProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", projectID, err)
		}
		if project == nil {
			inv.log.Warn("owner_assigned_project_missing", "project_id", projectID)
			return nil
		}

		actor := lookupDisplayName(ctx, d.Store, inv.log, actorID)
		ownerName := lookupDisplayName(ctx, d.Store, inv.log, newOwnerID)

		set := newRecipientSet()
		if email, ok := lookupEmail(ctx, d.Store, inv.log, newOwnerID); ok {
			set.Add(email)
		}

		email := render.OwnerAssigned(project, ownerName, actor)
		return d.deliver(ctx, inv, "project_owner_assigned", projectID, set, email)
	})
}

// CharterSaved is caller-driven: a project charter was created or updated.
func (d *Dispatcher) CharterSaved(ctx context.Context, projectID, actorID string, charter *domain.Charter) {
	d.run(ctx, "charter_saved", func(ctx context.Context, inv *invocation) error {
		if charter == nil {
			return nil
		}
		project, err := d.Store.GetProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", projectID, err)
		}
		if project == nil {
			inv.log.Warn("charter_project_missing", "project_id", projectID)
			return nil
		}

		actor := lookupDisplayName(ctx, d.Store, inv.log, actorID)
		set := projectRecipients(ctx, d.Store, inv.log, project, false)
		email := render.CharterSaved(project.Name, charter, actor)
		return d.deliver(ctx, inv, "charter_saved", projectID, set, email)
	})
}

// RiskSaved is caller-driven: a project risk was created or updated.
func (d *Dispatcher) RiskSaved(ctx context.Context, projectID, actorID string, risk *domain.Risk) {
	d.run(ctx, "risk_saved", func(ctx context.Context, inv *invocation) error {
		if risk == nil {
			return nil
		}
		project, err := d.Store.GetProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", projectID, err)
		}
		if project == nil {
			inv.log.Warn("risk_project_missing", "project_id", projectID)
			return nil
		}

		actor := lookupDisplayName(ctx, d.Store, inv.log, actorID)
		set := projectRecipients(ctx, d.Store, inv.log, project, false)
		email := render.RiskSaved(project.Name, risk, actor)
		return d.deliver(ctx, inv, "risk_saved", projectID, set, email)
	})
}
