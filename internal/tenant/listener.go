package tenant

import (
	"context"
	"fmt"
	"log/slog"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/planora/notify/internal/store"
)

// Listener subscribes to one tenant's live change feeds and turns record
// mutations into dispatcher invocations. It owns the before-image cache:
// the feed only carries the new state, so the listener remembers the last
// state it saw per record and hands the pair to the dispatcher.
type Listener struct {
	binding *Binding
	logger  *slog.Logger
	snap    *snapshot
}

// NewListener wires a listener to a connected tenant binding.
func NewListener(b *Binding, logger *slog.Logger) *Listener {
	return &Listener{
		binding: b,
		logger:  logger.With("tenant", b.Name),
		snap:    newSnapshot(),
	}
}

// Run primes the cache, opens live queries on the projects, tasks and
// comments tables, and consumes their feeds until the context is cancelled
// or a feed closes. It returns the reason the loop ended; the caller
// decides whether to restart.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.primeCache(ctx); err != nil {
		return fmt.Errorf("prime snapshot cache: %w", err)
	}

	projectCh, killProjects, err := l.subscribe(ctx, store.TableProjects)
	if err != nil {
		return err
	}
	defer killProjects()

	taskCh, killTasks, err := l.subscribe(ctx, store.TableTasks)
	if err != nil {
		return err
	}
	defer killTasks()

	commentCh, killComments, err := l.subscribe(ctx, store.TableComments)
	if err != nil {
		return err
	}
	defer killComments()

	l.logger.Info("listener_started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("listener_stopped")
			return ctx.Err()
		case n, ok := <-projectCh:
			if !ok {
				return fmt.Errorf("live feed closed for table %s", store.TableProjects)
			}
			l.route(ctx, n, l.handleProjectEvent)
		case n, ok := <-taskCh:
			if !ok {
				return fmt.Errorf("live feed closed for table %s", store.TableTasks)
			}
			l.route(ctx, n, l.handleTaskEvent)
		case n, ok := <-commentCh:
			if !ok {
				return fmt.Errorf("live feed closed for table %s", store.TableComments)
			}
			l.route(ctx, n, l.handleCommentEvent)
		}
	}
}

// primeCache loads every project and task once so that later update and
// delete notifications have a before-image to work with.
func (l *Listener) primeCache(ctx context.Context) error {
	projects, err := l.binding.Store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	tasks, err := l.binding.Store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	l.snap.prime(projects, tasks)
	l.logger.Info("snapshot_primed", "projects", len(projects), "tasks", len(tasks))
	return nil
}

func (l *Listener) subscribe(ctx context.Context, table string) (chan connection.Notification, func(), error) {
	live, err := surrealdb.Live(ctx, l.binding.DB, models.Table(table), false)
	if err != nil {
		return nil, nil, fmt.Errorf("open live query on %s: %w", table, err)
	}

	ch, err := l.binding.DB.LiveNotifications(live.String())
	if err != nil {
		return nil, nil, fmt.Errorf("attach to live query on %s: %w", table, err)
	}

	kill := func() {
		if err := surrealdb.Kill(context.WithoutCancel(ctx), l.binding.DB, live.String()); err != nil {
			l.logger.Warn("live_query_kill_failed", "table", table, "error", err)
		}
	}
	return ch, kill, nil
}

// route extracts the record id from a notification and runs the handler on
// its own goroutine so a slow send never backs up the feed. The handlers
// themselves delegate to the dispatcher, whose boundary contains failures.
func (l *Listener) route(ctx context.Context, n connection.Notification, handle func(context.Context, connection.Action, string)) {
	id, ok := notificationRecordID(n.Result)
	if !ok {
		l.logger.Warn("notification_without_record_id", "action", n.Action)
		return
	}
	go handle(ctx, n.Action, id)
}

// notificationRecordID pulls the plain record id out of a live notification
// payload. Feeds opened without diff mode deliver the record as a map with
// the id as a models.RecordID.
func notificationRecordID(result any) (string, bool) {
	record, ok := result.(map[string]any)
	if !ok {
		return "", false
	}
	switch id := record["id"].(type) {
	case models.RecordID:
		return fmt.Sprint(id.ID), true
	case *models.RecordID:
		if id != nil {
			return fmt.Sprint(id.ID), true
		}
	}
	return "", false
}

// handleProjectEvent reacts to a project mutation. Creates and deletes
// notify; plain updates only refresh the cache, since project-level edits
// announce themselves through the API surface instead.
func (l *Listener) handleProjectEvent(ctx context.Context, action connection.Action, id string) {
	switch action {
	case connection.CreateAction, connection.UpdateAction:
		project, err := l.binding.Store.GetProject(ctx, id)
		if err != nil {
			l.logger.Error("project_read_failed", "project_id", id, "error", err)
			return
		}
		if project == nil {
			// Deleted between notification and read.
			l.logger.Warn("project_vanished_after_event", "project_id", id)
			return
		}
		l.snap.rememberProject(project)
		if action == connection.CreateAction {
			l.binding.Dispatcher.ProjectCreated(ctx, project)
		}
	case connection.DeleteAction:
		before := l.snap.project(id)
		l.snap.forgetProject(id)
		if before == nil {
			l.logger.Warn("project_deleted_without_prior_state", "project_id", id)
			return
		}
		l.binding.Dispatcher.ProjectDeleted(ctx, before)
	}
}

// handleTaskEvent reacts to a task mutation, pairing the cached prior state
// with a fresh read so the dispatcher can diff.
func (l *Listener) handleTaskEvent(ctx context.Context, action connection.Action, id string) {
	switch action {
	case connection.CreateAction, connection.UpdateAction:
		task, err := l.binding.Store.GetTask(ctx, id)
		if err != nil {
			l.logger.Error("task_read_failed", "task_id", id, "error", err)
			return
		}
		if task == nil {
			l.logger.Warn("task_vanished_after_event", "task_id", id)
			return
		}

		before := l.snap.task(id)
		l.snap.rememberTask(task)

		if action == connection.UpdateAction && before == nil {
			// Without a before-image the diff would misreport the
			// update as a creation. Remember the state and stay silent.
			l.logger.Warn("task_updated_without_prior_state", "task_id", id)
			return
		}
		if action == connection.CreateAction {
			before = nil
		}
		l.binding.Dispatcher.TaskWritten(ctx, before, task)
	case connection.DeleteAction:
		before := l.snap.task(id)
		l.snap.forgetTask(id)
		if before == nil {
			l.logger.Warn("task_deleted_without_prior_state", "task_id", id)
			return
		}
		l.binding.Dispatcher.TaskWritten(ctx, before, nil)
	}
}

// handleCommentEvent reacts to comment mutations. Only creations notify;
// edits and deletions of comments are silent.
func (l *Listener) handleCommentEvent(ctx context.Context, action connection.Action, id string) {
	if action != connection.CreateAction {
		return
	}
	comment, err := l.binding.Store.GetComment(ctx, id)
	if err != nil {
		l.logger.Error("comment_read_failed", "comment_id", id, "error", err)
		return
	}
	if comment == nil {
		l.logger.Warn("comment_vanished_after_event", "comment_id", id)
		return
	}
	l.binding.Dispatcher.CommentAdded(ctx, comment)
}
