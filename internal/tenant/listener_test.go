package tenant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/planora/notify/internal/domain"
	"github.com/planora/notify/internal/notify"
	"github.com/planora/notify/internal/store"
)

type fakeStore struct {
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task
	comments map[string]*domain.Comment
	users    map[string]*domain.DirectoryUser
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: map[string]*domain.Project{},
		tasks:    map[string]*domain.Task{},
		comments: map[string]*domain.Comment{},
		users:    map[string]*domain.DirectoryUser{},
	}
}

func (f *fakeStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	return f.projects[id], nil
}

func (f *fakeStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	return f.tasks[id], nil
}

func (f *fakeStore) GetComment(_ context.Context, id string) (*domain.Comment, error) {
	return f.comments[id], nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*domain.DirectoryUser, error) {
	return f.users[id], nil
}

func (f *fakeStore) ListProjects(context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) ListTasks(context.Context) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeStore) LogNotification(context.Context, store.NotificationEntry) error {
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sends []sentMail
}

type sentMail struct {
	recipients []string
	subject    string
}

func (f *fakeMailer) Send(_ context.Context, _ string, recipients []string, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMail{recipients: recipients, subject: subject})
	return nil
}

func (f *fakeMailer) sent() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sends...)
}

type fakeTokens struct{}

func (fakeTokens) AccessToken(context.Context) (string, bool) { return "tok", true }

func testListener(st store.Store) (*Listener, *fakeMailer) {
	mailer := &fakeMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := &Binding{
		Name:       "central",
		Store:      st,
		Dispatcher: notify.NewDispatcher("central", st, fakeTokens{}, mailer, logger),
	}
	return NewListener(b, logger), mailer
}

func TestNotificationRecordID(t *testing.T) {
	id, ok := notificationRecordID(map[string]any{
		"id": models.NewRecordID("tasks", "t1"),
	})
	require.True(t, ok)
	assert.Equal(t, "t1", id)

	rid := models.NewRecordID("tasks", "t2")
	id, ok = notificationRecordID(map[string]any{"id": &rid})
	require.True(t, ok)
	assert.Equal(t, "t2", id)

	_, ok = notificationRecordID(map[string]any{"id": "loose-string"})
	assert.False(t, ok)

	_, ok = notificationRecordID("not a map")
	assert.False(t, ok)
}

func TestSnapshotPrimeAndForget(t *testing.T) {
	s := newSnapshot()
	s.prime(
		[]domain.Project{{ID: "p1", Name: "Lanzamiento"}},
		[]domain.Task{{ID: "t1", Title: "Preparar demo"}},
	)

	require.NotNil(t, s.project("p1"))
	assert.Equal(t, "Lanzamiento", s.project("p1").Name)
	require.NotNil(t, s.task("t1"))

	// A held pointer survives the record being replaced in the cache.
	held := s.task("t1")
	s.rememberTask(&domain.Task{ID: "t1", Title: "Preparar demo v2"})
	assert.Equal(t, "Preparar demo", held.Title)
	assert.Equal(t, "Preparar demo v2", s.task("t1").Title)

	s.forgetTask("t1")
	s.forgetProject("p1")
	assert.Nil(t, s.task("t1"))
	assert.Nil(t, s.project("p1"))
}

func TestHandleTaskEvent_CreateNotifiesAndCaches(t *testing.T) {
	st := newFakeStore()
	st.projects["p1"] = &domain.Project{ID: "p1", Name: "Lanzamiento", OwnerID: "u1"}
	st.users["u1"] = &domain.DirectoryUser{ID: "u1", Email: "owner@x.com", DisplayName: "Ana"}
	st.tasks["t1"] = &domain.Task{ID: "t1", ProjectID: "p1", Title: "Preparar demo", Status: "todo", CreatedBy: "u1"}

	l, mailer := testListener(st)
	l.handleTaskEvent(context.Background(), connection.CreateAction, "t1")

	sends := mailer.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, []string{"owner@x.com"}, sends[0].recipients)
	assert.Contains(t, sends[0].subject, "Nueva tarea creada")
	require.NotNil(t, l.snap.task("t1"))
}

func TestHandleTaskEvent_UpdateWithoutPriorStateStaysSilent(t *testing.T) {
	st := newFakeStore()
	st.projects["p1"] = &domain.Project{ID: "p1", Name: "Lanzamiento", OwnerID: "u1"}
	st.users["u1"] = &domain.DirectoryUser{ID: "u1", Email: "owner@x.com"}
	st.tasks["t1"] = &domain.Task{ID: "t1", ProjectID: "p1", Title: "Preparar demo", Status: "in-progress"}

	l, mailer := testListener(st)
	l.handleTaskEvent(context.Background(), connection.UpdateAction, "t1")

	assert.Empty(t, mailer.sent())
	// The state is remembered so the next update can diff.
	require.NotNil(t, l.snap.task("t1"))

	st.tasks["t1"] = &domain.Task{ID: "t1", ProjectID: "p1", Title: "Preparar demo", Status: "completed"}
	l.handleTaskEvent(context.Background(), connection.UpdateAction, "t1")

	sends := mailer.sent()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].subject, "Tarea actualizada")
}

func TestHandleTaskEvent_DeleteUsesPriorState(t *testing.T) {
	st := newFakeStore()
	st.projects["p1"] = &domain.Project{ID: "p1", Name: "Lanzamiento", OwnerID: "u1"}
	st.users["u1"] = &domain.DirectoryUser{ID: "u1", Email: "owner@x.com"}

	l, mailer := testListener(st)
	l.snap.rememberTask(&domain.Task{ID: "t1", ProjectID: "p1", Title: "Preparar demo"})

	l.handleTaskEvent(context.Background(), connection.DeleteAction, "t1")

	sends := mailer.sent()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].subject, "Tarea eliminada")
	assert.Nil(t, l.snap.task("t1"))
}

func TestHandleTaskEvent_DeleteWithoutPriorStateStaysSilent(t *testing.T) {
	st := newFakeStore()
	l, mailer := testListener(st)

	l.handleTaskEvent(context.Background(), connection.DeleteAction, "ghost")
	assert.Empty(t, mailer.sent())
}

func TestHandleProjectEvent_UpdateOnlyRefreshesCache(t *testing.T) {
	st := newFakeStore()
	st.projects["p1"] = &domain.Project{ID: "p1", Name: "Lanzamiento", OwnerID: "u1"}
	st.users["u1"] = &domain.DirectoryUser{ID: "u1", Email: "owner@x.com"}

	l, mailer := testListener(st)
	l.handleProjectEvent(context.Background(), connection.UpdateAction, "p1")

	assert.Empty(t, mailer.sent())
	require.NotNil(t, l.snap.project("p1"))
}

func TestHandleProjectEvent_DeleteNotifiesMembersFromPriorState(t *testing.T) {
	st := newFakeStore()
	st.users["u1"] = &domain.DirectoryUser{ID: "u1", Email: "owner@x.com"}
	st.users["u2"] = &domain.DirectoryUser{ID: "u2", Email: "member@x.com"}

	l, mailer := testListener(st)
	l.snap.rememberProject(&domain.Project{
		ID: "p1", Name: "Lanzamiento", OwnerID: "u1", Members: []string{"u2"},
	})

	l.handleProjectEvent(context.Background(), connection.DeleteAction, "p1")

	sends := mailer.sent()
	require.Len(t, sends, 1)
	assert.ElementsMatch(t, []string{"owner@x.com", "member@x.com"}, sends[0].recipients)
	assert.Nil(t, l.snap.project("p1"))
}

func TestHandleCommentEvent_OnlyCreationsNotify(t *testing.T) {
	st := newFakeStore()
	st.projects["p1"] = &domain.Project{ID: "p1", Name: "Lanzamiento", OwnerID: "u1"}
	st.users["u1"] = &domain.DirectoryUser{ID: "u1", Email: "owner@x.com"}
	st.tasks["t1"] = &domain.Task{ID: "t1", ProjectID: "p1", Title: "Preparar demo"}
	st.comments["c1"] = &domain.Comment{ID: "c1", TaskID: "t1", AuthorName: "Ana", Text: "Listo"}

	l, mailer := testListener(st)

	l.handleCommentEvent(context.Background(), connection.UpdateAction, "c1")
	assert.Empty(t, mailer.sent())

	l.handleCommentEvent(context.Background(), connection.CreateAction, "c1")
	require.Len(t, mailer.sent(), 1)
}

type listErrStore struct {
	*fakeStore
}

func (listErrStore) ListProjects(context.Context) ([]domain.Project, error) {
	return nil, errors.New("connection reset")
}

func TestPrimeCacheSurfacesListErrors(t *testing.T) {
	l, _ := testListener(listErrStore{newFakeStore()})
	err := l.primeCache(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list projects")
}
