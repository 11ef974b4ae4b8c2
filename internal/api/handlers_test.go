package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/notify/internal/domain"
	"github.com/planora/notify/internal/notify"
	"github.com/planora/notify/internal/store"
	"github.com/planora/notify/internal/tenant"
)

type fakeStore struct {
	projects map[string]*domain.Project
	users    map[string]*domain.DirectoryUser
}

func (f *fakeStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	return f.projects[id], nil
}

func (f *fakeStore) GetTask(context.Context, string) (*domain.Task, error) { return nil, nil }

func (f *fakeStore) GetComment(context.Context, string) (*domain.Comment, error) { return nil, nil }

func (f *fakeStore) GetUser(_ context.Context, id string) (*domain.DirectoryUser, error) {
	return f.users[id], nil
}

func (f *fakeStore) ListProjects(context.Context) ([]domain.Project, error) { return nil, nil }

func (f *fakeStore) ListTasks(context.Context) ([]domain.Task, error) { return nil, nil }

func (f *fakeStore) LogNotification(context.Context, store.NotificationEntry) error { return nil }

type fakeMailer struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakeMailer) Send(_ context.Context, _ string, _ []string, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subjects)
}

func (f *fakeMailer) lastSubject() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subjects) == 0 {
		return ""
	}
	return f.subjects[len(f.subjects)-1]
}

type fakeTokens struct{}

func (fakeTokens) AccessToken(context.Context) (string, bool) { return "tok", true }

func testServer(t *testing.T) (*Server, *fakeMailer) {
	t.Helper()

	st := &fakeStore{
		projects: map[string]*domain.Project{
			"p1": {ID: "p1", Name: "Lanzamiento", OwnerID: "u1"},
		},
		users: map[string]*domain.DirectoryUser{
			"u1": {ID: "u1", Email: "owner@x.com", DisplayName: "Ana"},
			"u2": {ID: "u2", Email: "nuevo@x.com", DisplayName: "Luis"},
		},
	}

	mailer := &fakeMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := tenant.NewRegistry(logger)
	reg.Add(&tenant.Binding{
		Name:       "central",
		Store:      st,
		Dispatcher: notify.NewDispatcher("central", st, fakeTokens{}, mailer, logger),
	})

	return NewServer(reg, logger), mailer
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestProjectTags_Accepted(t *testing.T) {
	srv, mailer := testServer(t)

	rec := postJSON(t, srv, "/api/v1/central/notify/project-tags",
		`{"projectId":"p1","actorId":"u1","tags":["urgente","q3"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return mailer.count() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.lastSubject(), "Etiquetas actualizadas")
}

func TestOwnerAssigned_Accepted(t *testing.T) {
	srv, mailer := testServer(t)

	rec := postJSON(t, srv, "/api/v1/central/notify/owner-assigned",
		`{"projectId":"p1","newOwnerId":"u2","actorId":"u1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return mailer.count() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.lastSubject(), "propietario")
}

func TestCharter_Accepted(t *testing.T) {
	srv, mailer := testServer(t)

	rec := postJSON(t, srv, "/api/v1/central/notify/charter",
		`{"projectId":"p1","actorId":"u1","charter":{"vision":"Crecer","mission":"Entregar"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return mailer.count() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.lastSubject(), "Acta de proyecto")
}

func TestRisk_Accepted(t *testing.T) {
	srv, mailer := testServer(t)

	rec := postJSON(t, srv, "/api/v1/central/notify/risk",
		`{"projectId":"p1","actorId":"u1","risk":{"title":"Retraso de proveedor","severity":"high"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return mailer.count() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.lastSubject(), "Riesgo registrado")
}

func TestUnknownTenantIs404(t *testing.T) {
	srv, mailer := testServer(t)

	rec := postJSON(t, srv, "/api/v1/oriente/notify/project-tags",
		`{"projectId":"p1","tags":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, mailer.count())
}

func TestValidationFailures(t *testing.T) {
	srv, mailer := testServer(t)

	// Missing projectId.
	rec := postJSON(t, srv, "/api/v1/central/notify/project-tags", `{"tags":["a"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Risk without a title.
	rec = postJSON(t, srv, "/api/v1/central/notify/risk", `{"projectId":"p1","risk":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected.
	rec = postJSON(t, srv, "/api/v1/central/notify/project-tags",
		`{"projectId":"p1","tags":[],"extra":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong content type.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/central/notify/project-tags",
		strings.NewReader(`{"projectId":"p1","tags":[]}`))
	req.Header.Set("Content-Type", "text/plain")
	raw := httptest.NewRecorder()
	srv.Router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, raw.Code)

	assert.Zero(t, mailer.count())
}

func TestMissingProjectStillAccepted(t *testing.T) {
	// The dispatcher absorbs the miss; the caller only learns "accepted".
	srv, mailer := testServer(t)

	rec := postJSON(t, srv, "/api/v1/central/notify/project-tags",
		`{"projectId":"ghost","tags":["a"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, mailer.count())
}
