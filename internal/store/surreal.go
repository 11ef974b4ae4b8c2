package store

import (
	"context"
	"fmt"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/planora/notify/internal/domain"
)

// Table names in a tenant database.
const (
	TableProjects        = "projects"
	TableTasks           = "tasks"
	TableComments        = "comments"
	TableUsers           = "users"
	TableNotificationLog = "notification_log"
)

// Surreal is the SurrealDB-backed Store for one tenant database handle.
// The handle is long-lived and shared across handler invocations; all
// operations on it are read-only except LogNotification.
type Surreal struct {
	db *surrealdb.DB
}

// NewSurreal wraps an established tenant database connection.
func NewSurreal(db *surrealdb.DB) *Surreal {
	return &Surreal{db: db}
}

// projectRecord mirrors domain.Project with a SurrealDB record id.
type projectRecord struct {
	ID          *models.RecordID `json:"id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	OwnerID     string           `json:"ownerId"`
	Owners      []string         `json:"owners,omitempty"`
	Members     []string         `json:"members,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Status      string           `json:"status,omitempty"`
	CreatedAt   int64            `json:"createdAt,omitempty"`
	UpdatedAt   int64            `json:"updatedAt,omitempty"`
}

func (r *projectRecord) toDomain() *domain.Project {
	return &domain.Project{
		ID:          recordIDString(r.ID),
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		Owners:      r.Owners,
		Members:     r.Members,
		Tags:        r.Tags,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type taskRecord struct {
	ID          *models.RecordID `json:"id,omitempty"`
	ProjectID   string           `json:"projectId"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority"`
	DueDate     *int64           `json:"dueDate,omitempty"`
	AssigneeIDs []string         `json:"assigneeIds,omitempty"`
	AssignedTo  any              `json:"assignedTo,omitempty"`
	CreatedBy   string           `json:"createdBy,omitempty"`
	CreatedAt   int64            `json:"createdAt,omitempty"`
	UpdatedAt   int64            `json:"updatedAt,omitempty"`
}

func (r *taskRecord) toDomain() *domain.Task {
	return &domain.Task{
		ID:          recordIDString(r.ID),
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		AssigneeIDs: r.AssigneeIDs,
		AssignedTo:  r.AssignedTo,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type commentRecord struct {
	ID         *models.RecordID `json:"id,omitempty"`
	TaskID     string           `json:"taskId"`
	AuthorID   string           `json:"authorId"`
	AuthorName string           `json:"authorName,omitempty"`
	Text       string           `json:"text"`
	CreatedAt  int64            `json:"createdAt,omitempty"`
}

func (r *commentRecord) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:         recordIDString(r.ID),
		TaskID:     r.TaskID,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt,
	}
}

type userRecord struct {
	ID          *models.RecordID `json:"id,omitempty"`
	Email       string           `json:"email,omitempty"`
	DisplayName string           `json:"displayName,omitempty"`
	Name        string           `json:"name,omitempty"`
}

func (r *userRecord) toDomain() *domain.DirectoryUser {
	return &domain.DirectoryUser{
		ID:          recordIDString(r.ID),
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Name:        r.Name,
	}
}

func (s *Surreal) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	rec, err := surrealdb.Select[projectRecord](ctx, s.db, models.NewRecordID(TableProjects, id))
	if err != nil {
		return nil, fmt.Errorf("select project %s: %w", id, err)
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.toDomain(), nil
}

func (s *Surreal) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	rec, err := surrealdb.Select[taskRecord](ctx, s.db, models.NewRecordID(TableTasks, id))
	if err != nil {
		return nil, fmt.Errorf("select task %s: %w", id, err)
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.toDomain(), nil
}

func (s *Surreal) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	rec, err := surrealdb.Select[commentRecord](ctx, s.db, models.NewRecordID(TableComments, id))
	if err != nil {
		return nil, fmt.Errorf("select comment %s: %w", id, err)
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.toDomain(), nil
}

func (s *Surreal) GetUser(ctx context.Context, id string) (*domain.DirectoryUser, error) {
	rec, err := surrealdb.Select[userRecord](ctx, s.db, models.NewRecordID(TableUsers, id))
	if err != nil {
		return nil, fmt.Errorf("select user %s: %w", id, err)
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.toDomain(), nil
}

func (s *Surreal) ListProjects(ctx context.Context) ([]domain.Project, error) {
	res, err := surrealdb.Query[[]projectRecord](ctx, s.db, "SELECT * FROM "+TableProjects, nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var projects []domain.Project
	if res != nil && len(*res) > 0 {
		for i := range (*res)[0].Result {
			projects = append(projects, *(*res)[0].Result[i].toDomain())
		}
	}
	return projects, nil
}

func (s *Surreal) ListTasks(ctx context.Context) ([]domain.Task, error) {
	res, err := surrealdb.Query[[]taskRecord](ctx, s.db, "SELECT * FROM "+TableTasks, nil)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var tasks []domain.Task
	if res != nil && len(*res) > 0 {
		for i := range (*res)[0].Result {
			tasks = append(tasks, *(*res)[0].Result[i].toDomain())
		}
	}
	return tasks, nil
}

func (s *Surreal) LogNotification(ctx context.Context, entry NotificationEntry) error {
	_, err := surrealdb.Create[NotificationEntry](ctx, s.db, TableNotificationLog, entry)
	if err != nil {
		return fmt.Errorf("log notification: %w", err)
	}
	return nil
}

// recordIDString flattens a SurrealDB record id to the bare identifier the
// rest of the system keys on.
func recordIDString(id *models.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id.ID)
}
