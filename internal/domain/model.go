// Package domain defines the documents the notifier reads from a tenant
// database. The structs mirror the JSON shape the web client writes; the
// notifier never writes these entities back.
package domain

// Project is a project document. Owner is the creating user; Owners is an
// optional co-owner list and Members an optional membership list, both of
// which may be absent on older documents.
type Project struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	OwnerID     string   `json:"ownerId"`
	Owners      []string `json:"owners,omitempty"`
	Members     []string `json:"members,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status,omitempty"`
	CreatedAt   int64    `json:"createdAt,omitempty"`
	UpdatedAt   int64    `json:"updatedAt,omitempty"`
}

// Task is a task document. Assignees live in the modern AssigneeIDs array;
// AssignedTo is the legacy field kept for documents written by old clients
// (string id, string email, or {userId, email} object).
type Task struct {
	ID          string   `json:"id,omitempty"`
	ProjectID   string   `json:"projectId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     *int64   `json:"dueDate,omitempty"`
	AssigneeIDs []string `json:"assigneeIds,omitempty"`
	AssignedTo  any      `json:"assignedTo,omitempty"`
	CreatedBy   string   `json:"createdBy,omitempty"`
	CreatedAt   int64    `json:"createdAt,omitempty"`
	UpdatedAt   int64    `json:"updatedAt,omitempty"`
}

// Comment is a comment on a task. AuthorName is denormalized at creation
// time by the client.
type Comment struct {
	ID         string `json:"id,omitempty"`
	TaskID     string `json:"taskId"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName,omitempty"`
	Text       string `json:"text"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
}

// DirectoryUser is a directory entry owned by the auth system. Name is the
// legacy display-name field still present on old records.
type DirectoryUser struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Charter is the project-charter payload the UI submits when requesting a
// charter notification. It is never read from the database by this core.
type Charter struct {
	Vision     string `json:"vision,omitempty"`
	Mission    string `json:"mission,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Objectives string `json:"objectives,omitempty"`
}

// Risk is the risk payload the UI submits when requesting a risk
// notification.
type Risk struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Likelihood  string `json:"likelihood,omitempty"`
	Mitigation  string `json:"mitigation,omitempty"`
	Status      string `json:"status,omitempty"`
}

// statusLabels maps the task status enumeration to the Spanish labels shown
// in notification emails. Unknown values fall through unchanged.
var statusLabels = map[string]string{
	"todo":        "Por Hacer",
	"in-progress": "En Progreso",
	"review":      "En Revisión",
	"completed":   "Completada",
}

// priorityLabels maps the task priority enumeration to display labels.
var priorityLabels = map[string]string{
	"low":    "Baja",
	"medium": "Media",
	"high":   "Alta",
	"urgent": "Urgente",
}

// StatusLabel returns the display label for a task status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// PriorityLabel returns the display label for a task priority.
func PriorityLabel(priority string) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return priority
}
