package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planora/notify/internal/domain"
	"github.com/planora/notify/internal/tenant"
)

// NotifyHandler exposes the caller-driven notifications: events the web
// client announces explicitly because they are not observable as single
// record mutations (tag edits, ownership grants, charter and risk saves).
type NotifyHandler struct {
	tenants *tenant.Registry
	logger  *slog.Logger
}

func NewNotifyHandler(tenants *tenant.Registry, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{tenants: tenants, logger: logger}
}

// binding resolves the {tenant} URL parameter, answering 404 when the
// tenant is unknown or failed to connect at startup.
func (h *NotifyHandler) binding(w http.ResponseWriter, r *http.Request) (*tenant.Binding, bool) {
	name := chi.URLParam(r, "tenant")
	b, ok := h.tenants.Get(name)
	if !ok {
		http.Error(w, "Unknown tenant", http.StatusNotFound)
		return nil, false
	}
	return b, true
}

// decode parses a JSON request body strictly.
func decode(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		slog.Warn("notify_request_invalid_json", "path", r.URL.Path, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}

	if err := dst.Validate(); err != nil {
		slog.Warn("notify_request_validation_failed", "path", r.URL.Path, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// accepted answers 202: the notification was handed to the dispatcher, whose
// outcome is deliberately invisible to the caller.
func accepted(w http.ResponseWriter) {
	w.WriteHeader(http.StatusAccepted)
}

// dispatch runs fn on its own goroutine with a fresh context. The request
// context dies when the response is written, and the send must not.
func dispatch(fn func(context.Context)) {
	go fn(context.Background())
}

// TagsRequest announces a change to a project's tag set.
type TagsRequest struct {
	ProjectID string   `json:"projectId"`
	ActorID   string   `json:"actorId,omitempty"`
	Tags      []string `json:"tags"`
}

func (req *TagsRequest) Validate() error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId required")
	}
	return nil
}

func (h *NotifyHandler) ProjectTags(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	var req TagsRequest
	if !decode(w, r, &req) {
		return
	}

	dispatch(func(ctx context.Context) {
		b.Dispatcher.TagsUpdated(ctx, req.ProjectID, req.ActorID, req.Tags)
	})
	accepted(w)
}

// OwnerAssignedRequest announces that a user became owner of a project.
type OwnerAssignedRequest struct {
	ProjectID  string `json:"projectId"`
	NewOwnerID string `json:"newOwnerId"`
	ActorID    string `json:"actorId,omitempty"`
}

func (req *OwnerAssignedRequest) Validate() error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId required")
	}
	if req.NewOwnerID == "" {
		return fmt.Errorf("newOwnerId required")
	}
	return nil
}

func (h *NotifyHandler) OwnerAssigned(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	var req OwnerAssignedRequest
	if !decode(w, r, &req) {
		return
	}

	dispatch(func(ctx context.Context) {
		b.Dispatcher.OwnerAssigned(ctx, req.ProjectID, req.NewOwnerID, req.ActorID)
	})
	accepted(w)
}

// CharterRequest announces a saved project charter.
type CharterRequest struct {
	ProjectID string         `json:"projectId"`
	ActorID   string         `json:"actorId,omitempty"`
	Charter   domain.Charter `json:"charter"`
}

func (req *CharterRequest) Validate() error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId required")
	}
	return nil
}

func (h *NotifyHandler) Charter(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	var req CharterRequest
	if !decode(w, r, &req) {
		return
	}

	charter := req.Charter
	dispatch(func(ctx context.Context) {
		b.Dispatcher.CharterSaved(ctx, req.ProjectID, req.ActorID, &charter)
	})
	accepted(w)
}

// RiskRequest announces a saved project risk.
type RiskRequest struct {
	ProjectID string      `json:"projectId"`
	ActorID   string      `json:"actorId,omitempty"`
	Risk      domain.Risk `json:"risk"`
}

func (req *RiskRequest) Validate() error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId required")
	}
	if req.Risk.Title == "" {
		return fmt.Errorf("risk title required")
	}
	return nil
}

func (h *NotifyHandler) Risk(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	var req RiskRequest
	if !decode(w, r, &req) {
		return
	}

	risk := req.Risk
	dispatch(func(ctx context.Context) {
		b.Dispatcher.RiskSaved(ctx, req.ProjectID, req.ActorID, &risk)
	})
	accepted(w)
}
