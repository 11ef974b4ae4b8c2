package notify

import (
	"fmt"

	"github.com/planora/notify/internal/domain"
	"github.com/planora/notify/internal/render"
)

// TaskCreatedChange is the sentinel description returned when a task has no
// prior state.
const TaskCreatedChange = "Tarea creada"

// DiffTask compares a task's prior and new state and returns human-readable
// change descriptions in a fixed order: title, description, status,
// priority, due date, assignees. The ordering is part of the contract; the
// emails list changes in exactly this sequence. A nil before means the task
// was just created and short-circuits everything else.
func DiffTask(before, after *domain.Task) []string {
	if before == nil {
		return []string{TaskCreatedChange}
	}

	var changes []string

	if before.Title != after.Title {
		changes = append(changes, fmt.Sprintf("Título: \"%s\" → \"%s\"", before.Title, after.Title))
	}

	// Descriptions can be long; the email only says it changed, it never
	// replays the old text.
	if before.Description != after.Description {
		changes = append(changes, "Descripción actualizada")
	}

	if before.Status != after.Status {
		changes = append(changes, fmt.Sprintf("Estado: %s → %s",
			domain.StatusLabel(before.Status), domain.StatusLabel(after.Status)))
	}

	if before.Priority != after.Priority {
		changes = append(changes, fmt.Sprintf("Prioridad: %s → %s",
			domain.PriorityLabel(before.Priority), domain.PriorityLabel(after.Priority)))
	}

	if !sameDueDate(before.DueDate, after.DueDate) {
		changes = append(changes, fmt.Sprintf("Fecha límite: %s → %s",
			render.FormatDueDate(before.DueDate), render.FormatDueDate(after.DueDate)))
	}

	if domain.ParseAssignees(before).Canonical() != domain.ParseAssignees(after).Canonical() {
		changes = append(changes, "Asignación actualizada")
	}

	return changes
}

func sameDueDate(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
