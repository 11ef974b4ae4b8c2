package domain

import (
	"sort"
	"strings"
)

// AssigneeKind tags the shape the assignee information was found in.
type AssigneeKind int

const (
	// AssigneeNone means the task carries no assignee information.
	AssigneeNone AssigneeKind = iota
	// AssigneeIDList is the modern assigneeIds array.
	AssigneeIDList
	// AssigneeSingleID is the legacy assignedTo string holding a user id.
	AssigneeSingleID
	// AssigneeSingleEmail is the legacy assignedTo string holding an
	// email address.
	AssigneeSingleEmail
	// AssigneeSingleObject is the legacy assignedTo object with userId
	// and/or email fields.
	AssigneeSingleObject
)

// Assignees is the normalized view of a task's assignee field(s). It is the
// tagged union replacing the ad hoc shape checks old clients forced on us:
// exactly one of the shapes applies, decided once by ParseAssignees.
type Assignees struct {
	Kind  AssigneeKind
	IDs   []string // AssigneeIDList
	ID    string   // AssigneeSingleID, AssigneeSingleObject
	Email string   // AssigneeSingleEmail, AssigneeSingleObject
}

// ParseAssignees normalizes a task's assignee fields. The modern
// assigneeIds array wins when present; otherwise the legacy assignedTo
// field is inspected. A malformed legacy value yields AssigneeNone rather
// than an error, so it simply contributes nothing to a recipient set.
func ParseAssignees(t *Task) Assignees {
	if t == nil {
		return Assignees{Kind: AssigneeNone}
	}

	if len(t.AssigneeIDs) > 0 {
		ids := make([]string, 0, len(t.AssigneeIDs))
		for _, id := range t.AssigneeIDs {
			if id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			return Assignees{Kind: AssigneeIDList, IDs: ids}
		}
	}

	switch v := t.AssignedTo.(type) {
	case string:
		if v == "" {
			return Assignees{Kind: AssigneeNone}
		}
		if strings.Contains(v, "@") {
			return Assignees{Kind: AssigneeSingleEmail, Email: v}
		}
		return Assignees{Kind: AssigneeSingleID, ID: v}
	case map[string]any:
		id, _ := v["userId"].(string)
		email, _ := v["email"].(string)
		if id == "" && email == "" {
			return Assignees{Kind: AssigneeNone}
		}
		return Assignees{Kind: AssigneeSingleObject, ID: id, Email: email}
	}

	return Assignees{Kind: AssigneeNone}
}

// Canonical produces the comparable representation used by the change
// detector: the sorted, comma-joined modern list, or the legacy string, or
// the legacy object's userId, or empty. Two tasks with the same canonical
// string are considered identically assigned.
func (a Assignees) Canonical() string {
	switch a.Kind {
	case AssigneeIDList:
		ids := append([]string(nil), a.IDs...)
		sort.Strings(ids)
		return strings.Join(ids, ",")
	case AssigneeSingleID:
		return a.ID
	case AssigneeSingleEmail:
		return a.Email
	case AssigneeSingleObject:
		return a.ID
	}
	return ""
}

// UserIDs returns the directory ids to resolve for notification addressing.
// A legacy email shape has no id to resolve; DirectEmail exposes it instead.
func (a Assignees) UserIDs() []string {
	switch a.Kind {
	case AssigneeIDList:
		return a.IDs
	case AssigneeSingleID:
		return []string{a.ID}
	case AssigneeSingleObject:
		if a.ID != "" {
			return []string{a.ID}
		}
	}
	return nil
}

// DirectEmail returns an email address embedded in the legacy field, if
// any, usable without a directory lookup.
func (a Assignees) DirectEmail() string {
	switch a.Kind {
	case AssigneeSingleEmail:
		return a.Email
	case AssigneeSingleObject:
		if a.ID == "" {
			return a.Email
		}
	}
	return ""
}
