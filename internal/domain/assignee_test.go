package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAssignees_Shapes(t *testing.T) {
	tests := []struct {
		name string
		task *Task
		want Assignees
	}{
		{
			"modern array wins over legacy",
			&Task{AssigneeIDs: []string{"u2", "u1"}, AssignedTo: "u9"},
			Assignees{Kind: AssigneeIDList, IDs: []string{"u2", "u1"}},
		},
		{
			"legacy string id",
			&Task{AssignedTo: "user123"},
			Assignees{Kind: AssigneeSingleID, ID: "user123"},
		},
		{
			"legacy string email",
			&Task{AssignedTo: "ana@example.com"},
			Assignees{Kind: AssigneeSingleEmail, Email: "ana@example.com"},
		},
		{
			"legacy object",
			&Task{AssignedTo: map[string]any{"userId": "user123", "email": "ana@example.com"}},
			Assignees{Kind: AssigneeSingleObject, ID: "user123", Email: "ana@example.com"},
		},
		{
			"legacy object email only",
			&Task{AssignedTo: map[string]any{"email": "ana@example.com"}},
			Assignees{Kind: AssigneeSingleObject, Email: "ana@example.com"},
		},
		{
			"malformed legacy value",
			&Task{AssignedTo: 42},
			Assignees{Kind: AssigneeNone},
		},
		{
			"empty everything",
			&Task{},
			Assignees{Kind: AssigneeNone},
		},
		{
			"nil task",
			nil,
			Assignees{Kind: AssigneeNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAssignees(tt.task))
		})
	}
}

func TestCanonical_EquivalentShapes(t *testing.T) {
	// The three historical ways of assigning a single user must canonicalize
	// to the same string.
	shapes := []*Task{
		{AssignedTo: "user123"},
		{AssignedTo: map[string]any{"userId": "user123"}},
		{AssigneeIDs: []string{"user123"}},
	}
	for _, task := range shapes {
		assert.Equal(t, "user123", ParseAssignees(task).Canonical())
	}
}

func TestCanonical_SortsModernList(t *testing.T) {
	a := ParseAssignees(&Task{AssigneeIDs: []string{"u3", "u1", "u2"}})
	b := ParseAssignees(&Task{AssigneeIDs: []string{"u1", "u2", "u3"}})
	assert.Equal(t, "u1,u2,u3", a.Canonical())
	assert.Equal(t, a.Canonical(), b.Canonical())
}

func TestUserIDs(t *testing.T) {
	assert.Equal(t, []string{"u1", "u2"}, ParseAssignees(&Task{AssigneeIDs: []string{"u1", "u2"}}).UserIDs())
	assert.Equal(t, []string{"user123"}, ParseAssignees(&Task{AssignedTo: "user123"}).UserIDs())
	assert.Nil(t, ParseAssignees(&Task{AssignedTo: "ana@example.com"}).UserIDs())
	assert.Nil(t, ParseAssignees(&Task{}).UserIDs())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Por Hacer", StatusLabel("todo"))
	assert.Equal(t, "Completada", StatusLabel("completed"))
	assert.Equal(t, "Media", PriorityLabel("medium"))
	// Unknown values pass through for forward compatibility.
	assert.Equal(t, "archived", StatusLabel("archived"))
}
