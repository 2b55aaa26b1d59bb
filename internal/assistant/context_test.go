package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/teamtask/internal/models"
)

func TestContextBuilder_Build(t *testing.T) {
	f := newFixture(t)

	f.createTask(t, "Not mine", f.admin, f.admin)
	for _, title := range []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8", "T9", "T10", "T11"} {
		f.createTask(t, title, f.admin, f.employee)
	}

	s, err := NewContextBuilder(f.tasks).Build(context.Background(), f.requester(f.employee))
	require.NoError(t, err)
	require.Len(t, s.Recent, recentTaskLimit)
	assert.Equal(t, "T11", s.Recent[0].Title)
	assert.Equal(t, "T2", s.Recent[9].Title)
	assert.Equal(t, "John Employee", s.Recent[0].AssigneeName)
	assert.Equal(t, "Admin User", s.Recent[0].AssignerName)
}

func TestSession_ResolveTitle(t *testing.T) {
	s := &Session{Recent: []models.TaskSummary{
		{Task: models.Task{Title: "Newest"}},
		{Task: models.Task{Title: "Older"}},
	}}

	tests := []struct {
		in   string
		want string
	}{
		{"last task", "Newest"},
		{"The LAST TASK you created", "Newest"},
		{"second task in my list", "Older"},
		{"Older", "Older"},
		{"task", "task"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ResolveTitle(tt.in), "ResolveTitle(%q)", tt.in)
	}

	empty := &Session{}
	assert.Equal(t, "last task", empty.ResolveTitle("last task"))
	assert.Equal(t, "second task", (&Session{Recent: s.Recent[:1]}).ResolveTitle("second task"))
}

func TestSession_SystemPrompt(t *testing.T) {
	s := &Session{
		Requester: models.Requester{Name: "John Employee", Role: models.RoleEmployee, CompanyName: "Default Company"},
		Recent: []models.TaskSummary{
			{Task: models.Task{Title: "Buy milk", Status: models.TaskStatusTodo, Priority: models.PriorityHigh}, AssigneeName: "John Employee"},
			{Task: models.Task{Title: "Orphan", Status: models.TaskStatusCompleted, Priority: models.PriorityLow}},
		},
	}

	prompt, err := s.SystemPrompt()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "\nYou are an AI assistant for a task management system.\n"))
	assert.Contains(t, prompt, `{ "action": "list_tasks", "filter": { "status": "...", "priority": "...", "assignee": "..." } }`)
	assert.Contains(t, prompt, "Current User Context:\n- Name: John Employee\n- Role: EMPLOYEE\n- Company: Default Company\n")
	assert.True(t, strings.HasSuffix(prompt,
		"Recent Tasks (2):\n"+
			"#1: Buy milk (TODO, HIGH priority, assigned to John Employee)\n"+
			"#2: Orphan (COMPLETED, LOW priority, assigned to unassigned)\n"), prompt)
}

func TestSession_SystemPromptDefaults(t *testing.T) {
	prompt, err := (&Session{Requester: models.Requester{Name: "Ann", Role: models.RoleAdmin}}).SystemPrompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, "- Company: Unknown Company\n")
	assert.True(t, strings.HasSuffix(prompt, "Recent Tasks (0):\n\n"), prompt)
}
