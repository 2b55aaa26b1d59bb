package assistant

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
)

const recentTaskLimit = 10

// Session is the per-request snapshot the model is grounded in.
type Session struct {
	Requester models.Requester
	// Recent holds the requester's most recently updated tasks, newest first.
	Recent []models.TaskSummary
}

// ResolveTitle maps "last task" and "second task" onto titles from the
// recent-task snapshot. Anything else is returned unchanged.
func (s *Session) ResolveTitle(title string) string {
	switch {
	case mentions(title, "last task"):
		if len(s.Recent) > 0 {
			return s.Recent[0].Title
		}
	case mentions(title, "second task"):
		if len(s.Recent) > 1 {
			return s.Recent[1].Title
		}
	}
	return title
}

// ContextBuilder loads the snapshot a chat request is answered against.
type ContextBuilder struct {
	tasks TaskStore
}

func NewContextBuilder(tasks TaskStore) *ContextBuilder {
	return &ContextBuilder{tasks: tasks}
}

// Build fetches the ten most recently updated tasks the requester assigned
// or is assigned.
func (b *ContextBuilder) Build(ctx context.Context, req models.Requester) (*Session, error) {
	recent, err := b.tasks.List(ctx, repository.TaskFilter{
		CompanyID:     req.CompanyID,
		ParticipantID: &req.UserID,
		SortBy:        "updated_at",
		SortOrder:     "desc",
		Limit:         recentTaskLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load recent tasks: %w", err)
	}
	return &Session{Requester: req, Recent: recent}, nil
}

var systemPromptTemplate = template.Must(template.New("system").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
You are an AI assistant for a task management system.
If the user asks you to create, delete, update, or list tasks, output a JSON command (or an array of commands) in this format (on a new line):
{ "action": "create_task", "title": "...", "assignee": "...", "description": "...", "priority": "..." }
{ "action": "delete_task", "title": "..." }
{ "action": "update_task", "title": "...", "status": "...", "priority": "..." }
{ "action": "list_tasks", "filter": { "status": "...", "priority": "...", "assignee": "..." } }
- For multiple actions, output an array of JSON commands.
- For references like "last task you created" or "second task in my list", use the user's recent tasks (provided below) and include the resolved title in the command.
- Otherwise, just answer normally.

Current User Context:
- Name: {{.Name}}
- Role: {{.Role}}
- Company: {{.Company}}

Recent Tasks ({{len .Tasks}}):
{{range $i, $t := .Tasks}}{{if $i}}
{{end}}#{{inc $i}}: {{$t.Title}} ({{$t.Status}}, {{$t.Priority}} priority, assigned to {{$t.Assignee}}){{end}}
`))

type promptTask struct {
	Title    string
	Status   models.TaskStatus
	Priority models.Priority
	Assignee string
}

// SystemPrompt renders the grounding instruction for the model.
func (s *Session) SystemPrompt() (string, error) {
	company := s.Requester.CompanyName
	if company == "" {
		company = "Unknown Company"
	}

	tasks := make([]promptTask, 0, len(s.Recent))
	for _, t := range s.Recent {
		assignee := t.AssigneeName
		if assignee == "" {
			assignee = "unassigned"
		}
		tasks = append(tasks, promptTask{
			Title:    t.Title,
			Status:   t.Status,
			Priority: t.Priority,
			Assignee: assignee,
		})
	}

	var b strings.Builder
	err := systemPromptTemplate.Execute(&b, map[string]any{
		"Name":    s.Requester.Name,
		"Role":    s.Requester.Role,
		"Company": company,
		"Tasks":   tasks,
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return b.String(), nil
}
