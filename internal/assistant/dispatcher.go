package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
	"github.com/gurkanbulca/teamtask/pkg/security"
)

const (
	untitledTask = "Untitled Task"
	listLimit    = 20

	noMatchingTasks = "No matching tasks found."
	commandFailed   = "⚠️ Error processing command."
)

// TaskStore is the slice of the task repository the assistant needs.
type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	FindByTitle(ctx context.Context, companyID uuid.UUID, title string) (*models.Task, error)
	Update(ctx context.Context, companyID, id uuid.UUID, u repository.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	CountIncompleteSubtasks(ctx context.Context, id uuid.UUID) (int, error)
	List(ctx context.Context, f repository.TaskFilter) ([]models.TaskSummary, error)
}

// UserDirectory resolves display names to users within a company.
type UserDirectory interface {
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.User, error)
}

// Dispatcher applies commands to the task store on behalf of a session.
type Dispatcher struct {
	tasks  TaskStore
	users  UserDirectory
	logger *zap.Logger
}

func NewDispatcher(tasks TaskStore, users UserDirectory, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{tasks: tasks, users: users, logger: logger}
}

// Dispatch runs cmds in order and returns one line per command that produced
// a result. A command that fails is reported in its own slot and does not
// stop the ones after it.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, cmds []Command) []string {
	results := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		result, err := d.Execute(ctx, s, cmd)
		if err != nil {
			d.logger.Warn("assistant command failed",
				zap.String("action", string(cmd.Action())),
				zap.String("user_id", s.Requester.UserID.String()),
				zap.Error(err),
			)
			results = append(results, commandFailed)
			continue
		}
		if result != "" {
			d.logger.Info("assistant command applied",
				zap.String("event_type", security.EventTypeAssistantCommand),
				zap.String("action", string(cmd.Action())),
				zap.String("user_id", s.Requester.UserID.String()),
				zap.String("company_id", s.Requester.CompanyID.String()),
			)
			results = append(results, result)
		}
	}
	return results
}

// Execute runs a single command. Unknown actions yield an empty result.
func (d *Dispatcher) Execute(ctx context.Context, s *Session, cmd Command) (string, error) {
	switch c := cmd.(type) {
	case CreateTask:
		return d.createTask(ctx, s, c)
	case DeleteTask:
		return d.deleteTask(ctx, s, c)
	case UpdateTask:
		return d.updateTask(ctx, s, c)
	case ListTasks:
		return d.listTasks(ctx, s, c)
	case Unknown:
		return "", nil
	default:
		return "", fmt.Errorf("unhandled command type %T", cmd)
	}
}

func (d *Dispatcher) createTask(ctx context.Context, s *Session, c CreateTask) (string, error) {
	req := s.Requester

	assignee, err := d.lookupUser(ctx, req.CompanyID, c.Assignee)
	if err != nil {
		return "", err
	}

	priority, ok := models.ParsePriority(c.Priority)
	if !ok {
		priority = models.PriorityMedium
	}

	title := c.Title
	if strings.TrimSpace(title) == "" {
		title = untitledTask
	}

	task := &models.Task{
		Title:       title,
		Description: c.Description,
		Status:      models.TaskStatusTodo,
		Priority:    priority,
		AssignerID:  req.UserID,
		AssigneeID:  req.UserID,
		CompanyID:   req.CompanyID,
	}
	if assignee != nil {
		task.AssigneeID = assignee.ID
	}
	if err := d.tasks.Create(ctx, task); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	if assignee != nil {
		return fmt.Sprintf("✅ Task \"%s\" created and assigned to %s.", task.Title, assignee.Name), nil
	}
	return fmt.Sprintf("✅ Task \"%s\" created.", task.Title), nil
}

// deleteTask is scoped to the company only; it does not require the
// requester to take part in the task.
func (d *Dispatcher) deleteTask(ctx context.Context, s *Session, c DeleteTask) (string, error) {
	companyID := s.Requester.CompanyID

	task, err := d.tasks.FindByTitle(ctx, companyID, c.Title)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c.Title), nil
	}
	if err != nil {
		return "", fmt.Errorf("find task: %w", err)
	}

	open, err := d.tasks.CountIncompleteSubtasks(ctx, task.ID)
	if err != nil {
		return "", err
	}
	if open > 0 {
		return fmt.Sprintf("⚠️ Task \"%s\" has incomplete subtasks and cannot be deleted.", task.Title), nil
	}

	if err := d.tasks.Delete(ctx, companyID, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c.Title), nil
		}
		return "", fmt.Errorf("delete task: %w", err)
	}
	return fmt.Sprintf("🗑️ Task \"%s\" deleted.", task.Title), nil
}

func (d *Dispatcher) updateTask(ctx context.Context, s *Session, c UpdateTask) (string, error) {
	companyID := s.Requester.CompanyID
	title := s.ResolveTitle(c.Title)

	task, err := d.tasks.FindByTitle(ctx, companyID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(title), nil
	}
	if err != nil {
		return "", fmt.Errorf("find task: %w", err)
	}

	var update repository.TaskUpdate
	if st, ok := models.ParseTaskStatus(c.Status); ok {
		update.Status = &st
	}
	if p, ok := models.ParsePriority(c.Priority); ok {
		update.Priority = &p
	}
	if update.IsEmpty() {
		return fmt.Sprintf("⚠️ No valid fields to update for task \"%s\".", task.Title), nil
	}

	if _, err := d.tasks.Update(ctx, companyID, task.ID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(title), nil
		}
		return "", fmt.Errorf("update task: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✏️ Task \"%s\" updated", task.Title)
	if update.Status != nil {
		fmt.Fprintf(&b, " (status: %s)", *update.Status)
	}
	if update.Priority != nil {
		fmt.Fprintf(&b, " (priority: %s)", *update.Priority)
	}
	b.WriteString(".")
	return b.String(), nil
}

// listTasks only ever shows tasks the requester assigned or is assigned,
// whatever their role. Filter values that do not resolve are ignored.
func (d *Dispatcher) listTasks(ctx context.Context, s *Session, c ListTasks) (string, error) {
	req := s.Requester

	filter := repository.TaskFilter{
		CompanyID:     req.CompanyID,
		ParticipantID: &req.UserID,
		SortBy:        "updated_at",
		SortOrder:     "desc",
		Limit:         listLimit,
	}
	if st, ok := models.ParseTaskStatus(c.Status); ok {
		filter.Status = &st
	}
	if p, ok := models.ParsePriority(c.Priority); ok {
		filter.Priority = &p
	}

	assignee, err := d.lookupUser(ctx, req.CompanyID, c.Assignee)
	if err != nil {
		return "", err
	}
	if assignee != nil {
		filter.AssigneeID = &assignee.ID
	}

	tasks, err := d.tasks.List(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return noMatchingTasks, nil
	}

	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, "Tasks:")
	for _, t := range tasks {
		lines = append(lines, fmt.Sprintf("- %s (%s, %s)", t.Title, t.Status, t.Priority))
	}
	return strings.Join(lines, "\n"), nil
}

// lookupUser returns nil when name is blank or matches nobody.
func (d *Dispatcher) lookupUser(ctx context.Context, companyID uuid.UUID, name string) (*models.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	user, err := d.users.FindByName(ctx, companyID, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", name, err)
	}
	return user, nil
}

func notFound(title string) string {
	return fmt.Sprintf("⚠️ Task \"%s\" not found.", title)
}
