// internal/service/task_service.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
)

const (
	msgTaskNotFound   = "Task not found"
	msgParentNotFound = "Parent task not found or you do not have permission to create subtasks for it"
)

// List scopes accepted by ListTasksRequest.Type.
const (
	ListTypeAll          = "all"
	ListTypeAssignedToMe = "assigned-to-me"
	ListTypeCreatedByMe  = "created-by-me"
)

type ListTasksRequest struct {
	Status   string
	Priority string
	Search   string
	Type     string
}

type CreateTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority,omitempty"`
	AssigneeID   string `json:"assigneeId"`
	ParentTaskID string `json:"parentTaskId,omitempty"`
}

// UpdateTaskRequest carries only the fields present in the request body.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	AssigneeID  *string `json:"assigneeId,omitempty"`
}

// TaskRef names a related task.
type TaskRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// TaskDetail is a task with the relations its viewer may see.
type TaskDetail struct {
	models.TaskSummary
	// ParentTask is nil unless the viewer assigned or holds the parent.
	ParentTask *TaskRef             `json:"parentTask"`
	Subtasks   []models.TaskSummary `json:"subtasks"`
	Comments   []models.Comment     `json:"comments"`
}

type TaskService struct {
	tasks     *repository.TaskRepository
	users     *repository.UserRepository
	comments  *repository.CommentRepository
	validator *middleware.Validator
	logger    *zap.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	comments *repository.CommentRepository,
	validator *middleware.Validator,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		tasks:     tasks,
		users:     users,
		comments:  comments,
		validator: validator,
		logger:    nopIfNil(logger),
	}
}

// ListTasks returns the tasks the requester may see, newest first. Admins
// see the whole company and employees their own tasks; Type narrows either
// to one side of the assignment. Search is applied on top of that scope.
func (s *TaskService) ListTasks(ctx context.Context, in ListTasksRequest) ([]TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	filter := repository.TaskFilter{
		CompanyID: req.CompanyID,
		Search:    in.Search,
	}
	switch in.Type {
	case ListTypeAssignedToMe:
		filter.AssigneeID = &req.UserID
	case ListTypeCreatedByMe:
		filter.AssignerID = &req.UserID
	case "", ListTypeAll:
		if !req.IsAdmin() {
			filter.ParticipantID = &req.UserID
		}
	default:
		return nil, status.Errorf(codes.InvalidArgument, "invalid type %q", in.Type)
	}

	if in.Status != "" {
		st, ok := models.ParseTaskStatus(in.Status)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "invalid status %q", in.Status)
		}
		filter.Status = &st
	}
	if in.Priority != "" {
		p, ok := models.ParsePriority(in.Priority)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "invalid priority %q", in.Priority)
		}
		filter.Priority = &p
	}

	summaries, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, internalError(s.logger, "failed to list tasks", err)
	}

	details := make([]TaskDetail, 0, len(summaries))
	for _, summary := range summaries {
		detail, err := s.detail(ctx, req, summary)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// GetTask returns one visible task with its relations.
func (s *TaskService) GetTask(ctx context.Context, id string) (*TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	task, err := visibleTask(ctx, s.tasks, s.logger, req, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, req, task.ID)
}

// CreateTask creates a task, or a subtask when ParentTaskID is set.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskRequest) (*TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.checkNewTask(in); err != nil {
		return nil, err
	}

	var parent *models.Task
	if in.ParentTaskID != "" {
		if parent, err = s.parentFor(ctx, req, in.ParentTaskID, codes.InvalidArgument); err != nil {
			return nil, err
		}
	}
	return s.create(ctx, req, in, parent)
}

// CreateSubtask creates a task under parentID. The requester must assign or
// hold the parent.
func (s *TaskService) CreateSubtask(ctx context.Context, parentID string, in CreateTaskRequest) (*TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkNewTask(in); err != nil {
		return nil, err
	}

	parent, err := s.parentFor(ctx, req, parentID, codes.NotFound)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, req, in, parent)
}

func (s *TaskService) checkNewTask(in CreateTaskRequest) error {
	if strings.TrimSpace(in.Title) == "" {
		return status.Error(codes.InvalidArgument, "Title is required")
	}
	if strings.TrimSpace(in.AssigneeID) == "" {
		return status.Error(codes.InvalidArgument, "Assignee is required")
	}
	return s.validator.Join(
		s.validator.Title(in.Title),
		s.validator.Description(in.Description),
	)
}

// parentFor loads a task the requester may hang a subtask off. Subtasks are
// one level deep, so the parent must itself be top level.
func (s *TaskService) parentFor(ctx context.Context, req models.Requester, id string, missing codes.Code) (*models.Task, error) {
	parentID, err := uuid.Parse(id)
	if err != nil {
		return nil, status.Error(missing, msgParentNotFound)
	}
	parent, err := s.tasks.Get(ctx, req.CompanyID, parentID)
	if err != nil && !isNotFound(err) {
		return nil, internalError(s.logger, "failed to get parent task", err)
	}
	if err != nil || !parent.IsParticipant(req.UserID) {
		return nil, status.Error(missing, msgParentNotFound)
	}
	if parent.IsSubtask() {
		return nil, status.Error(codes.InvalidArgument, "Subtasks cannot have subtasks")
	}
	return parent, nil
}

func (s *TaskService) create(ctx context.Context, req models.Requester, in CreateTaskRequest, parent *models.Task) (*TaskDetail, error) {
	priority := models.PriorityMedium
	if in.Priority != "" {
		p, ok := models.ParsePriority(in.Priority)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "invalid priority %q", in.Priority)
		}
		priority = p
	}

	assignee, err := s.assignee(ctx, req.CompanyID, in.AssigneeID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    priority,
		AssignerID:  req.UserID,
		AssigneeID:  assignee.ID,
		CompanyID:   req.CompanyID,
	}
	if parent != nil {
		task.ParentTaskID = uuid.NullUUID{UUID: parent.ID, Valid: true}
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, internalError(s.logger, "failed to create task", err)
	}
	return s.load(ctx, req, task.ID)
}

func (s *TaskService) assignee(ctx context.Context, companyID uuid.UUID, id string) (*models.User, error) {
	const notInCompany = "Assignee not found in your company"
	assigneeID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, notInCompany)
	}
	user, err := s.users.GetInCompany(ctx, companyID, assigneeID)
	if err != nil {
		if isNotFound(err) {
			return nil, status.Error(codes.InvalidArgument, notInCompany)
		}
		return nil, internalError(s.logger, "failed to get assignee", err)
	}
	return user, nil
}

// UpdateTask applies in. Admins and the assigner may change every field;
// the assignee may only change the status and other fields are ignored.
func (s *TaskService) UpdateTask(ctx context.Context, id string, in UpdateTaskRequest) (*TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.companyTask(ctx, req, id)
	if err != nil {
		return nil, err
	}

	canEdit := req.IsAdmin() || task.AssignerID == req.UserID
	if !canEdit && task.AssigneeID != req.UserID {
		return nil, status.Error(codes.PermissionDenied, "You do not have permission to update this task")
	}

	var update repository.TaskUpdate
	if in.Status != nil {
		st, ok := models.ParseTaskStatus(*in.Status)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "invalid status %q", *in.Status)
		}
		update.Status = &st
	}
	if canEdit {
		if err := s.editableFields(ctx, req, in, &update); err != nil {
			return nil, err
		}
	}

	if _, err := s.tasks.Update(ctx, req.CompanyID, task.ID, update); err != nil {
		return nil, s.writeError(err, "failed to update task")
	}
	return s.load(ctx, req, task.ID)
}

func (s *TaskService) editableFields(ctx context.Context, req models.Requester, in UpdateTaskRequest, update *repository.TaskUpdate) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := s.validator.Join(s.validator.Title(title)); err != nil {
			return err
		}
		update.Title = &title
	}
	if in.Description != nil {
		if err := s.validator.Join(s.validator.Description(*in.Description)); err != nil {
			return err
		}
		update.Description = in.Description
	}
	if in.Priority != nil {
		p, ok := models.ParsePriority(*in.Priority)
		if !ok {
			return status.Errorf(codes.InvalidArgument, "invalid priority %q", *in.Priority)
		}
		update.Priority = &p
	}
	if in.AssigneeID != nil {
		assignee, err := s.assignee(ctx, req.CompanyID, *in.AssigneeID)
		if err != nil {
			return err
		}
		update.AssigneeID = &assignee.ID
	}
	return nil
}

// UpdateStatus is open to the admin, the assigner and the assignee.
func (s *TaskService) UpdateStatus(ctx context.Context, id, value string) (*TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, status.Error(codes.InvalidArgument, "Status is required")
	}
	st, ok := models.ParseTaskStatus(value)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status %q", value)
	}

	task, err := s.companyTask(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if !req.IsAdmin() && !task.IsParticipant(req.UserID) {
		return nil, status.Error(codes.PermissionDenied, "You do not have permission to update this task status")
	}

	if _, err := s.tasks.Update(ctx, req.CompanyID, task.ID, repository.TaskUpdate{Status: &st}); err != nil {
		return nil, s.writeError(err, "failed to update task status")
	}
	return s.load(ctx, req, task.ID)
}

// UpdatePriority is open to the admin and the assigner.
func (s *TaskService) UpdatePriority(ctx context.Context, id, value string) (*TaskDetail, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, status.Error(codes.InvalidArgument, "Priority is required")
	}
	p, ok := models.ParsePriority(value)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "invalid priority %q", value)
	}

	task, err := s.companyTask(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if !req.IsAdmin() && task.AssignerID != req.UserID {
		return nil, status.Error(codes.PermissionDenied, "You do not have permission to update this task priority")
	}

	if _, err := s.tasks.Update(ctx, req.CompanyID, task.ID, repository.TaskUpdate{Priority: &p}); err != nil {
		return nil, s.writeError(err, "failed to update task priority")
	}
	return s.load(ctx, req, task.ID)
}

// DeleteTask is open to the admin and the assigner, and refused while any
// subtask is unfinished.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (*MessageResponse, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.companyTask(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if !req.IsAdmin() && task.AssignerID != req.UserID {
		return nil, status.Error(codes.PermissionDenied, "You do not have permission to delete this task")
	}

	n, err := s.tasks.CountIncompleteSubtasks(ctx, task.ID)
	if err != nil {
		return nil, internalError(s.logger, "failed to count subtasks", err)
	}
	if n > 0 {
		return nil, status.Error(codes.FailedPrecondition,
			"Cannot delete task with incomplete subtasks. Please complete or delete all subtasks first.")
	}

	if err := s.tasks.Delete(ctx, req.CompanyID, task.ID); err != nil {
		return nil, s.writeError(err, "failed to delete task")
	}
	return &MessageResponse{Message: "Task deleted successfully"}, nil
}

// companyTask loads a task of the requester's company without the
// participant check. Mutations apply their own role rules.
func (s *TaskService) companyTask(ctx context.Context, req models.Requester, id string) (*models.Task, error) {
	taskID, err := parseID(id, msgTaskNotFound)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.Get(ctx, req.CompanyID, taskID)
	if err != nil {
		return nil, s.writeError(err, "failed to get task")
	}
	return task, nil
}

func (s *TaskService) writeError(err error, msg string) error {
	if isNotFound(err) {
		return status.Error(codes.NotFound, msgTaskNotFound)
	}
	return internalError(s.logger, msg, err)
}

func (s *TaskService) load(ctx context.Context, req models.Requester, id uuid.UUID) (*TaskDetail, error) {
	summary, err := s.tasks.GetSummary(ctx, req.CompanyID, id)
	if err != nil {
		return nil, s.writeError(err, "failed to load task")
	}
	return s.detail(ctx, req, *summary)
}

// detail attaches the parent, the subtasks the viewer participates in, and
// the comments.
func (s *TaskService) detail(ctx context.Context, req models.Requester, summary models.TaskSummary) (*TaskDetail, error) {
	d := &TaskDetail{TaskSummary: summary}

	if summary.ParentTaskID.Valid {
		parent, err := s.tasks.Get(ctx, req.CompanyID, summary.ParentTaskID.UUID)
		switch {
		case err == nil:
			if parent.IsParticipant(req.UserID) {
				d.ParentTask = &TaskRef{ID: parent.ID, Title: parent.Title}
			}
		case !isNotFound(err):
			return nil, internalError(s.logger, "failed to load parent task", err)
		}
	}

	subtasks, err := s.tasks.List(ctx, repository.TaskFilter{
		CompanyID:     req.CompanyID,
		ParentID:      &summary.ID,
		ParticipantID: &req.UserID,
		SortOrder:     "asc",
	})
	if err != nil {
		return nil, internalError(s.logger, "failed to load subtasks", err)
	}
	d.Subtasks = subtasks

	comments, err := s.comments.ListByTask(ctx, req.CompanyID, summary.ID)
	if err != nil {
		return nil, internalError(s.logger, "failed to load comments", err)
	}
	d.Comments = comments
	return d, nil
}

// visibleTask loads a task the requester may read. Tasks an employee does
// not participate in are reported as missing.
func visibleTask(ctx context.Context, tasks *repository.TaskRepository, logger *zap.Logger, req models.Requester, id string) (*models.Task, error) {
	taskID, err := parseID(id, msgTaskNotFound)
	if err != nil {
		return nil, err
	}
	task, err := tasks.Get(ctx, req.CompanyID, taskID)
	if err != nil {
		if isNotFound(err) {
			return nil, status.Error(codes.NotFound, msgTaskNotFound)
		}
		return nil, internalError(logger, "failed to get task", err)
	}
	if !req.IsAdmin() && !task.IsParticipant(req.UserID) {
		return nil, status.Error(codes.NotFound, msgTaskNotFound)
	}
	return task, nil
}
