package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
)

const msgCommentNotFound = "Comment not found"

type CommentRequest struct {
	Content string `json:"content"`
}

// CommentService manages the discussion on tasks. Reading and writing
// follows task visibility; editing is reserved to the author and admins.
type CommentService struct {
	comments  *repository.CommentRepository
	tasks     *repository.TaskRepository
	validator *middleware.Validator
	logger    *zap.Logger
}

func NewCommentService(
	comments *repository.CommentRepository,
	tasks *repository.TaskRepository,
	validator *middleware.Validator,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		comments:  comments,
		tasks:     tasks,
		validator: validator,
		logger:    nopIfNil(logger),
	}
}

// List returns the comments on a visible task, oldest first.
func (s *CommentService) List(ctx context.Context, taskID string) ([]models.Comment, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	task, err := visibleTask(ctx, s.tasks, s.logger, req, taskID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTask(ctx, req.CompanyID, task.ID)
	if err != nil {
		return nil, internalError(s.logger, "failed to list comments", err)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, taskID string, in CommentRequest) (*models.Comment, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.content(in.Content)
	if err != nil {
		return nil, err
	}
	task, err := visibleTask(ctx, s.tasks, s.logger, req, taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:   content,
		TaskID:    task.ID,
		AuthorID:  req.UserID,
		CompanyID: req.CompanyID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, internalError(s.logger, "failed to create comment", err)
	}
	comment.AuthorName = req.Name
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, id string, in CommentRequest) (*models.Comment, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.content(in.Content)
	if err != nil {
		return nil, err
	}
	comment, err := s.editable(ctx, req, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.comments.Update(ctx, req.CompanyID, comment.ID, content)
	if err != nil {
		return nil, s.writeError(err, "failed to update comment")
	}
	return updated, nil
}

func (s *CommentService) Delete(ctx context.Context, id string) (*MessageResponse, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.editable(ctx, req, id)
	if err != nil {
		return nil, err
	}

	if err := s.comments.Delete(ctx, req.CompanyID, comment.ID); err != nil {
		return nil, s.writeError(err, "failed to delete comment")
	}
	return &MessageResponse{Message: "Comment deleted successfully"}, nil
}

func (s *CommentService) content(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", status.Error(codes.InvalidArgument, "Comment content is required")
	}
	if err := s.validator.Join(s.validator.Comment(content)); err != nil {
		return "", err
	}
	return content, nil
}

// editable loads a comment the requester wrote, or any company comment for admins.
func (s *CommentService) editable(ctx context.Context, req models.Requester, id string) (*models.Comment, error) {
	commentID, err := parseID(id, msgCommentNotFound)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.Get(ctx, req.CompanyID, commentID)
	if err != nil {
		return nil, s.writeError(err, "failed to get comment")
	}
	if !req.IsAdmin() && comment.AuthorID != req.UserID {
		return nil, status.Error(codes.PermissionDenied, "You do not have permission to modify this comment")
	}
	return comment, nil
}

func (s *CommentService) writeError(err error, msg string) error {
	if isNotFound(err) {
		return status.Error(codes.NotFound, msgCommentNotFound)
	}
	return internalError(s.logger, msg, err)
}
