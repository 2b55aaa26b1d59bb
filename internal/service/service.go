// Package service holds the business rules behind the HTTP API and the
// gRPC assistant: tenant scoping, role checks and the task, user and comment
// lifecycles. Failures are returned as gRPC status errors.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
)

const msgAdminOnly = "Access denied. Admin only."

// MessageResponse acknowledges an operation that returns no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// internalError logs err and returns an Internal status that does not leak it.
func internalError(logger *zap.Logger, msg string, err error) error {
	logger.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, msg)
}

// requester returns the identity the auth middleware attached to ctx.
func requester(ctx context.Context) (models.Requester, error) {
	req, ok := middleware.RequesterFromContext(ctx)
	if !ok {
		return models.Requester{}, status.Error(codes.Unauthenticated, "Access denied. No token provided.")
	}
	return req, nil
}

// requireAdmin returns the requester when it is an admin.
func requireAdmin(ctx context.Context) (models.Requester, error) {
	req, err := requester(ctx)
	if err != nil {
		return req, err
	}
	if !req.IsAdmin() {
		return req, status.Error(codes.PermissionDenied, msgAdminOnly)
	}
	return req, nil
}

// parseID turns a path or body identifier into a UUID. Malformed ids can
// never match a row, so they are reported the same way as missing ones.
func parseID(raw, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Error(codes.NotFound, notFound)
	}
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
