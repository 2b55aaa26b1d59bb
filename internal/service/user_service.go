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
	"github.com/gurkanbulca/teamtask/pkg/auth"
)

type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService manages the members of the requester's company.
type UserService struct {
	users           *repository.UserRepository
	passwordManager *auth.PasswordManager
	validator       *middleware.Validator
	securityLogger  *SecurityLogger
	logger          *zap.Logger
}

func NewUserService(
	users *repository.UserRepository,
	passwordManager *auth.PasswordManager,
	validator *middleware.Validator,
	securityLogger *SecurityLogger,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:           users,
		passwordManager: passwordManager,
		validator:       validator,
		securityLogger:  securityLogger,
		logger:          nopIfNil(logger),
	}
}

// List returns every user of the admin's company, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListByCompany(ctx, admin.CompanyID)
	if err != nil {
		return nil, internalError(s.logger, "failed to list users", err)
	}
	return users, nil
}

// Employees is open to every member so tasks can be assigned.
func (s *UserService) Employees(ctx context.Context) ([]models.User, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListEmployees(ctx, req.CompanyID)
	if err != nil {
		return nil, internalError(s.logger, "failed to list employees", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(id, "User not found")
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetInCompany(ctx, admin.CompanyID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, status.Error(codes.NotFound, "User not found")
		}
		return nil, internalError(s.logger, "failed to get user", err)
	}
	return user, nil
}

// CreateEmployee adds an EMPLOYEE to the admin's company.
func (s *UserService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*models.User, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if blank(req.Name, req.Email, req.Password) {
		return nil, status.Error(codes.InvalidArgument, "Name, email, and password are required")
	}
	return s.members().create(ctx, admin.CompanyID, req.Name, req.Email, req.Password,
		models.RoleEmployee, "Email already exists in this company")
}

// DeleteEmployee removes an employee who neither assigned nor holds any task.
func (s *UserService) DeleteEmployee(ctx context.Context, id string) (*MessageResponse, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(id, "Employee not found")
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetInCompany(ctx, admin.CompanyID, userID)
	if err != nil && !isNotFound(err) {
		return nil, internalError(s.logger, "failed to get user", err)
	}
	if err != nil || user.Role != models.RoleEmployee {
		return nil, status.Error(codes.NotFound, "Employee not found")
	}

	n, err := s.users.CountTasks(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "failed to count tasks", err)
	}
	if n > 0 {
		return nil, status.Error(codes.FailedPrecondition,
			"Cannot delete employee with assigned tasks. Please reassign or complete all tasks first.")
	}

	if err := s.users.Delete(ctx, admin.CompanyID, userID); err != nil {
		if isNotFound(err) {
			return nil, status.Error(codes.NotFound, "Employee not found")
		}
		return nil, internalError(s.logger, "failed to delete user", err)
	}

	s.securityLogger.LogUserDeleted(ctx, userID)
	return &MessageResponse{Message: "Employee deleted successfully"}, nil
}

func (s *UserService) members() memberCreator {
	return memberCreator{
		users:           s.users,
		passwordManager: s.passwordManager,
		validator:       s.validator,
		securityLogger:  s.securityLogger,
		logger:          s.logger,
	}
}

// memberCreator stores new company members for both the auth and user services.
type memberCreator struct {
	users           *repository.UserRepository
	passwordManager *auth.PasswordManager
	validator       *middleware.Validator
	securityLogger  *SecurityLogger
	logger          *zap.Logger
}

func (m memberCreator) create(ctx context.Context, companyID uuid.UUID, name, email, password string, role models.Role, duplicateMsg string) (*models.User, error) {
	if err := m.validator.Join(
		m.validator.Name("name", name),
		m.validator.Email("email", email),
	); err != nil {
		return nil, err
	}

	_, err := m.users.FindByEmailInCompany(ctx, companyID, email)
	switch {
	case err == nil:
		return nil, status.Error(codes.AlreadyExists, duplicateMsg)
	case !isNotFound(err):
		return nil, internalError(m.logger, "failed to check user existence", err)
	}

	hashedPassword, err := m.passwordManager.HashPassword(password)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
		CompanyID:    companyID,
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, internalError(m.logger, "failed to create user", err)
	}

	m.securityLogger.LogUserCreated(ctx, user)
	return user, nil
}
