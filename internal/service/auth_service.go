// internal/service/auth_service.go
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

const msgInvalidCredentials = "Invalid credentials"

type RegisterCompanyRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	AdminName  string `json:"adminName"`
	AdminEmail string `json:"adminEmail"`
	Password   string `json:"password"`
}

// CompanyInfo is the public view of a company.
type CompanyInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type RegisterCompanyResponse struct {
	Message   string       `json:"message"`
	Company   CompanyInfo  `json:"company"`
	AdminUser *models.User `json:"adminUser"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// CompanyEmail picks the account when the same email exists in several companies.
	CompanyEmail string `json:"companyEmail,omitempty"`
}

type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expiresIn"`
	User      models.Requester `json:"user"`
}

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type UserResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type MeResponse struct {
	User models.Requester `json:"user"`
}

type AuthService struct {
	companies       *repository.CompanyRepository
	users           *repository.UserRepository
	tokenManager    *auth.TokenManager
	passwordManager *auth.PasswordManager
	validator       *middleware.Validator
	securityLogger  *SecurityLogger
	logger          *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	companies *repository.CompanyRepository,
	users *repository.UserRepository,
	tokenManager *auth.TokenManager,
	passwordManager *auth.PasswordManager,
	validator *middleware.Validator,
	securityLogger *SecurityLogger,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		companies:       companies,
		users:           users,
		tokenManager:    tokenManager,
		passwordManager: passwordManager,
		validator:       validator,
		securityLogger:  securityLogger,
		logger:          nopIfNil(logger),
	}
}

// RegisterCompany creates a tenant together with its first admin. The admin
// email must be unused in every company so the first login is unambiguous.
func (s *AuthService) RegisterCompany(ctx context.Context, req RegisterCompanyRequest) (*RegisterCompanyResponse, error) {
	if blank(req.Name, req.Email, req.AdminName, req.AdminEmail, req.Password) {
		return nil, status.Error(codes.InvalidArgument,
			"Company name, company email, admin name, admin email, and password are required")
	}
	if err := s.validator.Join(
		s.validator.CompanyName(req.Name),
		s.validator.Email("email", req.Email),
		s.validator.Name("adminName", req.AdminName),
		s.validator.Email("adminEmail", req.AdminEmail),
	); err != nil {
		return nil, err
	}

	// Check if company already exists
	_, err := s.companies.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, status.Error(codes.AlreadyExists, "Company with this email already exists")
	case !isNotFound(err):
		return nil, internalError(s.logger, "failed to check company existence", err)
	}

	existing, err := s.users.FindByEmail(ctx, req.AdminEmail)
	if err != nil {
		return nil, internalError(s.logger, "failed to check user existence", err)
	}
	if len(existing) > 0 {
		return nil, status.Error(codes.AlreadyExists, "Admin email already exists in another company")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	company := &models.Company{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hashedPassword,
	}
	admin := &models.User{
		Name:         strings.TrimSpace(req.AdminName),
		Email:        req.AdminEmail,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}
	if err := s.companies.Create(ctx, company, admin); err != nil {
		return nil, internalError(s.logger, "failed to create company", err)
	}

	s.securityLogger.LogCompanyCreated(ctx, company, admin)

	return &RegisterCompanyResponse{
		Message:   "Company registered successfully",
		Company:   CompanyInfo{ID: company.ID, Name: company.Name, Email: company.Email},
		AdminUser: admin,
	}, nil
}

// Login checks the credentials and issues a token. Without a company email
// (or with one that matches no company) the oldest account under the email
// is used.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if blank(req.Email, req.Password) {
		return nil, status.Error(codes.InvalidArgument, "Email and password are required")
	}

	user, err := s.findLoginUser(ctx, req.Email, req.CompanyEmail)
	if err != nil {
		if isNotFound(err) {
			s.securityLogger.LogLoginFailed(ctx, req.Email, "unknown email")
			return nil, status.Error(codes.Unauthenticated, msgInvalidCredentials)
		}
		return nil, internalError(s.logger, "failed to find user", err)
	}

	if err := s.passwordManager.ComparePassword(user.PasswordHash, req.Password); err != nil {
		s.securityLogger.LogLoginFailed(ctx, req.Email, "invalid password")
		return nil, status.Error(codes.Unauthenticated, msgInvalidCredentials)
	}

	company, err := s.companies.GetByID(ctx, user.CompanyID)
	if err != nil {
		return nil, internalError(s.logger, "failed to load company", err)
	}

	token, expiresIn, err := s.tokenManager.Generate(user.ID, user.CompanyID, string(user.Role))
	if err != nil {
		return nil, internalError(s.logger, "failed to generate token", err)
	}

	s.securityLogger.LogLoginSuccess(ctx, user)

	return &LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		User: models.Requester{
			UserID:      user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Role:        user.Role,
			CompanyID:   company.ID,
			CompanyName: company.Name,
		},
	}, nil
}

func (s *AuthService) findLoginUser(ctx context.Context, email, companyEmail string) (*models.User, error) {
	if strings.TrimSpace(companyEmail) != "" {
		company, err := s.companies.GetByEmail(ctx, companyEmail)
		switch {
		case err == nil:
			return s.users.FindByEmailInCompany(ctx, company.ID, email)
		case !isNotFound(err):
			return nil, err
		}
	}

	users, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, repository.ErrNotFound
	}
	return &users[0], nil
}

// RegisterUser lets an admin add a user of any role to their company.
func (s *AuthService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if blank(req.Name, req.Email, req.Password) {
		return nil, status.Error(codes.InvalidArgument, "Name, email, and password are required")
	}

	role := models.RoleEmployee
	if req.Role != "" {
		parsed, ok := models.ParseRole(req.Role)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "role must be ADMIN or EMPLOYEE")
		}
		role = parsed
	}

	user, err := s.members().create(ctx, admin.CompanyID, req.Name, req.Email, req.Password, role,
		"User already exists in this company")
	if err != nil {
		return nil, err
	}
	return &UserResponse{Message: "User created successfully", User: user}, nil
}

func (s *AuthService) members() memberCreator {
	return memberCreator{
		users:           s.users,
		passwordManager: s.passwordManager,
		validator:       s.validator,
		securityLogger:  s.securityLogger,
		logger:          s.logger,
	}
}

// Me returns the authenticated identity with its company name.
func (s *AuthService) Me(ctx context.Context) (*MeResponse, error) {
	req, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	if req.CompanyName == "" {
		req.CompanyName = "Unknown Company"
	}
	return &MeResponse{User: req}, nil
}

// DeleteCompany removes the admin's company with all of its data.
func (s *AuthService) DeleteCompany(ctx context.Context) (*MessageResponse, error) {
	req, err := requireAdmin(ctx)
	if err != nil {
		s.securityLogger.LogAccessDenied(ctx, "company deletion by non-admin")
		return nil, err
	}

	if err := s.companies.DeleteCascade(ctx, req.CompanyID); err != nil {
		if isNotFound(err) {
			return nil, status.Error(codes.NotFound, "Company not found")
		}
		return nil, internalError(s.logger, "failed to delete company", err)
	}

	s.securityLogger.LogCompanyDeleted(ctx, req.CompanyID)
	return &MessageResponse{Message: "Company and all associated data deleted successfully"}, nil
}

// blank reports whether any of values is empty after trimming.
func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
