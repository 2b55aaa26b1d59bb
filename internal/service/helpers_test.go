package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/teamtask/internal/database/dbtest"
	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
	"github.com/gurkanbulca/teamtask/pkg/auth"
)

const testPassword = "secret123"

// TestHelpers provides common test utilities
type TestHelpers struct {
	t *testing.T

	companies *repository.CompanyRepository
	users     *repository.UserRepository
	tasks     *repository.TaskRepository
	comments  *repository.CommentRepository

	passwordManager *auth.PasswordManager
	tokenManager    *auth.TokenManager
	validator       *middleware.Validator
	securityLogger  *SecurityLogger
	logs            *observer.ObservedLogs

	clock time.Time
}

// NewTestHelpers opens a fresh database and the collaborators the services need.
func NewTestHelpers(t *testing.T) *TestHelpers {
	t.Helper()
	db := dbtest.Open(t)
	core, logs := observer.New(zap.DebugLevel)

	h := &TestHelpers{
		t:               t,
		companies:       repository.NewCompanyRepository(db),
		users:           repository.NewUserRepository(db),
		comments:        repository.NewCommentRepository(db),
		passwordManager: auth.NewPasswordManager(auth.WithCost(bcrypt.MinCost)),
		tokenManager:    auth.NewTokenManager("test-secret", time.Hour),
		validator:       middleware.NewValidator(nil),
		securityLogger:  NewSecurityLogger(zap.New(core)),
		logs:            logs,
		clock:           time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	h.tasks = repository.NewTaskRepository(db).WithClock(h.tick)
	return h
}

func (h *TestHelpers) tick() time.Time {
	h.clock = h.clock.Add(time.Second)
	return h.clock
}

func (h *TestHelpers) AuthService() *AuthService {
	return NewAuthService(h.companies, h.users, h.tokenManager, h.passwordManager, h.validator, h.securityLogger, nil)
}

func (h *TestHelpers) UserService() *UserService {
	return NewUserService(h.users, h.passwordManager, h.validator, h.securityLogger, nil)
}

func (h *TestHelpers) TaskService() *TaskService {
	return NewTaskService(h.tasks, h.users, h.comments, h.validator, nil)
}

func (h *TestHelpers) CommentService() *CommentService {
	return NewCommentService(h.comments, h.tasks, h.validator, nil)
}

// CreateCompany registers a company with its admin.
func (h *TestHelpers) CreateCompany(name, email, adminName, adminEmail string) (*models.Company, *models.User) {
	h.t.Helper()
	hash, err := h.passwordManager.HashPassword(testPassword)
	require.NoError(h.t, err)

	company := &models.Company{Name: name, Email: email, PasswordHash: hash}
	admin := &models.User{Name: adminName, Email: adminEmail, PasswordHash: hash, Role: models.RoleAdmin}
	require.NoError(h.t, h.companies.Create(context.Background(), company, admin))
	return company, admin
}

// CreateEmployee adds an employee to company.
func (h *TestHelpers) CreateEmployee(company *models.Company, name, email string) *models.User {
	h.t.Helper()
	hash, err := h.passwordManager.HashPassword(testPassword)
	require.NoError(h.t, err)

	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleEmployee, CompanyID: company.ID}
	require.NoError(h.t, h.users.Create(context.Background(), user))
	return user
}

// CreateTask stores a task; parent may be nil.
func (h *TestHelpers) CreateTask(title string, assigner, assignee *models.User, parent *models.Task) *models.Task {
	h.t.Helper()
	task := &models.Task{
		Title:      title,
		AssignerID: assigner.ID,
		AssigneeID: assignee.ID,
		CompanyID:  assigner.CompanyID,
	}
	if parent != nil {
		task.ParentTaskID.UUID, task.ParentTaskID.Valid = parent.ID, true
	}
	require.NoError(h.t, h.tasks.Create(context.Background(), task))
	return task
}

// Context returns a context authenticated as u.
func (h *TestHelpers) Context(u *models.User) context.Context {
	h.t.Helper()
	company, err := h.companies.GetByID(context.Background(), u.CompanyID)
	require.NoError(h.t, err)

	return middleware.WithRequester(context.Background(), models.Requester{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CompanyID:   company.ID,
		CompanyName: company.Name,
	})
}

// acme is the company most tests run in: an admin and two employees.
type acme struct {
	*TestHelpers
	company *models.Company
	admin   *models.User
	bob     *models.User
	carol   *models.User
}

func newAcme(t *testing.T) *acme {
	h := NewTestHelpers(t)
	company, admin := h.CreateCompany("Acme", "office@acme.com", "Alice Admin", "alice@acme.com")
	return &acme{
		TestHelpers: h,
		company:     company,
		admin:       admin,
		bob:         h.CreateEmployee(company, "Bob Builder", "bob@acme.com"),
		carol:       h.CreateEmployee(company, "Carol Coder", "carol@acme.com"),
	}
}

// assertCode checks that err is a status error with code and, when msg is
// not empty, that message.
func assertCode(t *testing.T, err error, code codes.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code())
	if msg != "" {
		assert.Equal(t, msg, st.Message())
	}
}
