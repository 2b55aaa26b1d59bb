package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/internal/repository"
	"github.com/gurkanbulca/teamtask/pkg/auth"
)

const (
	seedCompanyEmail = "admin@default.com"
	seedAdminPass    = "admin123"
	seedEmployeePass = "employee123"
)

func seed(ctx context.Context, db *database.DB, passwords *auth.PasswordManager, logger *zap.Logger) error {
	companies := repository.NewCompanyRepository(db)
	users := repository.NewUserRepository(db)
	tasks := repository.NewTaskRepository(db)
	comments := repository.NewCommentRepository(db)

	if _, err := companies.GetByEmail(ctx, seedCompanyEmail); err == nil {
		logger.Info("seed data already present", zap.String("company", seedCompanyEmail))
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	adminHash, err := passwords.HashPassword(seedAdminPass)
	if err != nil {
		return err
	}
	employeeHash, err := passwords.HashPassword(seedEmployeePass)
	if err != nil {
		return err
	}

	company := &models.Company{Name: "Default Company", Email: seedCompanyEmail, PasswordHash: adminHash}
	admin := &models.User{Name: "Admin User", Email: "admin@default.com", PasswordHash: adminHash, Role: models.RoleAdmin}
	if err := companies.Create(ctx, company, admin); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	logger.Info("created default company", zap.String("name", company.Name))

	employee := &models.User{
		Name:         "John Employee",
		Email:        "john@default.com",
		PasswordHash: employeeHash,
		Role:         models.RoleEmployee,
		CompanyID:    company.ID,
	}
	if err := users.Create(ctx, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}

	samples := []models.Task{
		{
			Title:       "Welcome to the task manager",
			Description: "This is your first task. You can edit, delete, or mark it as complete.",
			Status:      models.TaskStatusTodo,
			Priority:    models.PriorityMedium,
		},
		{
			Title:       "Set up your team",
			Description: "Invite team members and assign them to projects.",
			Status:      models.TaskStatusInProgress,
			Priority:    models.PriorityHigh,
		},
		{
			Title:       "Create your first project",
			Description: "Start organizing your work into projects.",
			Status:      models.TaskStatusTodo,
			Priority:    models.PriorityLow,
		},
	}
	for i := range samples {
		samples[i].AssignerID = admin.ID
		samples[i].AssigneeID = employee.ID
		samples[i].CompanyID = company.ID
		if err := tasks.Create(ctx, &samples[i]); err != nil {
			return fmt.Errorf("create task %q: %w", samples[i].Title, err)
		}
	}

	if err := comments.Create(ctx, &models.Comment{
		Content:   "Welcome to the team! This task manager will help you stay organized.",
		TaskID:    samples[0].ID,
		AuthorID:  admin.ID,
		CompanyID: company.ID,
	}); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	logger.Info("seed completed",
		zap.String("admin_login", "admin@default.com / "+seedAdminPass),
		zap.String("employee_login", "john@default.com / "+seedEmployeePass),
	)
	return nil
}
