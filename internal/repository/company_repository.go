package repository

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/models"
)

var companyColumns = []string{
	"id", "name", "email", "password_hash", "subscription_plan", "created_at", "updated_at",
}

type CompanyRepository struct {
	db  *database.DB
	now Clock
}

func NewCompanyRepository(db *database.DB) *CompanyRepository {
	return &CompanyRepository{db: db, now: utcNow}
}

// Create inserts a company and its first admin in one transaction.
func (r *CompanyRepository) Create(ctx context.Context, c *models.Company, admin *models.User) error {
	now := r.now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.SubscriptionPlan == "" {
		c.SubscriptionPlan = "free"
	}
	c.Email = strings.ToLower(c.Email)
	c.CreatedAt, c.UpdatedAt = now, now

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := r.db.Builder().Insert(tableCompanies).
			Columns(companyColumns...).
			Values(c.ID, c.Name, c.Email, c.PasswordHash, c.SubscriptionPlan, c.CreatedAt, c.UpdatedAt)
		if _, err := exec(ctx, tx, insert); err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		if admin == nil {
			return nil
		}
		admin.CompanyID = c.ID
		if err := insertUser(ctx, tx, r.db.Builder(), admin, now); err != nil {
			return fmt.Errorf("insert admin: %w", err)
		}
		return nil
	})
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	t := r.db.Builder().Table(tableCompanies)
	q := r.db.Builder().Select(t.Columns(companyColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("id"), id))

	var c models.Company
	if err := getOne(ctx, r.db, &c, q); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) GetByEmail(ctx context.Context, email string) (*models.Company, error) {
	t := r.db.Builder().Table(tableCompanies)
	q := r.db.Builder().Select(t.Columns(companyColumns...)...).
		From(t).
		Where(entsql.EqualFold(t.C("email"), strings.TrimSpace(email)))

	var c models.Company
	if err := getOne(ctx, r.db, &c, q); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCascade removes the company with all of its comments, tasks and users.
// Either everything goes or nothing does.
func (r *CompanyRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	b := r.db.Builder()
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, b.Delete(tableComments).Where(entsql.EQ("company_id", id))); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		// Detach subtasks first so the self reference never blocks the bulk delete.
		if _, err := exec(ctx, tx, b.Update(tableTasks).SetNull("parent_task_id").Where(entsql.EQ("company_id", id))); err != nil {
			return fmt.Errorf("detach subtasks: %w", err)
		}
		if _, err := exec(ctx, tx, b.Delete(tableTasks).Where(entsql.EQ("company_id", id))); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		if _, err := exec(ctx, tx, b.Delete(tableUsers).Where(entsql.EQ("company_id", id))); err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		if err := execOne(ctx, tx, b.Delete(tableCompanies).Where(entsql.EQ("id", id))); err != nil {
			return fmt.Errorf("delete company: %w", err)
		}
		return nil
	})
}
