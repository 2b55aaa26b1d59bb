package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/models"
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "role", "company_id", "created_at", "updated_at",
}

type UserRepository struct {
	db  *database.DB
	now Clock
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, now: utcNow}
}

func insertUser(ctx context.Context, ext sqlx.ExecerContext, b *entsql.DialectBuilder, u *models.User, now time.Time) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleEmployee
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = now, now

	insert := b.Insert(tableUsers).
		Columns(userColumns...).
		Values(u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CompanyID, u.CreatedAt, u.UpdatedAt)
	_, err := exec(ctx, ext, insert)
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if err := insertUser(ctx, r.db, r.db.Builder(), u, r.now()); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) selectUsers() (*entsql.Selector, *entsql.SelectTable) {
	t := r.db.Builder().Table(tableUsers)
	return r.db.Builder().Select(t.Columns(userColumns...)...).From(t), t
}

// GetByID looks a user up regardless of company. Only token authentication uses it.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q, t := r.selectUsers()
	q.Where(entsql.EQ(t.C("id"), id))

	var u models.User
	if err := getOne(ctx, r.db, &u, q); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetInCompany(ctx context.Context, companyID, id uuid.UUID) (*models.User, error) {
	q, t := r.selectUsers()
	q.Where(entsql.And(
		entsql.EQ(t.C("id"), id),
		entsql.EQ(t.C("company_id"), companyID),
	))

	var u models.User
	if err := getOne(ctx, r.db, &u, q); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns every account registered under email, oldest first.
// The same address may exist once per company.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) ([]models.User, error) {
	q, t := r.selectUsers()
	q.Where(entsql.EQ(t.C("email"), strings.ToLower(strings.TrimSpace(email)))).
		OrderBy(entsql.Asc(t.C("created_at")))

	var users []models.User
	if err := selectAll(ctx, r.db, &users, q); err != nil {
		return nil, fmt.Errorf("find users by email: %w", err)
	}
	return users, nil
}

func (r *UserRepository) FindByEmailInCompany(ctx context.Context, companyID uuid.UUID, email string) (*models.User, error) {
	q, t := r.selectUsers()
	q.Where(entsql.And(
		entsql.EQ(t.C("email"), strings.ToLower(strings.TrimSpace(email))),
		entsql.EQ(t.C("company_id"), companyID),
	))

	var u models.User
	if err := getOne(ctx, r.db, &u, q); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByName matches name case-insensitively within the company.
// The earliest registered user wins when names collide.
func (r *UserRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	q, t := r.selectUsers()
	q.Where(entsql.And(
		entsql.EqualFold(t.C("name"), name),
		entsql.EQ(t.C("company_id"), companyID),
	)).
		OrderBy(entsql.Asc(t.C("created_at")), entsql.Asc(t.C("id"))).
		Limit(1)

	var u models.User
	if err := getOne(ctx, r.db, &u, q); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByCompany returns all users of the company, newest first.
func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.User, error) {
	q, t := r.selectUsers()
	q.Where(entsql.EQ(t.C("company_id"), companyID)).
		OrderBy(entsql.Desc(t.C("created_at")))

	users := []models.User{}
	if err := selectAll(ctx, r.db, &users, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListEmployees returns the company's employees ordered by name.
func (r *UserRepository) ListEmployees(ctx context.Context, companyID uuid.UUID) ([]models.User, error) {
	q, t := r.selectUsers()
	q.Where(entsql.And(
		entsql.EQ(t.C("company_id"), companyID),
		entsql.EQ(t.C("role"), models.RoleEmployee),
	)).
		OrderBy(entsql.Asc(t.C("name")))

	users := []models.User{}
	if err := selectAll(ctx, r.db, &users, q); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return users, nil
}

// CountTasks counts tasks the user assigned or is assigned.
func (r *UserRepository) CountTasks(ctx context.Context, id uuid.UUID) (int, error) {
	b := r.db.Builder()
	t := b.Table(tableTasks)
	q := b.Select(entsql.Count("*")).
		From(t).
		Where(entsql.Or(
			entsql.EQ(t.C("assigner_id"), id),
			entsql.EQ(t.C("assignee_id"), id),
		))

	var n int
	if err := getOne(ctx, r.db, &n, q); err != nil {
		return 0, fmt.Errorf("count user tasks: %w", err)
	}
	return n, nil
}

// Delete removes the user and the comments they wrote.
func (r *UserRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	b := r.db.Builder()
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, b.Delete(tableComments).Where(entsql.EQ("author_id", id))); err != nil {
			return fmt.Errorf("delete user comments: %w", err)
		}
		return execOne(ctx, tx, b.Delete(tableUsers).Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("company_id", companyID),
		)))
	})
}
