package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/models"
)

var commentColumns = []string{
	"id", "content", "task_id", "author_id", "company_id", "created_at", "updated_at",
}

type CommentRepository struct {
	db  *database.DB
	now Clock
}

func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{db: db, now: utcNow}
}

func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	now := r.now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	insert := r.db.Builder().Insert(tableComments).
		Columns(commentColumns...).
		Values(c.ID, c.Content, c.TaskID, c.AuthorID, c.CompanyID, c.CreatedAt, c.UpdatedAt)
	if _, err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) selectComments() (*entsql.Selector, *entsql.SelectTable) {
	b := r.db.Builder()
	t := b.Table(tableComments)
	author := b.Table(tableUsers).As("author")
	columns := append(t.Columns(commentColumns...), entsql.As(author.C("name"), "author_name"))
	q := b.Select(columns...).
		From(t).
		Join(author).On(t.C("author_id"), author.C("id"))
	return q, t
}

func (r *CommentRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Comment, error) {
	q, t := r.selectComments()
	q.Where(entsql.And(
		entsql.EQ(t.C("id"), id),
		entsql.EQ(t.C("company_id"), companyID),
	))

	var c models.Comment
	if err := getOne(ctx, r.db, &c, q); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByTask returns the task's comments oldest first.
func (r *CommentRepository) ListByTask(ctx context.Context, companyID, taskID uuid.UUID) ([]models.Comment, error) {
	q, t := r.selectComments()
	q.Where(entsql.And(
		entsql.EQ(t.C("task_id"), taskID),
		entsql.EQ(t.C("company_id"), companyID),
	)).
		OrderBy(entsql.Asc(t.C("created_at")))

	comments := []models.Comment{}
	if err := selectAll(ctx, r.db, &comments, q); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) Update(ctx context.Context, companyID, id uuid.UUID, content string) (*models.Comment, error) {
	update := r.db.Builder().Update(tableComments).
		Set("content", content).
		Set("updated_at", r.now()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("company_id", companyID),
		))
	if err := execOne(ctx, r.db, update); err != nil {
		return nil, err
	}
	return r.Get(ctx, companyID, id)
}

func (r *CommentRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return execOne(ctx, r.db, r.db.Builder().Delete(tableComments).Where(entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("company_id", companyID),
	)))
}
