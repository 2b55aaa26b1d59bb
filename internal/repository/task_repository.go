package repository

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/models"
)

var taskColumns = []string{
	"id", "title", "description", "status", "priority",
	"assigner_id", "assignee_id", "parent_task_id", "company_id",
	"created_at", "updated_at",
}

type TaskRepository struct {
	db  *database.DB
	now Clock
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db, now: utcNow}
}

// WithClock returns a copy of r that stamps rows using now.
func (r *TaskRepository) WithClock(now Clock) *TaskRepository {
	return &TaskRepository{db: r.db, now: now}
}

// Types for repository input
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.Priority
	AssigneeID  *uuid.UUID
}

// IsEmpty reports whether the update would change nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil && u.AssigneeID == nil
}

type TaskFilter struct {
	CompanyID uuid.UUID
	Status    *models.TaskStatus
	Priority  *models.Priority
	// AssigneeID and AssignerID narrow to one side of the assignment.
	AssigneeID *uuid.UUID
	AssignerID *uuid.UUID
	// ParticipantID keeps tasks the user assigned or is assigned.
	ParticipantID *uuid.UUID
	ParentID      *uuid.UUID
	TopLevelOnly  bool
	Search        string
	SortBy        string // "created_at" (default) or "updated_at"
	SortOrder     string // "desc" (default) or "asc"
	Limit         int
	Offset        int
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	now := r.now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	t.CreatedAt, t.UpdatedAt = now, now

	insert := r.db.Builder().Insert(tableTasks).
		Columns(taskColumns...).
		Values(t.ID, t.Title, t.Description, t.Status, t.Priority,
			t.AssignerID, t.AssigneeID, t.ParentTaskID, t.CompanyID,
			t.CreatedAt, t.UpdatedAt)
	if _, err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Task, error) {
	b := r.db.Builder()
	t := b.Table(tableTasks)
	q := b.Select(t.Columns(taskColumns...)...).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("id"), id),
			entsql.EQ(t.C("company_id"), companyID),
		))

	var task models.Task
	if err := getOne(ctx, r.db, &task, q); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetSummary returns the task with its participants' names.
func (r *TaskRepository) GetSummary(ctx context.Context, companyID, id uuid.UUID) (*models.TaskSummary, error) {
	q, t := r.selectSummaries()
	q.Where(entsql.And(
		entsql.EQ(t.C("id"), id),
		entsql.EQ(t.C("company_id"), companyID),
	))

	var s models.TaskSummary
	if err := getOne(ctx, r.db, &s, q); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByTitle matches title case-insensitively within the company.
// When titles collide the oldest task wins.
func (r *TaskRepository) FindByTitle(ctx context.Context, companyID uuid.UUID, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrNotFound
	}
	b := r.db.Builder()
	t := b.Table(tableTasks)
	q := b.Select(t.Columns(taskColumns...)...).
		From(t).
		Where(entsql.And(
			entsql.EqualFold(t.C("title"), title),
			entsql.EQ(t.C("company_id"), companyID),
		)).
		OrderBy(entsql.Asc(t.C("created_at")), entsql.Asc(t.C("id"))).
		Limit(1)

	var task models.Task
	if err := getOne(ctx, r.db, &task, q); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies the non-nil fields of u and returns the stored task.
func (r *TaskRepository) Update(ctx context.Context, companyID, id uuid.UUID, u TaskUpdate) (*models.Task, error) {
	if u.IsEmpty() {
		return r.Get(ctx, companyID, id)
	}

	update := r.db.Builder().Update(tableTasks).Set("updated_at", r.now())
	if u.Title != nil {
		update.Set("title", *u.Title)
	}
	if u.Description != nil {
		update.Set("description", *u.Description)
	}
	if u.Status != nil {
		update.Set("status", *u.Status)
	}
	if u.Priority != nil {
		update.Set("priority", *u.Priority)
	}
	if u.AssigneeID != nil {
		update.Set("assignee_id", *u.AssigneeID)
	}
	update.Where(entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("company_id", companyID),
	))

	if err := execOne(ctx, r.db, update); err != nil {
		return nil, err
	}
	return r.Get(ctx, companyID, id)
}

func (r *TaskRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return execOne(ctx, r.db, r.db.Builder().Delete(tableTasks).Where(entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("company_id", companyID),
	)))
}

// CountIncompleteSubtasks counts children of id that are not COMPLETED.
func (r *TaskRepository) CountIncompleteSubtasks(ctx context.Context, id uuid.UUID) (int, error) {
	b := r.db.Builder()
	t := b.Table(tableTasks)
	q := b.Select(entsql.Count("*")).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("parent_task_id"), id),
			entsql.NEQ(t.C("status"), models.TaskStatusCompleted),
		))

	var n int
	if err := getOne(ctx, r.db, &n, q); err != nil {
		return 0, fmt.Errorf("count subtasks: %w", err)
	}
	return n, nil
}

func (r *TaskRepository) selectSummaries() (*entsql.Selector, *entsql.SelectTable) {
	b := r.db.Builder()
	t := b.Table(tableTasks)
	assignee := b.Table(tableUsers).As("assignee")
	assigner := b.Table(tableUsers).As("assigner")

	columns := append(t.Columns(taskColumns...),
		entsql.As(assignee.C("name"), "assignee_name"),
		entsql.As(assigner.C("name"), "assigner_name"),
	)
	q := b.Select(columns...).
		From(t).
		Join(assignee).On(t.C("assignee_id"), assignee.C("id")).
		Join(assigner).On(t.C("assigner_id"), assigner.C("id"))
	return q, t
}

// List returns the tasks matching f with participant names attached.
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]models.TaskSummary, error) {
	q, t := r.selectSummaries()

	// Apply filters
	predicates := []*entsql.Predicate{entsql.EQ(t.C("company_id"), f.CompanyID)}

	if f.Status != nil {
		predicates = append(predicates, entsql.EQ(t.C("status"), *f.Status))
	}
	if f.Priority != nil {
		predicates = append(predicates, entsql.EQ(t.C("priority"), *f.Priority))
	}
	if f.AssigneeID != nil {
		predicates = append(predicates, entsql.EQ(t.C("assignee_id"), *f.AssigneeID))
	}
	if f.AssignerID != nil {
		predicates = append(predicates, entsql.EQ(t.C("assigner_id"), *f.AssignerID))
	}
	if f.ParticipantID != nil {
		predicates = append(predicates, entsql.Or(
			entsql.EQ(t.C("assignee_id"), *f.ParticipantID),
			entsql.EQ(t.C("assigner_id"), *f.ParticipantID),
		))
	}
	if f.ParentID != nil {
		predicates = append(predicates, entsql.EQ(t.C("parent_task_id"), *f.ParentID))
	}
	if f.TopLevelOnly {
		predicates = append(predicates, entsql.IsNull(t.C("parent_task_id")))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		// Search in title and description
		predicates = append(predicates, entsql.Or(
			entsql.ContainsFold(t.C("title"), search),
			entsql.ContainsFold(t.C("description"), search),
		))
	}
	q.Where(entsql.And(predicates...))

	// Apply sorting
	column := "created_at"
	if f.SortBy == "updated_at" {
		column = "updated_at"
	}
	// id breaks timestamp ties so "most recent" is stable
	if f.SortOrder == "asc" {
		q.OrderBy(entsql.Asc(t.C(column)), entsql.Asc(t.C("id")))
	} else {
		q.OrderBy(entsql.Desc(t.C(column)), entsql.Desc(t.C("id")))
	}

	// Apply pagination
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}

	tasks := []models.TaskSummary{}
	if err := selectAll(ctx, r.db, &tasks, q); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return tasks, nil
}
