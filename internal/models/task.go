package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task status constants
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Priority is the urgency of a task.
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// TaskStatuses lists every valid status in display order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted}
}

// Priorities lists every valid priority from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// ParseTaskStatus matches s case-insensitively, ignoring surrounding space.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	candidate := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range TaskStatuses() {
		if st == candidate {
			return st, true
		}
	}
	return "", false
}

// ParsePriority matches s case-insensitively, ignoring surrounding space.
func ParsePriority(s string) (Priority, bool) {
	candidate := Priority(strings.ToUpper(strings.TrimSpace(s)))
	for _, p := range Priorities() {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

type Task struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	Title        string        `db:"title" json:"title"`
	Description  string        `db:"description" json:"description"`
	Status       TaskStatus    `db:"status" json:"status"`
	Priority     Priority      `db:"priority" json:"priority"`
	AssignerID   uuid.UUID     `db:"assigner_id" json:"assignerId"`
	AssigneeID   uuid.UUID     `db:"assignee_id" json:"assigneeId"`
	ParentTaskID uuid.NullUUID `db:"parent_task_id" json:"parentTaskId"`
	CompanyID    uuid.UUID     `db:"company_id" json:"companyId"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

// IsParticipant reports whether userID assigned or is assigned the task.
func (t *Task) IsParticipant(userID uuid.UUID) bool {
	return t.AssignerID == userID || t.AssigneeID == userID
}

// IsSubtask reports whether the task hangs off a parent.
func (t *Task) IsSubtask() bool {
	return t.ParentTaskID.Valid
}

// TaskSummary is a task joined with its participants' display names.
type TaskSummary struct {
	Task
	AssigneeName string `db:"assignee_name" json:"assigneeName"`
	AssignerName string `db:"assigner_name" json:"assignerName"`
}
