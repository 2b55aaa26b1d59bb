package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authority within their company.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole matches s case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	}
	return "", false
}

// Company is the tenant boundary. Every user, task and comment belongs to one.
type Company struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	SubscriptionPlan string    `db:"subscription_plan" json:"subscriptionPlan"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CompanyID    uuid.UUID `db:"company_id" json:"companyId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Comment is a note left on a task by one of its participants.
type Comment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Content    string    `db:"content" json:"content"`
	TaskID     uuid.UUID `db:"task_id" json:"taskId"`
	AuthorID   uuid.UUID `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName,omitempty"`
	CompanyID  uuid.UUID `db:"company_id" json:"companyId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Requester is the authenticated identity a request acts on behalf of.
type Requester struct {
	UserID      uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CompanyID   uuid.UUID `json:"companyId"`
	CompanyName string    `json:"companyName"`
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}
