package models

import (
	"time"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority converts raw input into a TaskPriority.
func ParsePriority(s string) (TaskPriority, bool) {
	p := TaskPriority(s)
	return p, p.Valid()
}

// MaxTitleLength is the maximum number of characters in a task title.
const MaxTitleLength = 255

// Task represents a task in the system.
//
// DerivedStatus is never persisted; call WithStatus before serializing.
type Task struct {
	ID            string        `json:"id" gorm:"primaryKey;type:text"`
	CreatorID     string        `json:"creator_id" gorm:"column:creator_id;type:text;not null"`
	AssigneeID    string        `json:"assignee_id" gorm:"column:assignee_id;type:text;not null;index:tasks_assignee_id_idx"`
	Title         string        `json:"title" gorm:"size:255;not null"`
	Description   *string       `json:"description" gorm:"type:text"`
	DueDate       time.Time     `json:"due_date" gorm:"column:due_date;not null;index:tasks_due_date_idx"`
	Priority      TaskPriority  `json:"priority" gorm:"size:16;not null;default:'medium'"`
	IsCompleted   bool          `json:"is_completed" gorm:"column:is_completed;not null;default:false"`
	DerivedStatus DerivedStatus `json:"derived_status" gorm:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Creator  *User `json:"creator,omitempty" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Assignee *User `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// WithStatus fills DerivedStatus for the given evaluation time and returns t.
func (t *Task) WithStatus(now time.Time) *Task {
	t.DerivedStatus = DeriveStatus(t.IsCompleted, t.DueDate, now)
	return t
}
