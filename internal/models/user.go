package models

import (
	"time"
)

// User represents a registered account. Users are immutable after
// registration; tasks reference them as creator and assignee.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}
