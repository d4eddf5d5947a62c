package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DemoPassword is the password of the seeded demo accounts.
const DemoPassword = "password"

// Hasher is the password hashing the seeder needs.
type Hasher interface {
	Hash(password string) (string, error)
}

// Seed inserts a creator (alice), an assignee (bob) and one task due a day
// after now. It does nothing when alice already exists.
func Seed(ctx context.Context, db *gorm.DB, hasher Hasher, now time.Time) error {
	db = db.WithContext(ctx)

	var existing models.User
	err := db.Where("email = ?", "alice@example.com").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check seed state: %w", err)
	}

	hash, err := hasher.Hash(DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	creator := models.User{ID: uuid.NewString(), Name: "Alice Creator", Email: "alice@example.com", Password: hash}
	assignee := models.User{ID: uuid.NewString(), Name: "Bob Assignee", Email: "bob@example.com", Password: hash}
	description := "This is a seeded task for testing."
	task := models.Task{
		ID:          uuid.NewString(),
		CreatorID:   creator.ID,
		AssigneeID:  assignee.ID,
		Title:       "Seeded Task",
		Description: &description,
		DueDate:     now.Add(24 * time.Hour).UTC(),
		Priority:    models.PriorityMedium,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&creator).Error; err != nil {
			return err
		}
		if err := tx.Create(&assignee).Error; err != nil {
			return err
		}
		return tx.Create(&task).Error
	})
}
