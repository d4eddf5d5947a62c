package testutil

import (
	"testing"

	"taskflow-api/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB with foreign keys enforced
// and runs migrations. The pool is pinned to one connection because each
// new connection to ":memory:" would see an empty database.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return nil, err
	}
	return db, nil
}

// MustDB is NewInMemoryDB for tests.
func MustDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewInMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()
	u := models.User{ID: uuid.NewString(), Name: name, Email: email, Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}
