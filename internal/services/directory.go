package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskflow-api/internal/cache"
	"taskflow-api/internal/models"
	"taskflow-api/internal/repository"

	"golang.org/x/sync/singleflight"
)

// UserDirectory resolves emails to users for task creation and assignment.
// Users never change after registration, so hits are cached; misses are not,
// so a freshly registered email resolves immediately.
type UserDirectory struct {
	users *repository.UserRepository
	cache cache.Cache[string, models.User]
	ttl   time.Duration
	group singleflight.Group
}

// NewUserDirectory wraps users with c. A nil cache disables caching.
func NewUserDirectory(users *repository.UserRepository, c cache.Cache[string, models.User], ttl time.Duration) *UserDirectory {
	return &UserDirectory{users: users, cache: c, ttl: ttl}
}

// ResolveEmail returns the user registered under exactly email.
func (d *UserDirectory) ResolveEmail(ctx context.Context, email string) (*models.User, error) {
	if d.cache != nil {
		if u, ok := d.cache.Get(email); ok {
			return &u, nil
		}
	}

	v, err, _ := d.group.Do(email, func() (interface{}, error) {
		return d.users.FindByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	user := v.(*models.User)
	d.Remember(user)

	out := *user
	return &out, nil
}

// Remember caches user under its email.
func (d *UserDirectory) Remember(user *models.User) {
	if d.cache != nil && user != nil {
		d.cache.Set(user.Email, *user, d.ttl)
	}
}

// Search lists users whose name or email contains q.
func (d *UserDirectory) Search(ctx context.Context, q string) ([]models.User, error) {
	return d.users.Search(ctx, strings.TrimSpace(q))
}

// Lookup is ResolveEmail with a validated, trimmed input.
func (d *UserDirectory) Lookup(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, NewValidationError("email", "The email field is required.")
	}
	user, err := d.ResolveEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
