package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow-api/internal/auth"
	"taskflow-api/internal/models"
	"taskflow-api/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
	maxNameLength     = 255
)

const credentialsMessage = "The provided credentials are incorrect."

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned on register and login.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// AuthService handles registration, login and token revocation.
type AuthService struct {
	users       *repository.UserRepository
	directory   *UserDirectory
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	log         logrus.FieldLogger
}

// NewAuthService wires an AuthService. directory may be nil.
func NewAuthService(users *repository.UserRepository, directory *UserDirectory, hasher *auth.PasswordHasher, tokens *auth.TokenManager, revocations auth.RevocationStore, log logrus.FieldLogger) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{
		users:       users,
		directory:   directory,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		log:         log,
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates an account and returns a session for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	verr := &ValidationError{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		verr.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", fmt.Sprintf("The name field must not be greater than %d characters.", maxNameLength))
	}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		verr.Add("email", "The email field is required.")
	case len(email) > maxNameLength || !validEmail(email):
		verr.Add("email", "The email field must be a valid email address.")
	}

	switch {
	case in.Password == "":
		verr.Add("password", "The password field is required.")
	case len(in.Password) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("The password field must be at least %d characters.", minPasswordLength))
	case len(in.Password) > maxPasswordLength:
		verr.Add("password", fmt.Sprintf("The password field must not be greater than %d characters.", maxPasswordLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fieldError("email", "The email has already been taken.", ErrEmailTaken)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{ID: uuid.NewString(), Name: name, Email: email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, fieldError("email", "The email has already been taken.", ErrEmailTaken)
		}
		return nil, err
	}
	if s.directory != nil {
		s.directory.Remember(user)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return s.issue(user)
}

// Login checks credentials and returns a fresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	verr := &ValidationError{}
	if email == "" {
		verr.Add("email", "The email field is required.")
	}
	if password == "" {
		verr.Add("password", "The password field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, fieldError("email", credentialsMessage, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, user.Password) {
		s.log.WithField("user_id", user.ID).Warn("login rejected")
		return nil, fieldError("email", credentialsMessage, ErrInvalidCredentials)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token described by claims until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return auth.ErrInvalidToken
	}
	until := time.Now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revocations.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

// CurrentUser loads the user behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}
