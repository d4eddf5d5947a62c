// Package app wires configuration, storage and services into an HTTP router.
package app

import (
	"context"
	"fmt"
	"time"

	"taskflow-api/internal/auth"
	"taskflow-api/internal/cache"
	"taskflow-api/internal/config"
	"taskflow-api/internal/handlers"
	"taskflow-api/internal/middleware"
	"taskflow-api/internal/models"
	"taskflow-api/internal/policy"
	"taskflow-api/internal/realtime"
	"taskflow-api/internal/repository"
	"taskflow-api/internal/routes"
	"taskflow-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	userCacheTTL    = 10 * time.Minute
	janitorInterval = time.Minute
)

// Options overrides runtime collaborators, mostly for tests.
type Options struct {
	Now    func() time.Time
	Hasher *auth.PasswordHasher
}

// App is a fully wired server.
type App struct {
	Router *gin.Engine
	Hub    *realtime.Hub
	Tasks  *services.TaskService
	Auth   *services.AuthService
	Users  *services.UserDirectory
	Tokens *auth.TokenManager

	redis  *redis.Client
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

// Build wires every component on top of an open, migrated db.
func Build(cfg *config.Config, db *gorm.DB, log *logrus.Logger, opts Options) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	mode, err := policy.ParseMode(cfg.TaskPolicy)
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = auth.NewPasswordHasher(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{cancel: cancel, log: log}

	userCache := cache.NewSimpleCache[string, models.User](cache.Options{Now: now})
	go userCache.RunJanitor(ctx, janitorInterval)

	var revocations auth.RevocationStore
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		revocations = auth.NewRedisRevocationStore(a.redis, log)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis token revocation store")
	} else {
		revoked := cache.NewSimpleCache[string, struct{}](cache.Options{Now: now})
		go revoked.RunJanitor(ctx, janitorInterval)
		revocations = auth.NewMemoryRevocationStore(revoked)
	}

	userRepo := repository.NewUserRepository(db)
	a.Hub = realtime.NewHub()
	a.Users = services.NewUserDirectory(userRepo, userCache, userCacheTTL)
	a.Tokens = auth.NewTokenManager(auth.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	}, now)
	a.Tasks = services.NewTaskService(repository.NewTaskRepository(db), a.Users, policy.New(mode), services.TaskServiceOptions{
		Location:  loc,
		Now:       now,
		Publisher: a.Hub,
		Logger:    log,
	})
	a.Auth = services.NewAuthService(userRepo, a.Users, hasher, a.Tokens, revocations, log)

	a.Router = routes.SetupRoutes(routes.Dependencies{
		Tasks:        handlers.NewTaskHandler(a.Tasks, log),
		Auth:         handlers.NewAuthHandler(a.Auth, log),
		Users:        handlers.NewUserHandler(a.Users, log),
		WS:           handlers.NewWSHandler(a.Hub, log),
		Authenticate: middleware.JWTAuthMiddleware(a.Tokens, revocations, log),
		Logger:       log,
	})

	log.WithFields(logrus.Fields{
		"policy":   mode,
		"timezone": loc.String(),
	}).Info("application wired")
	return a, nil
}

// Close stops background work and disconnects websocket clients and redis.
func (a *App) Close() error {
	a.cancel()
	a.Hub.CloseAll()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}
	return nil
}
