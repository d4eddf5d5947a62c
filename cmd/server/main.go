package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"taskflow-api/internal/app"
	"taskflow-api/internal/auth"
	"taskflow-api/internal/config"
	"taskflow-api/internal/database"
	"taskflow-api/internal/logging"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

func main() {
	log := logging.Logger

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := logging.Init(cfg.Log); err != nil {
		log.WithError(err).Fatal("Failed to initialize logger")
	}
	gin.SetMode(cfg.GinMode)

	// Init database
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	log.WithField("driver", cfg.Database.Driver).Info("Database connected and migrated")

	hasher := auth.NewPasswordHasher(0)
	if cfg.SeedDemo {
		if err := database.Seed(context.Background(), db, hasher, time.Now()); err != nil {
			log.WithError(err).Fatal("Failed to seed demo data")
		}
	}

	application, err := app.Build(cfg, db, log, app.Options{Hasher: hasher})
	if err != nil {
		log.WithError(err).Fatal("Failed to build application")
	}

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: application.Router,
	}
	go func() {
		log.WithField("addr", cfg.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Order matters: stop accepting requests before closing what they use.
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"taskflow-api": func(ctx context.Context) error {
				log.Info("Graceful shutdown initiated")
				shutdownErr := server.Shutdown(ctx)
				closeErr := application.Close()
				dbErr := database.Close(db)
				return errors.Join(shutdownErr, closeErr, dbErr)
			},
		},
	)

	exitCode := <-wait
	log.WithField("code", exitCode).Info("Server exited")
	os.Exit(exitCode)
}
