package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"taskflow-api/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. Init configures it once at startup.
var Logger = logrus.New()

// Init applies level, format and output settings to Logger.
// When cfg.File is set, output goes to a size-rotated file.
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	Logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	Logger.SetOutput(out)

	Logger.WithFields(logrus.Fields{
		"level":  level.String(),
		"format": cfg.Format,
		"file":   cfg.File,
	}).Debug("logger initialized")
	return nil
}

// Middleware logs one line per request after the handler chain finishes.
func Middleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields["user_id"] = userID
		}
		entry := log.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
