// Package config loads runtime settings for the API server.
//
// Values are layered in this order, later layers winning:
// built-in defaults, an optional YAML file (--config or APP_CONFIG),
// a .env file, the process environment, and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const devSecret = "development-insecure-secret-change-me"

// Config is the complete server configuration.
type Config struct {
	Addr            string        `yaml:"addr"`
	GinMode         string        `yaml:"gin_mode"`
	Timezone        string        `yaml:"timezone"`
	TaskPolicy      string        `yaml:"task_policy"`
	SeedDemo        bool          `yaml:"seed_demo"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the GORM dialect and its DSN.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

// JWTConfig controls bearer token issuance.
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	TTL      time.Duration `yaml:"ttl"`
}

// RedisConfig enables the shared token revocation store when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Addr:            ":8008",
		GinMode:         "debug",
		Timezone:        "UTC",
		TaskPolicy:      "assignee",
		ShutdownTimeout: 30 * time.Second,
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "tasks-management.db?_pragma=foreign_keys(1)",
			LogLevel: "warn",
		},
		JWT: JWTConfig{
			Secret:   devSecret,
			Issuer:   "taskflow-api",
			Audience: "taskflow-clients",
			TTL:      24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from args (normally os.Args[1:]).
// It returns pflag.ErrHelp when --help was requested.
func Load(args []string) (*Config, error) {
	cfg := Default()

	flags := pflag.NewFlagSet("taskflow-api", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("APP_CONFIG"), "path to a YAML config file")
	envFile := flags.String("env-file", ".env", "path to a dotenv file (ignored when missing)")
	addr := flags.String("addr", "", "listen address, e.g. :8008")
	dsn := flags.String("db-dsn", "", "database DSN")
	seed := flags.Bool("seed", false, "seed demo users and a sample task")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", *envFile, err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if flags.Changed("addr") {
		cfg.Addr = *addr
	}
	if flags.Changed("db-dsn") {
		cfg.Database.DSN = *dsn
	}
	if flags.Changed("seed") {
		cfg.SeedDemo = *seed
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Addr)
	str("GIN_MODE", &c.GinMode)
	str("APP_TIMEZONE", &c.Timezone)
	str("TASK_POLICY", &c.TaskPolicy)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_DSN", &c.Database.DSN)
	str("DB_LOG_LEVEL", &c.Database.LogLevel)
	str("JWT_SECRET", &c.JWT.Secret)
	str("JWT_ISSUER", &c.JWT.Issuer)
	str("JWT_AUDIENCE", &c.JWT.Audience)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)

	durations := map[string]*time.Duration{
		"JWT_TTL":          &c.JWT.TTL,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("SEED_DEMO"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEED_DEMO: %w", err)
		}
		c.SeedDemo = b
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	return nil
}

// Validate checks enum-like settings and rejects unsafe release setups.
func (c *Config) Validate() error {
	var problems []string

	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
	}
	switch c.TaskPolicy {
	case "assignee", "shared":
	default:
		problems = append(problems, fmt.Sprintf("task_policy must be assignee or shared, got %q", c.TaskPolicy))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("database driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log format must be text or json, got %q", c.Log.Format))
	}
	if c.JWT.TTL <= 0 {
		problems = append(problems, "jwt ttl must be positive")
	}
	if c.GinMode == "release" && c.JWT.Secret == devSecret {
		problems = append(problems, "JWT_SECRET must be set in release mode")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the timezone used to evaluate calendar days.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
