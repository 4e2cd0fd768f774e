// Package config loads service configuration from environment variables,
// with optional .env support for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Host    string
	Port    string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string
}

// SessionConfig holds session and cookie settings.
// TTL is tracked in milliseconds; cookie Max-Age is derived by flooring to seconds.
type SessionConfig struct {
	CookieName string
	TTLMillis  int64
	Secure     bool
	// CleanupSchedule is a cron expression for expired-session garbage collection.
	CleanupSchedule string
}

// StorageConfig holds paths for the JSON document files and uploads.
type StorageConfig struct {
	DataDir   string
	UploadDir string
}

// CryptoConfig holds PBKDF2 parameters for password hashing.
type CryptoConfig struct {
	Iterations int
	KeyLength  int
}

// UploadConfig holds image upload limits.
type UploadConfig struct {
	MaxImageBytes int64
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

// Config is the root configuration for the recipe service.
type Config struct {
	Service  ServiceConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Storage  StorageConfig
	Crypto   CryptoConfig
	Upload   UploadConfig
	Tracing  TracingConfig
	Shutdown struct {
		TimeoutMillis    int64
		DrainDelayMillis int64
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present (never overriding real env vars).
func Load() Config {
	_ = godotenv.Load()

	var c Config
	c.Service = ServiceConfig{
		Name:    getEnv("SERVICE_NAME", "recipe-service"),
		Version: getEnv("SERVICE_VERSION", "dev"),
		Env:     getEnv("SERVICE_ENV", "development"),
		Host:    getEnv("HOST", "0.0.0.0"),
		Port:    getEnv("PORT", "3000"),
	}
	c.Logging.Level = getEnv("LOG_LEVEL", "info")
	c.Session = SessionConfig{
		CookieName:      getEnv("SESSION_COOKIE_NAME", "sessionId"),
		TTLMillis:       getEnvInt64("SESSION_TTL_MS", 30*60*1000),
		Secure:          getEnvBool("COOKIE_SECURE", false),
		CleanupSchedule: getEnv("SESSION_CLEANUP_SCHEDULE", "@hourly"),
	}
	c.Storage = StorageConfig{
		DataDir:   getEnv("DATA_DIR", "data"),
		UploadDir: getEnv("UPLOAD_DIR", "images"),
	}
	c.Crypto = CryptoConfig{
		Iterations: int(getEnvInt64("HASH_ITERATIONS", 100000)),
		KeyLength:  int(getEnvInt64("HASH_KEY_LENGTH", 64)),
	}
	c.Upload.MaxImageBytes = getEnvInt64("MAX_IMAGE_BYTES", 5*1024*1024)
	c.Tracing = TracingConfig{
		Enabled:    getEnvBool("TRACING_ENABLED", false),
		Endpoint:   getEnv("TRACING_ENDPOINT", "localhost:4318"),
		SampleRate: getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
	}
	c.Shutdown.TimeoutMillis = getEnvInt64("SHUTDOWN_TIMEOUT_MS", 10000)
	c.Shutdown.DrainDelayMillis = getEnvInt64("READINESS_DRAIN_DELAY_MS", 0)
	return c
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Service.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Service.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	if c.Session.TTLMillis <= 0 {
		return errors.New("SESSION_TTL_MS must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME is required")
	}
	if c.Crypto.Iterations < 1000 {
		return errors.New("HASH_ITERATIONS must be at least 1000")
	}
	if c.Crypto.KeyLength < 32 {
		return errors.New("HASH_KEY_LENGTH must be at least 32")
	}
	if c.Upload.MaxImageBytes <= 0 {
		return errors.New("MAX_IMAGE_BYTES must be positive")
	}
	return nil
}

// UsersFile returns the path of the users JSON document.
func (c Config) UsersFile() string { return filepath.Join(c.Storage.DataDir, "users.json") }

// RecipesFile returns the path of the recipes JSON document.
func (c Config) RecipesFile() string { return filepath.Join(c.Storage.DataDir, "recipes.json") }

// SessionsFile returns the path of the sessions JSON document.
func (c Config) SessionsFile() string { return filepath.Join(c.Storage.DataDir, "sessions.json") }

// SessionTTL returns the session lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMillis) * time.Millisecond
}

// GetShutdownTimeoutDuration returns the graceful shutdown timeout.
func (c Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Shutdown.TimeoutMillis) * time.Millisecond
}

// GetReadinessDrainDelayDuration returns the delay between failing readiness
// and starting HTTP shutdown.
func (c Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.Shutdown.DrainDelayMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
