package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dkarpov/fleetwire/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database database.PostgresConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Stream   StreamConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// RedisConfig wraps the connection settings with an enable switch; with
// Redis disabled the connection tracker falls back to its in-memory
// implementation.
type RedisConfig struct {
	Enabled bool
	Conn    database.RedisConfig
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// StreamConfig tunes the streaming session timers.
type StreamConfig struct {
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	PollTimeout       time.Duration
	LookBack          time.Duration
	BatchSize         int
	MaxMessages       int
	Budget            time.Duration
	EarlyWarningLead  time.Duration
	CloseLead         time.Duration
	FailureThreshold  int
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "fleetwire"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled: getEnv("REDIS_ENABLED", "false") == "true",
			Conn: database.RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       0,
			},
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-dev-secret"),
			Expiry: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		},
		Stream: StreamConfig{
			HeartbeatInterval: parseDuration(getEnv("STREAM_HEARTBEAT_INTERVAL", "25s"), 25*time.Second),
			PollInterval:      parseDuration(getEnv("STREAM_POLL_INTERVAL", "10s"), 10*time.Second),
			PollTimeout:       parseDuration(getEnv("STREAM_POLL_TIMEOUT", "2s"), 2*time.Second),
			LookBack:          parseDuration(getEnv("STREAM_LOOKBACK", "90s"), 90*time.Second),
			BatchSize:         parseInt(getEnv("STREAM_BATCH_SIZE", "5"), 5),
			MaxMessages:       parseInt(getEnv("STREAM_MAX_MESSAGES", "200"), 200),
			Budget:            parseDuration(getEnv("STREAM_BUDGET", "280s"), 280*time.Second),
			EarlyWarningLead:  parseDuration(getEnv("STREAM_EARLY_WARNING_LEAD", "15s"), 15*time.Second),
			CloseLead:         parseDuration(getEnv("STREAM_CLOSE_LEAD", "5s"), 5*time.Second),
			FailureThreshold:  parseInt(getEnv("STREAM_FAILURE_THRESHOLD", "3"), 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}
