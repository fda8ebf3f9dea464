package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the memory service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	DatabaseURL string
	SQLitePath  string
	TableName   string

	MaxMessages      int
	ConfusionPhrases []string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "lembra"),
		DatabaseURL:      envTrimSpace("DATABASE_URL"),
		SQLitePath:       envTrimSpace("MEMORY_SQLITE_PATH"),
		TableName:        envOrDefault("MEMORY_TABLE_NAME", "message_store"),
		MaxMessages:      20,
		ShutdownTimeout:  15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxMessages, err = intFromEnv("MEMORY_MAX_MESSAGES", cfg.MaxMessages)
	if err != nil {
		return Config{}, err
	}

	// Empty means the built-in phrase list; set to localize without a
	// code change.
	if raw := envTrimSpace("MEMORY_CONFUSION_PHRASES"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.ConfusionPhrases = append(cfg.ConfusionPhrases, p)
			}
		}
	}

	if cfg.MaxMessages <= 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_MESSAGES must be positive")
	}
	if strings.TrimSpace(cfg.TableName) == "" {
		return Config{}, fmt.Errorf("MEMORY_TABLE_NAME must not be empty")
	}
	if cfg.ShutdownTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
