package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.TableName != "message_store" {
		t.Fatalf("TableName = %q, want %q", cfg.TableName, "message_store")
	}
	if cfg.MaxMessages != 20 {
		t.Fatalf("MaxMessages = %d, want 20", cfg.MaxMessages)
	}
	if cfg.MetricsNamespace != "lembra" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "lembra")
	}
	if len(cfg.ConfusionPhrases) != 0 {
		t.Fatalf("ConfusionPhrases = %v, want empty (library default applies)", cfg.ConfusionPhrases)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_MAX_MESSAGES", "5")
	t.Setenv("MEMORY_TABLE_NAME", "chat_history")
	t.Setenv("MEMORY_CONFUSION_PHRASES", "no entendí, puede repetir")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxMessages != 5 {
		t.Fatalf("MaxMessages = %d, want 5", cfg.MaxMessages)
	}
	if cfg.TableName != "chat_history" {
		t.Fatalf("TableName = %q, want %q", cfg.TableName, "chat_history")
	}
	if len(cfg.ConfusionPhrases) != 2 || cfg.ConfusionPhrases[0] != "no entendí" || cfg.ConfusionPhrases[1] != "puede repetir" {
		t.Fatalf("ConfusionPhrases = %v", cfg.ConfusionPhrases)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoadRejectsInvalidMaxMessages(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_MAX_MESSAGES", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject MEMORY_MAX_MESSAGES=0")
	}

	t.Setenv("MEMORY_MAX_MESSAGES", "lots")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject non-numeric MEMORY_MAX_MESSAGES")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"DATABASE_URL",
		"MEMORY_SQLITE_PATH",
		"MEMORY_TABLE_NAME",
		"MEMORY_MAX_MESSAGES",
		"MEMORY_CONFUSION_PHRASES",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
