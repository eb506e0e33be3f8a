package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":5001"
postgres:
  dsn: "postgres://localhost/chat"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Logging.Service != "chat-service" {
		t.Fatalf("logging.service default = %q", cfg.Logging.Service)
	}
	if cfg.Chat.HistoryLimit != 50 {
		t.Fatalf("chat.historyLimit default = %d", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.MaxMessageLen != 4000 {
		t.Fatalf("chat.maxMessageLen default = %d", cfg.Chat.MaxMessageLen)
	}
	if got := cfg.Chat.MessageTTLOr(time.Hour); got != time.Hour {
		t.Fatalf("messageTTL default = %v", got)
	}
	if got := cfg.Relay.TimeoutOr(5 * time.Second); got != 5*time.Second {
		t.Fatalf("relay.timeout default = %v", got)
	}
}

func TestLoadConfigDurations(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":5001"
postgres:
  dsn: "postgres://localhost/chat"
chat:
  messageTTL: "30m"
  typingIdle: "2s"
  storeTimeout: "garbage"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got := cfg.Chat.MessageTTLOr(time.Hour); got != 30*time.Minute {
		t.Fatalf("messageTTL = %v, want 30m", got)
	}
	if got := cfg.Chat.TypingIdleOr(time.Second); got != 2*time.Second {
		t.Fatalf("typingIdle = %v, want 2s", got)
	}
	// Мусор в duration-поле откатывается к дефолту.
	if got := cfg.Chat.StoreTimeoutOr(3 * time.Second); got != 3*time.Second {
		t.Fatalf("storeTimeout = %v, want default 3s", got)
	}
}

func TestLoadConfigRequiredFields(t *testing.T) {
	writeConfig(t, `
postgres:
  dsn: "postgres://localhost/chat"
`)
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing http.addr")
	}

	writeConfig(t, `
http:
  addr: ":5001"
`)
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing postgres.dsn")
	}
}
