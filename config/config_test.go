package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.ServerPort)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Errorf("session ttl = %s", cfg.Session.TTL)
	}
	if cfg.Session.SweepInterval != 10*time.Minute {
		t.Errorf("sweep interval = %s", cfg.Session.SweepInterval)
	}
	if cfg.MQ.Backend != BackendNone || cfg.Storage.Backend != BackendNone {
		t.Errorf("backends should default to none: %q %q", cfg.MQ.Backend, cfg.Storage.Backend)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server_port: 9090
database:
  host: db.internal
  name: ${TEST_BLOG_DB_NAME}
session:
  ttl: 2h
  cookie_name: sid
storage:
  backend: minio
  minio:
    bucket: media
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_BLOG_DB_NAME", "from_file_env")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 7070 {
		t.Errorf("env should override file: port = %d", cfg.ServerPort)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("host = %q", cfg.Database.Host)
	}
	if cfg.Database.DBName != "from_file_env" {
		t.Errorf("db name = %q", cfg.Database.DBName)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("ttl = %s", cfg.Session.TTL)
	}
	if cfg.Session.CookieName != "sid" {
		t.Errorf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.Session.SweepInterval != 10*time.Minute {
		t.Errorf("sweep interval should keep default, got %s", cfg.Session.SweepInterval)
	}
	if cfg.Storage.Backend != BackendMinio || cfg.Storage.Minio.Bucket != "media" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.MQ.Backend = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected mq backend error")
	}

	cfg = Default()
	cfg.Storage.Backend = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected storage backend error")
	}
}

func TestValidateSessionTTL(t *testing.T) {
	cfg := Default()
	cfg.Session.TTL = time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected ttl below one minute to fail")
	}
}

func TestInvalidEnvKeepsDefault(t *testing.T) {
	t.Setenv("SESSION_SWEEP_INTERVAL", "soon")
	t.Setenv("DB_PORT", "not-a-port")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.SweepInterval != 10*time.Minute {
		t.Errorf("sweep interval = %s", cfg.Session.SweepInterval)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port = %d", cfg.Database.Port)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for raw, want := range cases {
		cfg := Config{LogLevel: raw}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
