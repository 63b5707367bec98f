package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Database.Driver != "sqlite" || cfg.Database.ConnectionString != "file:taskmanager.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.JWT.TTL() != time.Hour || cfg.JWT.Issuer != "taskmanager-api" || cfg.JWT.Audience != "taskmanager-clients" {
		t.Fatalf("unexpected jwt defaults %+v", cfg.JWT)
	}
	if cfg.Auth.BcryptCost != bcrypt.DefaultCost {
		t.Fatalf("unexpected bcrypt cost %d", cfg.Auth.BcryptCost)
	}
	if cfg.Bootstrap.Enabled() {
		t.Fatalf("bootstrap must be disabled without a password")
	}
}

func TestLoadFileWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9000"
database:
  driver: postgres
  connection_string: postgres://localhost/tasks
jwt:
  key: from-file
  expires_minutes: 15
redis:
  idempotency_ttl: 1h
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TASKMANAGER_JWT_KEY", "from-env")
	t.Setenv("EVENTS_WORKERS", "8")
	t.Setenv("TASKMANAGER_ADMIN_PASSWORD", "root")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Database.Driver != "postgres" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.JWT.Key != "from-env" || cfg.JWT.ExpiresMinutes != 15 {
		t.Fatalf("unexpected jwt %+v", cfg.JWT)
	}
	if cfg.Redis.IdempotencyTTL != time.Hour || cfg.Events.Workers != 8 {
		t.Fatalf("unexpected redis/events %+v %+v", cfg.Redis, cfg.Events)
	}
	if !cfg.Bootstrap.Enabled() || cfg.Bootstrap.AdminLogin != "Admin" {
		t.Fatalf("unexpected bootstrap %+v", cfg.Bootstrap)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("TASKMANAGER_DB_DRIVER", "mysql")
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "mysql") || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected both problems reported, got %v", err)
	}

	t.Setenv("TASKMANAGER_DB_DRIVER", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("EVENTS_BUFFER", "lots")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "EVENTS_BUFFER") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := Redis{URL: "redis://:pw@localhost:6380/2"}.RedisOptions()
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = Redis{URL: "cache.example.net:6380,password=secret,ssl=True,abortConnect=False"}.RedisOptions()
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	if opts.Addr != "cache.example.net:6380" || opts.Password != "secret" || opts.TLSConfig == nil {
		t.Fatalf("unexpected options %+v", opts)
	}
}
