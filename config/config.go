// Package config loads the service configuration from an optional YAML file
// and environment overrides.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	JWT       JWT       `yaml:"jwt"`
	Auth      Auth      `yaml:"auth"`
	Bootstrap Bootstrap `yaml:"bootstrap"`
	Redis     Redis     `yaml:"redis"`
	Events    Events    `yaml:"events"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Database struct {
	Driver           string `yaml:"driver"`
	ConnectionString string `yaml:"connection_string"`
}

type JWT struct {
	Issuer         string `yaml:"issuer"`
	Audience       string `yaml:"audience"`
	Key            string `yaml:"key"`
	ExpiresMinutes int    `yaml:"expires_minutes"`
}

// TTL is the lifetime of issued tokens.
func (j JWT) TTL() time.Duration {
	return time.Duration(j.ExpiresMinutes) * time.Minute
}

type Auth struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Bootstrap describes the admin account seeded into an empty database.
type Bootstrap struct {
	AdminLogin    string `yaml:"admin_login"`
	AdminPassword string `yaml:"admin_password"`
	AdminEmail    string `yaml:"admin_email"`
}

// Enabled reports whether an admin should be seeded.
func (b Bootstrap) Enabled() bool { return b.AdminPassword != "" }

type Redis struct {
	URL            string        `yaml:"url"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

type Events struct {
	ConnectionString string `yaml:"connection_string"`
	Queue            string `yaml:"queue"`
	Workers          int    `yaml:"workers"`
	Buffer           int    `yaml:"buffer"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path when it is not empty, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(dst *int, key string) error {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}

	str(&c.Server.Addr, "TASKMANAGER_ADDR")
	str(&c.Database.Driver, "TASKMANAGER_DB_DRIVER")
	str(&c.Database.ConnectionString, "TASKMANAGER_DB_CONNECTION")
	str(&c.JWT.Issuer, "TASKMANAGER_JWT_ISSUER")
	str(&c.JWT.Audience, "TASKMANAGER_JWT_AUDIENCE")
	str(&c.JWT.Key, "TASKMANAGER_JWT_KEY")
	str(&c.Bootstrap.AdminLogin, "TASKMANAGER_ADMIN_LOGIN")
	str(&c.Bootstrap.AdminPassword, "TASKMANAGER_ADMIN_PASSWORD")
	str(&c.Bootstrap.AdminEmail, "TASKMANAGER_ADMIN_EMAIL")
	str(&c.Redis.URL, "REDIS_CONNECTION_STRING")
	str(&c.Events.ConnectionString, "STORAGE_CONNECTION_STRING")
	str(&c.Events.Queue, "DOMAIN_EVENTS_QUEUE")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")

	for key, dst := range map[string]*int{
		"TASKMANAGER_JWT_EXPIRES_MINUTES": &c.JWT.ExpiresMinutes,
		"TASKMANAGER_BCRYPT_COST":         &c.Auth.BcryptCost,
		"EVENTS_WORKERS":                  &c.Events.Workers,
		"EVENTS_BUFFER":                   &c.Events.Buffer,
	} {
		if err := num(dst, key); err != nil {
			return err
		}
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		c.Redis.IdempotencyTTL = d
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		c.Log.Level = "debug"
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
		if port, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
			c.Server.Addr = ":" + port
		}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.ConnectionString == "" && c.Database.Driver == "sqlite" {
		c.Database.ConnectionString = "file:taskmanager.db"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "taskmanager-api"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "taskmanager-clients"
	}
	if c.JWT.ExpiresMinutes == 0 {
		c.JWT.ExpiresMinutes = 60
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if c.Bootstrap.AdminLogin == "" {
		c.Bootstrap.AdminLogin = "Admin"
	}
	if c.Bootstrap.AdminEmail == "" {
		c.Bootstrap.AdminEmail = "admin@taskmanager.local"
	}
	if c.Redis.IdempotencyTTL == 0 {
		c.Redis.IdempotencyTTL = 24 * time.Hour
	}
	if c.Events.Queue == "" {
		c.Events.Queue = "taskmanager-events"
	}
	if c.Events.Workers == 0 {
		c.Events.Workers = 4
	}
	if c.Events.Buffer == 0 {
		c.Events.Buffer = 256
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate rejects settings the service cannot start with. A missing JWT key
// is allowed; login then fails with a server error.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.ConnectionString == "" {
		errs = append(errs, errors.New("database connection string is required"))
	}
	if c.JWT.ExpiresMinutes < 0 {
		errs = append(errs, errors.New("jwt expires_minutes must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Redis.IdempotencyTTL < 0 {
		errs = append(errs, errors.New("idempotency ttl must be positive"))
	}
	if c.Events.Workers < 0 || c.Events.Buffer < 0 {
		errs = append(errs, errors.New("events workers and buffer must be positive"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// RedisOptions parses Redis.URL. Both redis:// URLs and the
// "host:port,password=...,ssl=True" form are accepted.
func (r Redis) RedisOptions() (*redis.Options, error) {
	if r.URL == "" {
		return nil, errors.New("redis url is empty")
	}
	if opts, err := redis.ParseURL(r.URL); err == nil {
		return opts, nil
	}
	parts := strings.Split(r.URL, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts, nil
}
