// Package config loads service configuration from an optional YAML file and
// the environment. Environment variables win over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// LedgerBackend selects the storage collaborator: memory, redis, sqlite.
	LedgerBackend string `yaml:"ledger_backend"`
	RedisURL      string `yaml:"redis_url"`
	SQLitePath    string `yaml:"sqlite_path"`

	// DatabaseURL, when set, enables the Postgres archive of finished games.
	DatabaseURL string `yaml:"database_url"`

	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:      ":8080",
		LedgerBackend:   BackendMemory,
		SQLitePath:      "data/chessledger.db",
		ReadTimeoutSec:  10,
		WriteTimeoutSec: 10,
	}

	if path := strings.TrimSpace(os.Getenv("CHESSLEDGER_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_BACKEND")); v != "" {
		cfg.LedgerBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SQLITE_PATH")); v != "" {
		cfg.SQLitePath = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("READ_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReadTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("WRITE_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WriteTimeoutSec = n
		}
	}

	switch cfg.LedgerBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis ledger backend")
		}
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required for the sqlite ledger backend")
		}
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
	return cfg, nil
}
