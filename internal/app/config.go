package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config описывает настройки запуска витрины.
type Config struct {
	App struct {
		Name        string `koanf:"name"`
		HTTPAddr    string `koanf:"http_addr"`
		MetricsAddr string `koanf:"metrics_addr"`
		LogLevel    string `koanf:"log_level"`
	} `koanf:"app"`

	Storage struct {
		// Driver: memory | postgres.
		Driver      string `koanf:"driver"`
		PostgresDSN string `koanf:"postgres_dsn"`
		AutoMigrate bool   `koanf:"auto_migrate"`
	} `koanf:"storage"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Outbox struct {
		PollInterval   time.Duration `koanf:"poll_interval"`
		BatchSize      int           `koanf:"batch_size"`
		MaxAttempts    int           `koanf:"max_attempts"`
		RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	} `koanf:"outbox"`

	Idempotency struct {
		TTL             time.Duration `koanf:"ttl"`
		CleanupInterval time.Duration `koanf:"cleanup_interval"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Security struct {
		JWTSecret string `koanf:"jwt_secret"`
	} `koanf:"security"`
}

// DefaultConfig возвращает рабочие значения для локального запуска.
func DefaultConfig() Config {
	var cfg Config
	cfg.App.Name = "storefront"
	cfg.App.HTTPAddr = ":8080"
	cfg.App.MetricsAddr = ":9090"
	cfg.App.LogLevel = "info"
	cfg.Storage.Driver = "memory"
	cfg.Storage.AutoMigrate = true
	cfg.Outbox.PollInterval = 1 * time.Second
	cfg.Outbox.BatchSize = 100
	cfg.Outbox.MaxAttempts = 3
	cfg.Outbox.RetryBaseDelay = 50 * time.Millisecond
	cfg.Idempotency.TTL = 24 * time.Hour
	cfg.Idempotency.CleanupInterval = 10 * time.Minute
	cfg.Cache.TTL = 5 * time.Minute
	cfg.Security.JWTSecret = "dev-secret"
	return cfg
}

// LoadConfig читает конфигурацию: yaml-файл (опционально) плюс переменные
// окружения с префиксом STOREFRONT_; вложенность задаётся двойным
// подчёркиванием, например STOREFRONT_STORAGE__POSTGRES_DSN.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("STOREFRONT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STOREFRONT_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность конфигурации.
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be memory or postgres, got %q", c.Storage.Driver)
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	return nil
}
