// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // catalog cache TTL
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

type TapConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	RedirectURL   string `yaml:"redirect_url"`
}

type PaymentConfig struct {
	Stripe StripeConfig `yaml:"stripe"`
	Tap    TapConfig    `yaml:"tap"`
}

type ProviderConfig struct {
	Timeout time.Duration `yaml:"timeout"` // per upstream HTTP call
}

type DispatchConfig struct {
	Workers      int             `yaml:"workers"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	MaxAttempts  int             `yaml:"max_attempts"`
	RetryDelays  []time.Duration `yaml:"retry_delays"`
}

type ReconcileConfig struct {
	Interval   time.Duration `yaml:"interval"`    // schedule period
	BatchSize  int           `yaml:"batch_size"`  // max orders per run
	CallDelay  time.Duration `yaml:"call_delay"`  // pause between provider calls
	Budget     time.Duration `yaml:"budget"`      // wall-clock cap per run
	StallAfter time.Duration `yaml:"stall_after"` // 0 disables the stalled->partial policy
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Provider  ProviderConfig  `yaml:"provider"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Reconcile ReconcileConfig `yaml:"reconcile"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if len(cfg.Dispatch.RetryDelays) != cfg.Dispatch.MaxAttempts {
		return nil, fmt.Errorf("dispatch.retry_delays must list %d delays", cfg.Dispatch.MaxAttempts)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = 4
	}
	if cfg.Dispatch.PollInterval <= 0 {
		cfg.Dispatch.PollInterval = time.Second
	}
	if cfg.Dispatch.MaxAttempts <= 0 {
		cfg.Dispatch.MaxAttempts = 3
	}
	if len(cfg.Dispatch.RetryDelays) == 0 {
		cfg.Dispatch.RetryDelays = []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}
	}
	if cfg.Reconcile.Interval <= 0 {
		cfg.Reconcile.Interval = 5 * time.Minute
	}
	if cfg.Reconcile.BatchSize <= 0 || cfg.Reconcile.BatchSize > 100 {
		cfg.Reconcile.BatchSize = 100
	}
	if cfg.Reconcile.CallDelay <= 0 {
		cfg.Reconcile.CallDelay = 250 * time.Millisecond
	}
	if cfg.Reconcile.Budget <= 0 {
		cfg.Reconcile.Budget = 5 * time.Minute
	}
}
