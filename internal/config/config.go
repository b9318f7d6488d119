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

type PortalConfig struct {
	Port        int    `yaml:"port"`         // public portal API + webhook
	PublicURL   string `yaml:"public_url"`   // externally reachable base URL
	WebhookPath string `yaml:"webhook_path"` // provider notification path
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	Password   string        `yaml:"password"`    // single-operator login
	JWTSecret  string        `yaml:"jwt_secret"`  // HS256 signing key
	SessionTTL time.Duration `yaml:"session_ttl"` // admin cookie lifetime
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty = in-memory session/plan store
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty = in-process session locks
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type MikrotikConfig struct {
	Address  string `yaml:"address"` // RouterOS REST API, host or host:port
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Profile  string `yaml:"profile"` // hotspot user profile to assign
}

type PaymentConfig struct {
	MercadoPago struct {
		AccessToken   string `yaml:"access_token"`
		PixKey        string `yaml:"pix_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		PayerEmail    string `yaml:"payer_email"` // placeholder payer for PIX intents
	} `yaml:"mercadopago"`
}

type SessionConfig struct {
	TTL            time.Duration `yaml:"ttl"`             // unpaid session lifetime
	Retention      time.Duration `yaml:"retention"`       // terminal session audit window
	SweepInterval  time.Duration `yaml:"sweep_interval"`  // store eviction cadence
	ReconcileEvery time.Duration `yaml:"reconcile_every"` // stale-charge lookup cadence
	GrantAttempts  int           `yaml:"grant_attempts"`  // provisioning retry budget
	CallTimeout    time.Duration `yaml:"call_timeout"`    // gateway/router call bound
}

type Config struct {
	Portal   PortalConfig   `yaml:"portal"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mikrotik MikrotikConfig `yaml:"mikrotik"`
	Payment  PaymentConfig  `yaml:"payment"`
	Session  SessionConfig  `yaml:"session"`

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

	// defaults
	if cfg.Portal.Port == 0 {
		cfg.Portal.Port = 3001
	}
	if cfg.Portal.WebhookPath == "" {
		cfg.Portal.WebhookPath = "/webhook/payments"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 3002
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 15 * time.Second
	}
	if cfg.Mikrotik.Profile == "" {
		cfg.Mikrotik.Profile = "default"
	}
	cfg.Session = normalizeSession(cfg.Session)

	// Minimal validation
	if !dev {
		if cfg.Payment.MercadoPago.AccessToken == "" {
			return nil, errors.New("payment.mercadopago.access_token is required")
		}
		if cfg.Mikrotik.Address == "" {
			return nil, errors.New("mikrotik.address is required")
		}
		if cfg.Admin.JWTSecret == "" {
			return nil, errors.New("admin.jwt_secret is required")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeSession(s SessionConfig) SessionConfig {
	if s.TTL <= 0 {
		s.TTL = 300 * time.Second
	}
	if s.Retention <= 0 {
		s.Retention = 24 * time.Hour
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = 10 * time.Minute
	}
	if s.ReconcileEvery <= 0 {
		s.ReconcileEvery = time.Minute
	}
	if s.GrantAttempts <= 0 {
		s.GrantAttempts = 3
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = 10 * time.Second
	}
	return s
}
