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
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// MembershipConfig points at the upstream membership backend. The basic-auth
// credential lives here, in server-side configuration, never in a client build.
type MembershipConfig struct {
	BaseURL      string        `yaml:"base_url"`
	AuthUser     string        `yaml:"auth_user"`
	AuthPassword string        `yaml:"auth_password"`
	Timeout      time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // draft/session lifetime
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type PortalConfig struct {
	SuccessDelay   time.Duration `yaml:"success_delay"`    // cosmetic pause before the success view
	CardReadyAfter time.Duration `yaml:"card_ready_after"` // dashboard member-card generation delay
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	DefaultLang    string        `yaml:"default_lang"` // th|en
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Membership MembershipConfig `yaml:"membership"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Session    SessionConfig    `yaml:"session"`
	Portal     PortalConfig     `yaml:"portal"`

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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Membership.Timeout <= 0 {
		cfg.Membership.Timeout = 15 * time.Second
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 30 * time.Minute
	}
	if cfg.Portal.SuccessDelay <= 0 {
		cfg.Portal.SuccessDelay = time.Second
	}
	if cfg.Portal.CardReadyAfter <= 0 {
		cfg.Portal.CardReadyAfter = 3 * time.Second
	}
	if cfg.Portal.MaxUploadBytes <= 0 {
		cfg.Portal.MaxUploadBytes = 10 << 20
	}
	if cfg.Portal.DefaultLang == "" {
		cfg.Portal.DefaultLang = "th"
	}

	// Minimal validation
	if cfg.Membership.BaseURL == "" {
		return nil, errors.New("membership.base_url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("session.secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
