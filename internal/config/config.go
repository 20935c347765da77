// Package config loads studioctl settings from the environment and an
// optional .env file using Viper. Command-line flags override the result.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/softseven/studio-admin/internal/apiclient"
	"github.com/softseven/studio-admin/internal/migrate"
	"github.com/softseven/studio-admin/internal/tokenstore"
	"github.com/softseven/studio-admin/internal/tokenstore/postgres"
)

// Token store kinds.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds client settings.
type Config struct {
	// APIURL is the backend API root including /api.
	APIURL string `mapstructure:"STUDIO_API_URL"`
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration `mapstructure:"STUDIO_TIMEOUT"`
	// Retries is the number of extra attempts for idempotent GETs.
	Retries int `mapstructure:"STUDIO_RETRIES"`
	// RateLimit caps requests per second; 0 disables.
	RateLimit float64 `mapstructure:"STUDIO_RATE"`
	Insecure  bool    `mapstructure:"STUDIO_INSECURE"`
	// WithCredentials keeps backend cookies between requests.
	WithCredentials bool `mapstructure:"STUDIO_WITH_CREDENTIALS"`

	// TokenStore is one of file, postgres, memory.
	TokenStore      string `mapstructure:"STUDIO_TOKEN_STORE"`
	TokenPath       string `mapstructure:"STUDIO_TOKEN_PATH"`
	TokenPassphrase string `mapstructure:"STUDIO_TOKEN_PASSPHRASE"`
	DatabaseURL     string `mapstructure:"STUDIO_DATABASE_URL"`
	SessionKey      string `mapstructure:"STUDIO_SESSION_KEY"`

	// StaleTime lets repeated reads within one run hit the cache.
	StaleTime time.Duration `mapstructure:"STUDIO_STALE_TIME"`
	LogLevel  string        `mapstructure:"STUDIO_LOG_LEVEL"`
}

// Load reads envFile (".env" when empty; a missing file is ignored), then the
// environment, and validates the result.
func Load(envFile string) (*Config, error) {
	v := viper.New()

	if envFile == "" {
		envFile = ".env"
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("STUDIO_API_URL", apiclient.DefaultBaseURL)
	v.SetDefault("STUDIO_TIMEOUT", "30s")
	v.SetDefault("STUDIO_RETRIES", 0)
	v.SetDefault("STUDIO_RATE", 0)
	v.SetDefault("STUDIO_INSECURE", false)
	v.SetDefault("STUDIO_WITH_CREDENTIALS", true)
	v.SetDefault("STUDIO_TOKEN_STORE", StoreFile)
	v.SetDefault("STUDIO_TOKEN_PATH", tokenstore.DefaultPath())
	v.SetDefault("STUDIO_TOKEN_PASSPHRASE", "")
	v.SetDefault("STUDIO_DATABASE_URL", "")
	v.SetDefault("STUDIO_SESSION_KEY", tokenstore.DefaultKey)
	v.SetDefault("STUDIO_STALE_TIME", "0s")
	v.SetDefault("STUDIO_LOG_LEVEL", "warn")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings. Call it again after applying flag overrides.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: STUDIO_API_URL %q is not an absolute URL", c.APIURL)
	}
	switch c.TokenStore {
	case StoreFile, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: STUDIO_DATABASE_URL is required with STUDIO_TOKEN_STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STUDIO_TOKEN_STORE %q", c.TokenStore)
	}
	if c.Retries < 0 {
		return errors.New("config: STUDIO_RETRIES must not be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("config: STUDIO_RATE must not be negative")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: STUDIO_LOG_LEVEL: %w", err)
	}
	return nil
}

// Client returns the HTTP client settings.
func (c *Config) Client() apiclient.Config {
	return apiclient.Config{
		BaseURL:         c.APIURL,
		Timeout:         c.Timeout,
		WithCredentials: c.WithCredentials,
		Insecure:        c.Insecure,
		Retries:         c.Retries,
		RateLimit:       c.RateLimit,
	}
}

// Logger builds a console logger at LogLevel writing to stderr.
func (c *Config) Logger() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = lvl
	zc.DisableStacktrace = true
	return zc.Build()
}

// OpenTokenStore returns the configured store and a func releasing it.
// The postgres store gets its schema migrated first.
func (c *Config) OpenTokenStore(ctx context.Context) (tokenstore.Store, func(), error) {
	switch c.TokenStore {
	case StoreMemory:
		return tokenstore.NewMemoryStore(), func() {}, nil
	case StorePostgres:
		if err := migrate.Up(ctx, c.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("migrate token store: %w", err)
		}
		s, err := postgres.Open(ctx, c.DatabaseURL, c.SessionKey)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return tokenstore.NewFileStore(c.TokenPath, tokenstore.WithPassphrase(c.TokenPassphrase)), func() {}, nil
	}
}
