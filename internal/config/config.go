// Package config provides configuration management for the rollworks data layer.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, LOG_LEVEL)
// 3. Default values
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Cascade execution modes.
const (
	CascadeTransactional = "transactional"
	CascadeBestEffort    = "best_effort"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	River    RiverConfig    `mapstructure:"river"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Cascade  CascadeConfig  `mapstructure:"cascade"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig contains diagnostics HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// One pool is shared by the repositories and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize     int `mapstructure:"general_pool_size"`
	DiagnosticsPoolSize int `mapstructure:"diagnostics_pool_size"`
}

// CascadeConfig bounds Order and MixMaterial cascades.
type CascadeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Mode    string        `mapstructure:"mode"` // transactional or best_effort
}

// SMSConfig contains SMS queueing settings. The gateway HTTP client is external.
// DefaultRegion is the ISO 3166 country of recipients written in national format.
type SMSConfig struct {
	SenderID      string        `mapstructure:"sender_id"`
	Retention     time.Duration `mapstructure:"retention"`
	DryRun        bool          `mapstructure:"dry_run"`
	DefaultRegion string        `mapstructure:"default_region"`
}

// SeedConfig contains bootstrap data settings.
type SeedConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from the default search paths and environment variables.
func Load() (*Config, error) {
	cfg, _, err := load("")
	return cfg, err
}

// LoadFile reads configuration from path (or the default search paths when
// empty). When onChange is non-nil and a config file was found, the file is
// watched and onChange receives every successfully re-read configuration.
func LoadFile(path string, onChange func(*Config)) (*Config, error) {
	cfg, v, err := load(path)
	if err != nil {
		return nil, err
	}
	if onChange != nil && v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				logBootstrapWarn("config reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}
			if err := next.Validate(); err != nil {
				logBootstrapWarn("config reload rejected", zap.String("file", e.Name), zap.Error(err))
				return
			}
			onChange(&next)
		})
		v.WatchConfig()
	}
	return cfg, nil
}

func load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/rollworks")
	}

	// No prefix: database.max_conns -> DATABASE_MAX_CONNS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	switch c.Cascade.Mode {
	case CascadeTransactional, CascadeBestEffort:
	default:
		return fmt.Errorf("cascade.mode must be %q or %q, got %q",
			CascadeTransactional, CascadeBestEffort, c.Cascade.Mode)
	}
	if c.Cascade.Timeout < 0 {
		return fmt.Errorf("cascade.timeout must not be negative")
	}
	if c.Worker.DiagnosticsPoolSize < 0 || c.Worker.GeneralPoolSize < 0 {
		return fmt.Errorf("worker pool sizes must not be negative")
	}
	if len(c.SMS.DefaultRegion) != 2 {
		return fmt.Errorf("sms.default_region must be a two-letter country code, got %q", c.SMS.DefaultRegion)
	}
	if c.Seed.AdminUsername == "" {
		return fmt.Errorf("seed.admin_username must not be empty")
	}
	return nil
}

// ensureSecrets auto-generates a default admin password when none is configured.
func (c *Config) ensureSecrets() error {
	if c.Seed.AdminPassword == "" {
		secret, err := generateSecureRandomHex(16)
		if err != nil {
			return fmt.Errorf("auto-generate admin password: %w", err)
		}
		c.Seed.AdminPassword = secret
		logBootstrapWarn(
			"auto-generated seed.admin_password; set SEED_ADMIN_PASSWORD env var for persistence",
			zap.Int("length", len(secret)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})

	// Database
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rollworks")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "rollworks")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// River
	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Worker pools
	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.diagnostics_pool_size", 8)

	// Cascade
	v.SetDefault("cascade.timeout", "30s")
	v.SetDefault("cascade.mode", CascadeTransactional)

	// SMS
	v.SetDefault("sms.sender_id", "ROLLWORKS")
	v.SetDefault("sms.retention", "2160h") // 90 days
	v.SetDefault("sms.dry_run", true)
	v.SetDefault("sms.default_region", "SA")

	// Seed
	v.SetDefault("seed.admin_username", "admin")
	v.SetDefault("seed.admin_password", "")
}
