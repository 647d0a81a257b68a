package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopsight-lab/shopsight/internal/core/funnel"
)

// Config represents the top-level application config plus resolved funnel definitions.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Retention RetentionConfig `koanf:"retention"`
	Funnels   FunnelsConfig   `koanf:"funnels"`
	Reporting ReportingConfig `koanf:"reporting"`

	// FunnelLoading is populated by Load after parsing funnel files.
	FunnelLoading FunnelLoadingConfig `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type RetentionConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Days          int    `koanf:"days"`
	BatchSize     int    `koanf:"batch_size"`
	SweepInterval string `koanf:"sweep_interval"` // parsed and validated on startup
}

type FunnelsConfig struct {
	ConfigDir string `koanf:"config_dir"`
}

type ReportingConfig struct {
	CacheSize int    `koanf:"cache_size"`
	CacheTTL  string `koanf:"cache_ttl"`
}

type FunnelLoadingConfig struct {
	ConfigDir string
	Funnels   []funnel.Funnel
}

func (c RetentionConfig) SweepIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func (c ReportingConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Retention.Days <= 0 {
		return fmt.Errorf("retention.days must be > 0")
	}
	if c.Retention.BatchSize <= 0 {
		return fmt.Errorf("retention.batch_size must be > 0")
	}
	interval, err := time.ParseDuration(c.Retention.SweepInterval)
	if err != nil {
		return fmt.Errorf("invalid retention.sweep_interval %q: %w", c.Retention.SweepInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("retention.sweep_interval must be > 0")
	}

	if c.Reporting.CacheSize < 0 {
		return fmt.Errorf("reporting.cache_size must be >= 0")
	}
	if _, err := time.ParseDuration(c.Reporting.CacheTTL); err != nil {
		return fmt.Errorf("invalid reporting.cache_ttl %q: %w", c.Reporting.CacheTTL, err)
	}

	return nil
}

// Load parses config from file + env, validates it, then loads funnel definitions.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.mode":              "release",
		"database.type":            "postgres",
		"database.dsn":             "",
		"database.max_open_conns":  25,
		"database.max_idle_conns":  25,
		"database.auto_migrate":    true,
		"retention.enabled":        true,
		"retention.days":           180,
		"retention.batch_size":     5000,
		"retention.sweep_interval": "24h",
		"funnels.config_dir":       "",
		"reporting.cache_size":     256,
		"reporting.cache_ttl":      "30s",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("SHOPSIGHT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SHOPSIGHT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := funnel.NewFileSystemFunnelRepository(cfg.Funnels.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel definitions: %w", err)
	}

	cfg.FunnelLoading = FunnelLoadingConfig{
		ConfigDir: cfg.Funnels.ConfigDir,
		Funnels:   repo.GetFunnels(),
	}

	return &cfg, nil
}
