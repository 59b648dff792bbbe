package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/spf13/viper"

	"github.com/haytac/tocstrip/internal/logging"
	"github.com/haytac/tocstrip/internal/toc"
)

// SiteConfig describes one built documentation site.
type SiteConfig struct {
	Root           string        `mapstructure:"root"`
	RescanInterval time.Duration `mapstructure:"rescan_interval"` // 0 disables periodic rescans
}

// ServerConfig controls serve mode.
type ServerConfig struct {
	Addr         string  `mapstructure:"addr"`
	Root         string  `mapstructure:"root"`       // empty disables serving in `run`
	RateLimit    float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst        int     `mapstructure:"burst"`
	MaxBodyBytes int64   `mapstructure:"max_body_bytes"`
}

// AppConfig holds the application configuration.
type AppConfig struct {
	DatabasePath     string         `mapstructure:"database_path"` // empty disables the page ledger
	Log              logging.Config `mapstructure:"log"`
	MetricsPort      string         `mapstructure:"metrics_port"`
	Selector         string         `mapstructure:"selector"`
	ExpandShortcodes bool           `mapstructure:"expand_shortcodes"`
	Workers          int            `mapstructure:"workers"`
	Watch            bool           `mapstructure:"watch"`
	Audit            bool           `mapstructure:"audit"`
	Sites            []SiteConfig   `mapstructure:"sites"`
	Server           ServerConfig   `mapstructure:"server"`
	DryRun           bool           // Not from config file, set by flag
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("database_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("metrics_port", "")
	v.SetDefault("selector", toc.DefaultSelector)
	v.SetDefault("expand_shortcodes", false)
	v.SetDefault("workers", 4)
	v.SetDefault("watch", true)
	v.SetDefault("audit", false)
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("server.max_body_bytes", 1<<20)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tocstrip")
		v.AddConfigPath("/etc/tocstrip/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TOCSTRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late or silently.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Selector) == "" {
		c.Selector = toc.DefaultSelector
	}
	if _, err := cascadia.ParseGroup(c.Selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", c.Selector, err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	for i, s := range c.Sites {
		if s.Root == "" {
			return fmt.Errorf("sites[%d]: root is required", i)
		}
		if s.RescanInterval < 0 {
			return fmt.Errorf("sites[%d]: rescan_interval must not be negative", i)
		}
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.Burst <= 0 {
		return fmt.Errorf("server.burst must be positive when rate limiting is enabled")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	return nil
}
