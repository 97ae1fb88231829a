// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	Path         string `yaml:"path" mapstructure:"path"`
	HistoryLimit int    `yaml:"history_limit" mapstructure:"history_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int `yaml:"port" mapstructure:"port"`
	MaxUploadMB int `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// NotifyConfig configures webhook notifications for completed runs.
type NotifyConfig struct {
	WebhookURL    string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerMinute float64 `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MinScore      float64 `yaml:"min_score" mapstructure:"min_score"`
}

// CompareConfig holds defaults for comparison runs.
type CompareConfig struct {
	DuplicatePolicy string `yaml:"duplicate_policy" mapstructure:"duplicate_policy"`
	OutDir          string `yaml:"out_dir" mapstructure:"out_dir"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INTEGRITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "integrity.db")
	v.SetDefault("store.history_limit", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("notify.timeout_secs", 10)
	v.SetDefault("notify.max_retries", 2)
	v.SetDefault("notify.rate_per_minute", 6)
	v.SetDefault("notify.min_score", 0)
	v.SetDefault("compare.duplicate_policy", "cross")
	v.SetDefault("compare.out_dir", "reports")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode. Modes are
// "compare", "history", and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for sqlite")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.HistoryLimit < 1 || c.Store.HistoryLimit > 1000 {
		problems = append(problems, "store.history_limit must be between 1 and 1000")
	}

	switch mode {
	case "compare":
		switch c.Compare.DuplicatePolicy {
		case "cross", "first", "reject":
		default:
			problems = append(problems, "compare.duplicate_policy must be cross, first, or reject")
		}
	case "history":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB < 1 {
			problems = append(problems, "server.max_upload_mb must be >= 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Notify.WebhookURL != "" {
		if c.Notify.TimeoutSecs <= 0 {
			problems = append(problems, "notify.timeout_secs must be > 0")
		}
		if c.Notify.RatePerMinute <= 0 {
			problems = append(problems, "notify.rate_per_minute must be > 0")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
