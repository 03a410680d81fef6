package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/aretw0/nodeattr/internal/platform"
)

// Config holds the CLI configuration.
type Config struct {
	Root     string    `mapstructure:"root"`
	Adapter  string    `mapstructure:"adapter"`
	DSN      string    `mapstructure:"dsn"`
	Format   string    `mapstructure:"format"`
	AttrsKey string    `mapstructure:"attrs_key"`
	ReadOnly bool      `mapstructure:"read_only"`
	Log      LogConfig `mapstructure:"log"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment. Without an
// explicit path, nodeattr.yaml is searched upwards from the working directory.
// Relative root and dsn values are resolved against the config file directory.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", ".")
	v.SetDefault("adapter", "fs")
	v.SetDefault("dsn", "nodeattr.db")
	v.SetDefault("format", ".yaml")
	v.SetDefault("attrs_key", "")
	v.SetDefault("read_only", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if configPath == "" {
		if wd, err := os.Getwd(); err == nil {
			if root, err := platform.FindRoot(wd); err == nil {
				candidate := filepath.Join(root, platform.ConfigName)
				if _, err := os.Stat(candidate); err == nil {
					configPath = candidate
				}
			}
		}
	}

	baseDir := ""
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			baseDir = filepath.Dir(configPath)
		}
	}

	v.SetEnvPrefix("NODEATTR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if baseDir != "" {
		if !filepath.IsAbs(cfg.Root) {
			cfg.Root = filepath.Join(baseDir, cfg.Root)
		}
		if cfg.DSN != ":memory:" && !filepath.IsAbs(cfg.DSN) {
			cfg.DSN = filepath.Join(baseDir, cfg.DSN)
		}
	}
	return &cfg, nil
}

// URI returns the location the configured adapter opens.
func (c *Config) URI() string {
	if c.Adapter == "sqlite" {
		return c.DSN
	}
	return c.Root
}

// SetupLogger creates a logger with the configured level and format.
// Logs go to stderr so that command output stays clean.
func SetupLogger(cfg *Config, verbose bool) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
