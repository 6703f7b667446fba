// Package config loads and saves the CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonandersen/apca/pkg/alpaca"
)

const (
	// AppName names the config directory.
	AppName = "apca"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "APCA_CONFIG"

	// EnvLogLevel overrides the configured log level.
	EnvLogLevel = "APCA_LOG_LEVEL"

	DefaultTradingBaseURL = alpaca.DefaultTradingURL
	DefaultDataBaseURL    = alpaca.DefaultDataURL
	DefaultStockFeed      = alpaca.DefaultStockFeed
	DefaultOptionFeed     = alpaca.DefaultOptionFeed
	DefaultChainPageLimit = alpaca.DefaultChainPageLimit
	DefaultMaxPages       = 50
	DefaultLogLevel       = "warn"
)

// ErrTradingDisabled is returned when an order is attempted without
// trading_enabled set in the config.
var ErrTradingDisabled = errors.New("trading is disabled (set trading_enabled: true in the config file)")

// Config holds the CLI configuration.
type Config struct {
	TradingBaseURL string `yaml:"trading_base_url"`
	DataBaseURL    string `yaml:"data_base_url"`
	StockFeed      string `yaml:"stock_feed"`
	OptionFeed     string `yaml:"option_feed"`
	ChainPageLimit int    `yaml:"chain_page_limit"`
	MaxPages       int    `yaml:"max_pages"`
	TradingEnabled bool   `yaml:"trading_enabled"`
	LogLevel       string `yaml:"log_level"`
}

// DefaultConfig returns a config pointing at paper trading with the free
// data feeds.
func DefaultConfig() *Config {
	return &Config{
		TradingBaseURL: DefaultTradingBaseURL,
		DataBaseURL:    DefaultDataBaseURL,
		StockFeed:      DefaultStockFeed,
		OptionFeed:     DefaultOptionFeed,
		ChainPageLimit: DefaultChainPageLimit,
		MaxPages:       DefaultMaxPages,
		LogLevel:       DefaultLogLevel,
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/apca, or ~/.config/apca.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the config file location. APCA_CONFIG takes precedence.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads the config at path. A missing file yields the defaults, and
// fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills fields that were set to their zero value explicitly.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TradingBaseURL == "" {
		c.TradingBaseURL = d.TradingBaseURL
	}
	if c.DataBaseURL == "" {
		c.DataBaseURL = d.DataBaseURL
	}
	if c.StockFeed == "" {
		c.StockFeed = d.StockFeed
	}
	if c.OptionFeed == "" {
		c.OptionFeed = d.OptionFeed
	}
	if c.ChainPageLimit <= 0 {
		c.ChainPageLimit = d.ChainPageLimit
	}
	if c.MaxPages <= 0 {
		c.MaxPages = d.MaxPages
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Save writes cfg to path with owner-only permissions, creating parent
// directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadEnv loads variables from .env files into the environment without
// overriding variables that are already set. With no arguments it reads
// .env in the working directory. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
