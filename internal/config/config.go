// Package config provides configuration management for the terminal application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data        DataConfig     `mapstructure:"data"`
	Market      MarketConfig   `mapstructure:"market"`
	UI          UIConfig       `mapstructure:"ui"`
	Security    SecurityConfig `mapstructure:"security"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// DataConfig holds local data storage configuration.
type DataConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// MarketConfig holds market-data provider configuration.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	EncryptCredentials bool `mapstructure:"encrypt_credentials"`
}

// Credentials holds API credentials.
type Credentials struct {
	Market MarketCredentials `mapstructure:"market"`
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// MarketCredentials holds market-data API credentials.
type MarketCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/finterm"
	}
	return filepath.Join(home, ".config", "finterm")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("data.db_path", filepath.Join(configDir, "finterm.db"))
	v.SetDefault("market.base_url", "https://query1.finance.example.com/v8")
	v.SetDefault("market.request_timeout", "10s")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
	v.SetDefault("security.encrypt_credentials", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if terr := createTemplateConfig(configDir); terr != nil {
				return terr
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("openai.model", "gpt-4o-mini")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if terr := createTemplateCredentials(configDir); terr != nil {
				return terr
			}
			return v.Unmarshal(creds)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FINTERM_QUOTE_API_KEY"); v != "" {
		cfg.Credentials.Market.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("FINTERM_DB_PATH"); v != "" {
		cfg.Data.DBPath = v
	}
	if v := os.Getenv("FINTERM_MARKET_URL"); v != "" {
		cfg.Market.BaseURL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.DBPath == "" {
		return fmt.Errorf("data.db_path must not be empty")
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url must not be empty")
	}
	if c.Market.RequestTimeout < 0 {
		return fmt.Errorf("market.request_timeout must be non-negative")
	}
	return nil
}
