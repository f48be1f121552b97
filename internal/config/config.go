package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all backtranslate configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Translate TranslateConfig `mapstructure:"translate"`
	Server    ServerConfig    `mapstructure:"server"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig defines cost ledger database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig defines translation memory settings.
type CacheConfig struct {
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// RetryConfig defines retry behavior for provider calls.
type RetryConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	BaseDelay   string `mapstructure:"base_delay"`
	MaxDelay    string `mapstructure:"max_delay"`
}

// TranslateConfig defines provider settings.
type TranslateConfig struct {
	Provider         string `mapstructure:"provider"`
	SourceLang       string `mapstructure:"source_lang"`
	IntermediateLang string `mapstructure:"intermediate_lang"`
	GoogleAPIKey     string `mapstructure:"google_api_key"`
	LocalEndpoint    string `mapstructure:"local_endpoint"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// PricingConfig defines pricing data settings.
type PricingConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".backtranslate"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults. Every key gets one, even if only the zero value: viper's
	// AutomaticEnv resolves an env var only for keys it already knows, so a
	// key without a default would be unreachable via BT_* variables.
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".backtranslate", "costs.db"))
	v.SetDefault("cache.path", filepath.Join(home, ".backtranslate", "memory.json"))
	v.SetDefault("cache.max_entries", 500)
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.base_delay", "500ms")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("translate.provider", "google_unofficial")
	v.SetDefault("translate.source_lang", "en")
	v.SetDefault("translate.intermediate_lang", "ja")
	v.SetDefault("translate.google_api_key", "")
	v.SetDefault("translate.local_endpoint", "")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.webhook_url", "")
	v.SetDefault("alerts.slack.channel", "#translation-costs")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("pricing.file", "")

	// Environment variables
	v.SetEnvPrefix("BT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
