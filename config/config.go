package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ecoswap/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Decision   DecisionConfig   `mapstructure:"decision"`
	Settings   SettingsConfig   `mapstructure:"settings"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Suppliers  SuppliersConfig  `mapstructure:"suppliers"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// ClassifierConfig holds the remote classification service configuration.
// An empty BaseURL runs the pipeline in local-only mode.
type ClassifierConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	InteractiveDeadline time.Duration `mapstructure:"interactive_deadline"`
	BackgroundDeadline  time.Duration `mapstructure:"background_deadline"`
	SupplierTimeout     time.Duration `mapstructure:"supplier_timeout"`
	RequestsPerSecond   float64       `mapstructure:"requests_per_second"`
	Burst               int           `mapstructure:"burst"`
	BreakerFailures     uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown     time.Duration `mapstructure:"breaker_cooldown"`
}

// CacheConfig holds verdict cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// DecisionConfig holds decision surface timings
type DecisionConfig struct {
	AutoDismiss     time.Duration `mapstructure:"auto_dismiss"`
	CloseTransition time.Duration `mapstructure:"close_transition"`
	MaxSuppliers    int           `mapstructure:"max_suppliers"`
}

// SettingsConfig holds the user-facing switches. These are hot-reloaded.
type SettingsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Mode    string `mapstructure:"mode"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// SuppliersConfig points at the supplier directory file
type SuppliersConfig struct {
	Directory string `mapstructure:"directory"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	cfg, _, err := LoadFile("")
	return cfg, err
}

// LoadFile loads configuration from an explicit file when path is set, or
// from the default search paths otherwise. The returned viper instance can
// be watched for changes.
func LoadFile(path string) (*Config, *viper.Viper, error) {
	if err := loadEnvFile(); err != nil {
		return nil, nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ecoswap/")
	}

	// Environment variable settings
	v.SetEnvPrefix("ECOSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional unless explicitly named
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Decode unmarshals and validates the current state of v.
func Decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Classifier defaults
	v.SetDefault("classifier.base_url", "")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.interactive_deadline", "1500ms")
	v.SetDefault("classifier.background_deadline", "8s")
	v.SetDefault("classifier.supplier_timeout", "10s")
	v.SetDefault("classifier.requests_per_second", 5)
	v.SetDefault("classifier.burst", 10)
	v.SetDefault("classifier.breaker_failures", 3)
	v.SetDefault("classifier.breaker_cooldown", "60s")

	// Cache defaults
	v.SetDefault("cache.ttl", "10m")

	// Decision defaults
	v.SetDefault("decision.auto_dismiss", "30s")
	v.SetDefault("decision.close_transition", "300ms")
	v.SetDefault("decision.max_suppliers", 2)

	// Settings defaults
	v.SetDefault("settings.enabled", true)
	v.SetDefault("settings.mode", string(domain.ModeAuto))

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("suppliers.directory", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	c := config.Classifier
	if c.InteractiveDeadline <= 0 {
		return fmt.Errorf("classifier interactive deadline must be positive, got: %s", c.InteractiveDeadline)
	}
	if c.BackgroundDeadline <= c.InteractiveDeadline {
		return fmt.Errorf("classifier background deadline (%s) must be longer than the interactive deadline (%s)",
			c.BackgroundDeadline, c.InteractiveDeadline)
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("classifier base URL must be an http(s) URL, got: %s", c.BaseURL)
		}
	}

	if !domain.ClassificationMode(config.Settings.Mode).Valid() {
		return fmt.Errorf("settings mode must be 'auto', 'local' or 'remote', got: %s", config.Settings.Mode)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	switch config.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

// loadEnvFile loads ./.env without overriding variables that are already
// set. A missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
