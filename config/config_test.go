package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"ECOSWAP_SERVER_PORT",
	"ECOSWAP_SERVER_ENVIRONMENT",
	"ECOSWAP_CLASSIFIER_BASE_URL",
	"ECOSWAP_CLASSIFIER_API_KEY",
	"ECOSWAP_CLASSIFIER_INTERACTIVE_DEADLINE",
	"ECOSWAP_CLASSIFIER_BACKGROUND_DEADLINE",
	"ECOSWAP_CACHE_TTL",
	"ECOSWAP_SETTINGS_ENABLED",
	"ECOSWAP_SETTINGS_MODE",
	"ECOSWAP_RATELIMIT_PER_IP",
	"ECOSWAP_LOG_FORMAT",
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, k := range envKeys {
			os.Unsetenv(k)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "chrome-extension://*" {
			t.Errorf("Server.AllowedOrigins = %v, want [chrome-extension://*]", cfg.Server.AllowedOrigins)
		}
		if cfg.Classifier.BaseURL != "" {
			t.Errorf("Classifier.BaseURL = %s, want empty (local-only)", cfg.Classifier.BaseURL)
		}
		if cfg.Classifier.InteractiveDeadline != 1500*time.Millisecond {
			t.Errorf("Classifier.InteractiveDeadline = %v, want 1.5s", cfg.Classifier.InteractiveDeadline)
		}
		if cfg.Classifier.BackgroundDeadline != 8*time.Second {
			t.Errorf("Classifier.BackgroundDeadline = %v, want 8s", cfg.Classifier.BackgroundDeadline)
		}
		if cfg.Classifier.BreakerFailures != 3 {
			t.Errorf("Classifier.BreakerFailures = %d, want 3", cfg.Classifier.BreakerFailures)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
		}
		if cfg.Decision.AutoDismiss != 30*time.Second {
			t.Errorf("Decision.AutoDismiss = %v, want 30s", cfg.Decision.AutoDismiss)
		}
		if cfg.Decision.MaxSuppliers != 2 {
			t.Errorf("Decision.MaxSuppliers = %d, want 2", cfg.Decision.MaxSuppliers)
		}
		if !cfg.Settings.Enabled {
			t.Error("Settings.Enabled = false, want true")
		}
		if cfg.Settings.Mode != "auto" {
			t.Errorf("Settings.Mode = %s, want auto", cfg.Settings.Mode)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("ECOSWAP_SERVER_PORT", "9090")
		os.Setenv("ECOSWAP_SERVER_ENVIRONMENT", "production")
		os.Setenv("ECOSWAP_CLASSIFIER_BASE_URL", "https://classifier.example.com")
		os.Setenv("ECOSWAP_CLASSIFIER_API_KEY", "custom-api-key")
		os.Setenv("ECOSWAP_CLASSIFIER_INTERACTIVE_DEADLINE", "800ms")
		os.Setenv("ECOSWAP_CLASSIFIER_BACKGROUND_DEADLINE", "4s")
		os.Setenv("ECOSWAP_CACHE_TTL", "1h")
		os.Setenv("ECOSWAP_SETTINGS_ENABLED", "false")
		os.Setenv("ECOSWAP_SETTINGS_MODE", "local")
		os.Setenv("ECOSWAP_RATELIMIT_PER_IP", "200")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Classifier.BaseURL != "https://classifier.example.com" {
			t.Errorf("Classifier.BaseURL = %s, want https://classifier.example.com", cfg.Classifier.BaseURL)
		}
		if cfg.Classifier.APIKey != "custom-api-key" {
			t.Errorf("Classifier.APIKey = %s, want custom-api-key", cfg.Classifier.APIKey)
		}
		if cfg.Classifier.InteractiveDeadline != 800*time.Millisecond {
			t.Errorf("Classifier.InteractiveDeadline = %v, want 800ms", cfg.Classifier.InteractiveDeadline)
		}
		if cfg.Classifier.BackgroundDeadline != 4*time.Second {
			t.Errorf("Classifier.BackgroundDeadline = %v, want 4s", cfg.Classifier.BackgroundDeadline)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Settings.Enabled {
			t.Error("Settings.Enabled = true, want false")
		}
		if cfg.Settings.Mode != "local" {
			t.Errorf("Settings.Mode = %s, want local", cfg.Settings.Mode)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation when deadlines are equal", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("ECOSWAP_CLASSIFIER_INTERACTIVE_DEADLINE", "2s")
		os.Setenv("ECOSWAP_CLASSIFIER_BACKGROUND_DEADLINE", "2s")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for equal deadlines")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: classifier background deadline") {
			t.Errorf("Load() error = %v, want background deadline error", err)
		}
	})

	t.Run("fails validation for invalid mode", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("ECOSWAP_SETTINGS_MODE", "psychic")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid mode")
		}
	})

	t.Run("fails validation for non-http base URL", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("ECOSWAP_CLASSIFIER_BASE_URL", "ftp://classifier.example.com")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for ftp base URL")
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads an explicit yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ecoswap.yaml")
		content := `
classifier:
  base_url: http://localhost:9000
  interactive_deadline: 1s
  background_deadline: 3s
decision:
  auto_dismiss: 45s
settings:
  mode: remote
suppliers:
  directory: ./suppliers.yaml
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, v, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v, want nil", err)
		}
		if v == nil {
			t.Fatal("LoadFile() returned nil viper")
		}
		if cfg.Classifier.BaseURL != "http://localhost:9000" {
			t.Errorf("Classifier.BaseURL = %s", cfg.Classifier.BaseURL)
		}
		if cfg.Classifier.InteractiveDeadline != time.Second {
			t.Errorf("Classifier.InteractiveDeadline = %v, want 1s", cfg.Classifier.InteractiveDeadline)
		}
		if cfg.Decision.AutoDismiss != 45*time.Second {
			t.Errorf("Decision.AutoDismiss = %v, want 45s", cfg.Decision.AutoDismiss)
		}
		if cfg.Settings.Mode != "remote" {
			t.Errorf("Settings.Mode = %s, want remote", cfg.Settings.Mode)
		}
		if cfg.Suppliers.Directory != "./suppliers.yaml" {
			t.Errorf("Suppliers.Directory = %s", cfg.Suppliers.Directory)
		}
		// Untouched keys keep their defaults
		if cfg.Decision.CloseTransition != 300*time.Millisecond {
			t.Errorf("Decision.CloseTransition = %v, want 300ms", cfg.Decision.CloseTransition)
		}
	})

	t.Run("fails when an explicit file is missing", func(t *testing.T) {
		if _, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("LoadFile() error = nil, want error for missing file")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file
		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		// Clear any existing values
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		// Cleanup
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("skips empty lines and comments", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file with various formats
		envContent := `
# This is a comment
   # This is also a comment

TEST_SKIP_1=value1

TEST_SKIP_2=value2
# TEST_COMMENTED=should_not_load
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
		os.Unsetenv("TEST_COMMENTED")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_SKIP_1") != "value1" {
			t.Errorf("TEST_SKIP_1 not loaded correctly")
		}
		if os.Getenv("TEST_SKIP_2") != "value2" {
			t.Errorf("TEST_SKIP_2 not loaded correctly")
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Set existing env var
		os.Setenv("TEST_OVERRIDE", "existing-value")

		// Create .env file that tries to override
		envContent := "TEST_OVERRIDE=new-value"
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		// Should still have original value
		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})

	t.Run("parses quoted and exported values", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := "export TEST_EXPORTED=plain\n" +
			"TEST_QUOTED=\"value with # hash\"\n" +
			"TEST_INLINE=bare # trailing comment\n"
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		for _, k := range []string{"TEST_EXPORTED", "TEST_QUOTED", "TEST_INLINE"} {
			os.Unsetenv(k)
			defer os.Unsetenv(k)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		want := map[string]string{
			"TEST_EXPORTED": "plain",
			"TEST_QUOTED":   "value with # hash",
			"TEST_INLINE":   "bare",
		}
		for k, v := range want {
			if got := os.Getenv(k); got != v {
				t.Errorf("%s = %q, want %q", k, got, v)
			}
		}
	})
}

func validConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			InteractiveDeadline: 1500 * time.Millisecond,
			BackgroundDeadline:  8 * time.Second,
		},
		Cache:    CacheConfig{TTL: 10 * time.Minute},
		Settings: SettingsConfig{Enabled: true, Mode: "auto"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with defaults", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails when background deadline is shorter", func(t *testing.T) {
		cfg := validConfig()
		cfg.Classifier.BackgroundDeadline = time.Second

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for short background deadline")
		}
	})

	t.Run("fails for zero interactive deadline", func(t *testing.T) {
		cfg := validConfig()
		cfg.Classifier.InteractiveDeadline = 0

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero interactive deadline")
		}
	})

	t.Run("validates http base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Classifier.BaseURL = "http://localhost:8080"

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for base URL without host", func(t *testing.T) {
		cfg := validConfig()
		cfg.Classifier.BaseURL = "https://"

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for hostless URL")
		}
	})

	t.Run("fails for unknown log format", func(t *testing.T) {
		cfg := validConfig()
		cfg.Log.Format = "xml"

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for xml log format")
		}
	})
}
