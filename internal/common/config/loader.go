// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.ExpandEnv(v.GetString("app.environment"))
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return unmarshal(v)
}

// LoadFromFile reads a single config file plus environment overrides.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// LOYALTY_BASE_URL overrides loyalty.base_url, and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	applyDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Registering every key as a default also lets AutomaticEnv bind it.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "reward-management-api")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout_ms", 10000)
	v.SetDefault("server.write_timeout_ms", 30000)
	v.SetDefault("server.request_timeout_ms", 0)
	v.SetDefault("server.shutdown_timeout_ms", 15000)
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 0)

	v.SetDefault("loyalty.base_url", "")
	v.SetDefault("loyalty.timeout_ms", 5000)
	v.SetDefault("loyalty.max_attempts", 1)
	v.SetDefault("loyalty.retry_backoff_ms", 200)
	v.SetDefault("loyalty.oauth.client_id", "")
	v.SetDefault("loyalty.oauth.client_secret", "")
	v.SetDefault("loyalty.oauth.token_url", "")
	v.SetDefault("loyalty.oauth.scopes", []string{})

	v.SetDefault("vendor.base_url", "")
	v.SetDefault("vendor.timeout_ms", 5000)
	v.SetDefault("vendor.oauth.client_id", "")
	v.SetDefault("vendor.oauth.client_secret", "")
	v.SetDefault("vendor.oauth.token_url", "")
	v.SetDefault("vendor.oauth.scopes", []string{})

	v.SetDefault("pipeline.require_accepted_tnc", false)

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "localhost:26500")
	v.SetDefault("camunda.max_jobs_active", 5)
	v.SetDefault("camunda.timeout_ms", 30000)
	v.SetDefault("camunda.request_timeout_ms", 10000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values. Unset
// variables expand to "" so the overrides below can still apply.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the deployment's legacy variable names. The
// shared OAuth variables fill both services when they are not set per service.
func overrideEmptyConfig(cfg *Config) {
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Loyalty.BaseURL == "" {
		cfg.Loyalty.BaseURL = os.Getenv("LOYALTY_API_URL")
	}
	if cfg.Vendor.BaseURL == "" {
		cfg.Vendor.BaseURL = os.Getenv("VENDOR_MANAGEMENT_API_URL")
	}

	for _, oauth := range []*OAuthConfig{&cfg.Loyalty.OAuth, &cfg.Vendor.OAuth} {
		if oauth.ClientID == "" {
			oauth.ClientID = os.Getenv("CLIENT_ID")
		}
		if oauth.ClientSecret == "" {
			oauth.ClientSecret = os.Getenv("CLIENT_SECRET")
		}
		if oauth.TokenURL == "" {
			oauth.TokenURL = os.Getenv("TOKEN_URL")
		}
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if err := requireAbsoluteURL("loyalty.base_url", cfg.Loyalty.BaseURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("vendor.base_url", cfg.Vendor.BaseURL); err != nil {
		return err
	}
	if cfg.Loyalty.Timeout <= 0 {
		return fmt.Errorf("loyalty.timeout_ms must be positive")
	}
	if cfg.Vendor.Timeout <= 0 {
		return fmt.Errorf("vendor.timeout_ms must be positive")
	}
	if cfg.Loyalty.MaxAttempts < 1 {
		return fmt.Errorf("loyalty.max_attempts must be at least 1")
	}
	if cfg.Server.RateLimitRPS < 0 {
		return fmt.Errorf("server.rate_limit_rps must not be negative")
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	for name, oauth := range map[string]OAuthConfig{"loyalty": cfg.Loyalty.OAuth, "vendor": cfg.Vendor.OAuth} {
		if oauth.ClientID != "" && oauth.TokenURL != "" {
			if err := requireAbsoluteURL(name+".oauth.token_url", oauth.TokenURL); err != nil {
				return err
			}
		}
	}
	return nil
}

func requireAbsoluteURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
