// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Loyalty  LoyaltyConfig  `mapstructure:"loyalty"`
	Vendor   VendorConfig   `mapstructure:"vendor"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Camunda  CamundaConfig  `mapstructure:"camunda"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// --- Inbound ---

type ServerConfig struct {
	Address         string  `mapstructure:"address"`
	ReadTimeout     int     `mapstructure:"read_timeout_ms"`
	WriteTimeout    int     `mapstructure:"write_timeout_ms"`
	RequestTimeout  int     `mapstructure:"request_timeout_ms"` // 0 disables the whole-pipeline deadline
	ShutdownTimeout int     `mapstructure:"shutdown_timeout_ms"`
	RateLimitRPS    float64 `mapstructure:"rate_limit_rps"` // 0 disables rate limiting
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
}

// --- Downstream services ---

type OAuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	TokenURL     string   `mapstructure:"token_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// Enabled reports whether outbound calls should carry a client-credentials token.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.TokenURL != ""
}

type LoyaltyConfig struct {
	BaseURL      string      `mapstructure:"base_url"`
	Timeout      int         `mapstructure:"timeout_ms"`
	MaxAttempts  int         `mapstructure:"max_attempts"`
	RetryBackoff int         `mapstructure:"retry_backoff_ms"`
	OAuth        OAuthConfig `mapstructure:"oauth"`
}

type VendorConfig struct {
	BaseURL string      `mapstructure:"base_url"`
	Timeout int         `mapstructure:"timeout_ms"`
	OAuth   OAuthConfig `mapstructure:"oauth"`
}

type PipelineConfig struct {
	RequireAcceptedTnC bool `mapstructure:"require_accepted_tnc"`
}

// --- Job worker ---

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout_ms"`
	RequestTimeout int    `mapstructure:"request_timeout_ms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
