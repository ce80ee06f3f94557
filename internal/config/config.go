// Package config provides typed configuration for the gradecoach service,
// loaded from viper (config file, environment, flags).
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Limiter LimiterConfig `mapstructure:"limiter"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Grader  GraderConfig  `mapstructure:"grader"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LimiterConfig contains sliding-window admission settings.
//
// The defaults (one admission per hour) guard a metered completion call;
// this is a cost ceiling, not a fairness throttle.
type LimiterConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`

	// SweepInterval controls the stale-identity janitor. Zero disables it.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// OpenAIConfig contains the upstream completion provider settings.
// The API key is deliberately not validated at startup; a missing key
// surfaces as an upstream 401 on the first call.
type OpenAIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GraderConfig contains prompt-side settings.
type GraderConfig struct {
	// TonesFile optionally overrides the built-in tone instructions (YAML).
	TonesFile string `mapstructure:"tones_file"`
}

// CORSConfig contains the cross-origin policy. Exactly one origin is
// permitted; credentials are allowed from it.
type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics exporter port; metrics are also proxied
	// at /metrics on the main HTTP port.
	Port int `mapstructure:"port"`
}
