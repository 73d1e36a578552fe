// Package config provides unified configuration for the strom bridge.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (STROM_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the strom bridge.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Engine        EngineConfig        `yaml:"engine"`
	Conversations ConversationsConfig `yaml:"conversations"`
	Media         MediaConfig         `yaml:"media"`
	Cookies       CookiesConfig       `yaml:"cookies"`
	Diagnostics   DiagnosticsConfig   `yaml:"diagnostics"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 0 (streams run unbounded)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// EngineConfig holds the chat generation backend settings.
type EngineConfig struct {
	BaseURL      string        `yaml:"base_url"`     // required
	APIKey       string        `yaml:"api_key"`      // optional server-side credential
	APIKeyFile   string        `yaml:"api_key_file"` // _file variant for api_key
	DefaultModel string        `yaml:"default_model"`
	Timeout      time.Duration `yaml:"timeout"` // non-streaming calls, default: 120s
}

// ConversationsConfig holds continuation state registry settings.
type ConversationsConfig struct {
	MaxEntries int `yaml:"max_entries"` // default: 10000, 0 = unbounded
}

// MediaConfig holds artifact materialization settings.
type MediaConfig struct {
	Dir           string        `yaml:"dir"`            // default: "./generated_images"
	MaxConcurrent int           `yaml:"max_concurrent"` // default: 4, 0 = unbounded
	MaxBytes      int64         `yaml:"max_bytes"`      // default: 50 MiB
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`  // default: 120s
}

// CookiesConfig holds the cookie store settings.
type CookiesConfig struct {
	Dir     string            `yaml:"dir"`     // default: "./har_and_cookies"
	Aliases map[string]string `yaml:"aliases"` // provider -> cookie domain
}

// DiagnosticsConfig controls the per-stream diagnostic relay.
type DiagnosticsConfig struct {
	StreamLogs bool `yaml:"stream_logs"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none", "apikey", "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // entries for type=apikey
	JWT     JWTConfig      `yaml:"jwt"`      // settings for type=jwt
}

// APIKeyConfig describes a single accepted API key.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
}

// JWTConfig holds HMAC JWT verification settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`      // optional expected iss
	Audience   string `yaml:"audience"`    // optional expected aud
}

// ObservabilityConfig holds monitoring settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds slog handler settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			Timeout: 120 * time.Second,
		},
		Conversations: ConversationsConfig{
			MaxEntries: 10000,
		},
		Media: MediaConfig{
			Dir:           "./generated_images",
			MaxConcurrent: 4,
			MaxBytes:      50 << 20,
			FetchTimeout:  120 * time.Second,
		},
		Cookies: CookiesConfig{
			Dir: "./har_and_cookies",
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
