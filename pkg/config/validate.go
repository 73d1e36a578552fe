package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Engine.BaseURL == "" {
		errs = append(errs, fmt.Errorf("engine.base_url is required"))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	if c.Conversations.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("conversations.max_entries must be >= 0, got %d", c.Conversations.MaxEntries))
	}

	if c.Media.Dir == "" {
		errs = append(errs, fmt.Errorf("media.dir is required"))
	}
	if c.Media.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("media.max_concurrent must be >= 0, got %d", c.Media.MaxConcurrent))
	}
	if c.Media.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("media.max_bytes must be >= 0, got %d", c.Media.MaxBytes))
	}

	switch c.Auth.Type {
	case "none", "apikey", "jwt":
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}
	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
