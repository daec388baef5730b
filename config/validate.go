package config

import (
	"errors"
	"fmt"

	"github.com/Jumpaku/go-drivemap"
	"github.com/Jumpaku/go-drivemap/internal/logging"
)

// Validate checks all settings and returns every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.MaxLevels < drivemap.Unbounded {
		errs = append(errs, fmt.Errorf("max_levels: must be %d (unbounded) or greater, got %d", drivemap.Unbounded, cfg.MaxLevels))
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if cfg.ClientSecretsFile == "" {
		errs = append(errs, errors.New("client_secrets_file: must not be empty"))
	}
	if cfg.CredentialsFile == "" {
		errs = append(errs, errors.New("credentials_file: must not be empty"))
	}
	if _, err := cfg.Link.Permission(); err != nil {
		errs = append(errs, fmt.Errorf("link: %w", err))
	}

	return errors.Join(errs...)
}
