package bridge

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for a Bridge instance.
type Config struct {
	ManifestPaths []string // hcl files or directories

	LogFormat   string
	LogLevel    string
	HTTPPort    int
	WorkerCount int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error

	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LogFormat must be 'text' or 'json', got %q", cfg.LogFormat))
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LogLevel must be one of debug, info, warn, error, got %q", cfg.LogLevel))
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTPPort %d is out of range", cfg.HTTPPort))
	}
	if cfg.WorkerCount < 0 {
		errs = append(errs, fmt.Errorf("WorkerCount must not be negative, got %d", cfg.WorkerCount))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg.ManifestPaths = append([]string(nil), cfg.ManifestPaths...)
	return &cfg, nil
}
