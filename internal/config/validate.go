package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// Interpreter is required
	if strings.TrimSpace(cfg.Interpreter) == "" {
		errs = append(errs, ValidationError{
			Field:   "interpreter",
			Message: "must not be empty",
		})
	}

	// Suffix must not contain a path separator
	if strings.ContainsAny(cfg.Suffix, `/\`) {
		errs = append(errs, ValidationError{
			Field:   "suffix",
			Message: fmt.Sprintf("must not contain a path separator (got %q)", cfg.Suffix),
		})
	}

	// Temp dir must exist if given
	if cfg.TempDir != "" {
		if err := validateDir(cfg.TempDir); err != nil {
			errs = append(errs, ValidationError{
				Field:   "temp_dir",
				Message: err.Error(),
			})
		}
	}

	// Environment entries must be KEY=VALUE
	for _, kv := range cfg.Env {
		if err := validateEnv(kv); err != nil {
			errs = append(errs, ValidationError{
				Field:   "env",
				Message: err.Error(),
			})
		}
	}

	// Durations
	if cfg.TerminateGrace < 0 {
		errs = append(errs, ValidationError{
			Field:   "terminate_grace",
			Message: "must not be negative",
		})
	}
	if cfg.SyntaxTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "syntax_timeout",
			Message: "must be positive",
		})
	}
	if cfg.DrainTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "drain_timeout",
			Message: "must be positive",
		})
	}

	// Headless and check modes need a file
	if cfg.Headless && cfg.Check {
		errs = append(errs, ValidationError{
			Field:   "mode",
			Message: "-headless and -check are mutually exclusive",
		})
	}
	if (cfg.Headless || cfg.Check) && cfg.File == "" {
		errs = append(errs, ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("a source file is required with -%s", cfg.Mode()),
		})
	}

	// History must hold at least one run
	if cfg.HistorySize < 1 {
		errs = append(errs, ValidationError{
			Field:   "history_size",
			Message: "must be at least 1",
		})
	}

	// Metrics address must be host:port
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics_addr",
				Message: fmt.Sprintf("must be host:port (got %q)", cfg.MetricsAddr),
			})
		}
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateDir checks that path exists and is a directory.
func validateDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot use %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// validateEnv checks a KEY=VALUE entry.
func validateEnv(kv string) error {
	key, _, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("%q is not KEY=VALUE", kv)
	}
	if key == "" {
		return fmt.Errorf("%q has an empty key", kv)
	}
	return nil
}
