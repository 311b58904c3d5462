package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/wesleyorama2/strain/internal/logging"
	"github.com/wesleyorama2/strain/internal/stress"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the configuration.
//
// Returns nil if valid, or a *ValidationErrors containing every problem.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Workers < 1 {
		errs.Add("workers", fmt.Sprintf("must be at least 1, got %d", c.Workers))
	}
	if _, err := stress.ParseMethod(c.Method); err != nil {
		errs.Add("method", fmt.Sprintf("must be one of %s, got %q", stress.Methods(), c.Method))
	}
	if c.MemorySizeMB < 1 {
		errs.Add("memorySizeMB", fmt.Sprintf("must be at least 1, got %d", c.MemorySizeMB))
	}
	if _, err := stress.ParseIsolation(c.Isolation); err != nil {
		errs.Add("isolation", fmt.Sprintf("must be process or goroutine, got %q", c.Isolation))
	}

	if c.Pause < 0 {
		errs.Add("pause", "cannot be negative")
	}
	if c.PollInterval <= 0 {
		errs.Add("pollInterval", "must be positive")
	}
	if c.Duration < 0 {
		errs.Add("duration", "cannot be negative")
	}
	if c.StartDelay < 0 {
		errs.Add("startDelay", "cannot be negative")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs.Add("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs.Add("log.format", fmt.Sprintf("must be console or json, got %q", c.Log.Format))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// PoolConfig converts a validated configuration into pool settings.
func (c *Config) PoolConfig() (stress.Config, error) {
	method, err := stress.ParseMethod(c.Method)
	if err != nil {
		return stress.Config{}, err
	}
	isolation, err := stress.ParseIsolation(c.Isolation)
	if err != nil {
		return stress.Config{}, err
	}

	return stress.Config{
		Workers:      c.Workers,
		Method:       method,
		MemorySizeMB: c.MemorySizeMB,
		Isolation:    isolation,
		Pause:        time.Duration(c.Pause),
		PollInterval: time.Duration(c.PollInterval),
	}, nil
}

// LoggingOptions returns the logger settings of the configuration.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}
