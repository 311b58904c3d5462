package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/strain/internal/stress"
)

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers"},
		{"unknown method", func(c *Config) { c.Method = "disk" }, "method"},
		{"zero memory", func(c *Config) { c.MemorySizeMB = 0 }, "memorySizeMB"},
		{"unknown isolation", func(c *Config) { c.Isolation = "thread" }, "isolation"},
		{"negative pause", func(c *Config) { c.Pause = Duration(-time.Second) }, "pause"},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "pollInterval"},
		{"negative duration", func(c *Config) { c.Duration = Duration(-time.Second) }, "duration"},
		{"negative start delay", func(c *Config) { c.StartDelay = Duration(-time.Second) }, "startDelay"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs.Errors, 1)
			assert.Equal(t, tt.field, verrs.Errors[0].Field)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	cfg.Method = "gpu"
	cfg.MemorySizeMB = -1

	err := cfg.Validate()
	require.Error(t, err)

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.Errors, 3)
	assert.Contains(t, err.Error(), "3 validation errors")
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "validation error on field 'workers': bad",
		(&ValidationError{Field: "workers", Message: "bad"}).Error())
	assert.Equal(t, "validation error: bad", (&ValidationError{Message: "bad"}).Error())
	assert.Equal(t, "no validation errors", (&ValidationErrors{}).Error())
}

func TestPoolConfig(t *testing.T) {
	cfg := Default()
	cfg.Workers = 6
	cfg.Method = "Memory"
	cfg.Isolation = "goroutine"
	cfg.Pause = Duration(10 * time.Millisecond)

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)

	assert.Equal(t, stress.Config{
		Workers:      6,
		Method:       stress.MethodMemory,
		MemorySizeMB: 100,
		Isolation:    stress.IsolationGoroutine,
		Pause:        10 * time.Millisecond,
		PollInterval: time.Second,
	}, pc)
	assert.NoError(t, pc.Validate())
}

func TestPoolConfig_UnknownMethod(t *testing.T) {
	cfg := Default()
	cfg.Method = "disk"

	_, err := cfg.PoolConfig()
	assert.ErrorIs(t, err, stress.ErrUnknownMethod)
}

func TestLoggingOptions(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	assert.Equal(t, "json", cfg.LoggingOptions().Format)
	assert.Equal(t, "info", cfg.LoggingOptions().Level)
}
