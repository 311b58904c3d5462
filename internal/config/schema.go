// Package config loads and validates strain run configuration.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config is the configuration of a stress run.
//
// Example YAML:
//
//	workers: 8
//	method: memory
//	memorySizeMB: 256
//	isolation: process
//	pause: 100ms
//	duration: 10m
//	log:
//	  level: debug
//	  format: json
type Config struct {
	// Workers is the number of workers to start
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Method is "cpu" or "memory"
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// MemorySizeMB is the block allocated by every memory iteration
	MemorySizeMB int `json:"memorySizeMB,omitempty" yaml:"memorySizeMB,omitempty"`

	// Isolation is "process" or "goroutine"
	Isolation string `json:"isolation,omitempty" yaml:"isolation,omitempty"`

	// Pause is the sleep between two iterations of a worker
	Pause Duration `json:"pause,omitempty" yaml:"pause,omitempty"`

	// PollInterval bounds each wait of the monitor loop
	PollInterval Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`

	// Duration ends the run after this long (0 runs until interrupted)
	Duration Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// StartDelay waits this long before starting workers
	StartDelay Duration `json:"startDelay,omitempty" yaml:"startDelay,omitempty"`

	// Log configures logging
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is console or json
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Workers:      10,
		Method:       "cpu",
		MemorySizeMB: 100,
		Isolation:    "process",
		Pause:        Duration(100 * time.Millisecond),
		PollInterval: Duration(time.Second),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyDefaults fills unset fields from Default.
func ApplyDefaults(cfg *Config) {
	def := Default()

	if cfg.Workers == 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if cfg.MemorySizeMB == 0 {
		cfg.MemorySizeMB = def.MemorySizeMB
	}
	if cfg.Isolation == "" {
		cfg.Isolation = def.Isolation
	}
	cfg.Pause = Duration(cfg.Pause.GetDuration(time.Duration(def.Pause)))
	cfg.PollInterval = Duration(cfg.PollInterval.GetDuration(time.Duration(def.PollInterval)))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML strings.
type Duration time.Duration

// ParseDurationString parses a duration such as "30s" or "2m". A bare
// integer is taken as seconds and the empty string as zero.
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		*d = 0
		return nil
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
