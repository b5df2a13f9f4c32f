package worker

import (
	"errors"
	"time"
)

var (
	// ErrInvalidConcurrency is returned when concurrency is not positive
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	// ErrInvalidShutdownTimeout is returned when the shutdown timeout is negative
	ErrInvalidShutdownTimeout = errors.New("shutdownTimeout must not be negative")
)

// Config contains worker-specific settings
type Config struct {
	Enabled         bool `yaml:"enabled" default:"true"`
	Concurrency     int  `yaml:"concurrency" default:"4"`
	ShutdownTimeout int  `yaml:"shutdownTimeout" default:"30"` // seconds
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.ShutdownTimeout < 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// ShutdownDuration returns the shutdown timeout as a duration
func (c *Config) ShutdownDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}
