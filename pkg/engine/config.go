// Package engine wires the contrack services into one process
package engine

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/contrack/pkg/api"
	"github.com/ethpandaops/contrack/pkg/redis"
	"github.com/ethpandaops/contrack/pkg/scheduler"
	"github.com/ethpandaops/contrack/pkg/tracker"
	"github.com/ethpandaops/contrack/pkg/worker"
)

var (
	// ErrInvalidLogLevel is returned when the logging level is not a logrus level
	ErrInvalidLogLevel = errors.New("invalid logging level")
	// ErrNothingEnabled is returned when the api, worker and scheduler are all disabled
	ErrNothingEnabled = errors.New("at least one of api, worker or scheduler must be enabled")
)

// Config represents the complete engine configuration
type Config struct {
	// Core settings
	Logging         string `yaml:"logging" default:"info" validate:"oneof=panic fatal warn info debug trace"`
	MetricsAddr     string `yaml:"metricsAddr" default:":9091"`
	HealthCheckAddr string `yaml:"healthCheckAddr"`
	PProfAddr       string `yaml:"pprofAddr"`

	// Timezone, master admin and default alert toggles sit at the top level
	Tracker tracker.Config `yaml:",inline"`

	// Dependencies
	Redis redis.Config `yaml:"redis"`

	// Services
	API       api.Config       `yaml:"api"`
	Worker    worker.Config    `yaml:"worker"`
	Scheduler scheduler.Config `yaml:"scheduler"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Logging {
	case "panic", "fatal", "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging)
	}

	if err := c.Redis.Validate(); err != nil {
		return err
	}

	if err := c.Tracker.Validate(); err != nil {
		return err
	}

	if err := c.API.Validate(); err != nil {
		return err
	}

	if c.Worker.Enabled {
		if err := c.Worker.Validate(); err != nil {
			return err
		}
	}

	if c.Scheduler.Enabled {
		if err := c.Scheduler.Validate(); err != nil {
			return err
		}
	}

	if !c.API.Enabled && !c.Worker.Enabled && !c.Scheduler.Enabled {
		return ErrNothingEnabled
	}

	return nil
}
