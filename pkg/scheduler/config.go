// Package scheduler enqueues periodic alert evaluations
package scheduler

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

var (
	// ErrInvalidSchedule is returned when the alerts schedule cannot be parsed
	ErrInvalidSchedule = errors.New("invalid alerts schedule")
)

// Config defines scheduler configuration
type Config struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// AlertsSchedule is a cron spec or descriptor such as "@every 1h"
	AlertsSchedule string `yaml:"alertsSchedule" default:"@every 1h"`
	// EvaluateOnPromotion enqueues one evaluation as soon as this instance becomes leader
	EvaluateOnPromotion bool `yaml:"evaluateOnPromotion" default:"true"`
}

// Validate checks if the scheduler configuration is valid
func (c *Config) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.AlertsSchedule); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, c.AlertsSchedule, err)
	}

	return nil
}
