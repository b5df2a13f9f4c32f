// Package tracker combines the contract store with the status, statistics,
// alert and filter derivations for one consistent "today".
package tracker

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host

	"github.com/ethpandaops/contrack/pkg/contracts"
)

var (
	// ErrTimezoneInvalid is returned when the configured timezone cannot be loaded
	ErrTimezoneInvalid = errors.New("invalid timezone")
)

// Config holds tracker settings
type Config struct {
	// Timezone decides which calendar day "today" is
	Timezone string `yaml:"timezone" default:"America/Sao_Paulo"`
	// MasterAdminEmail is always treated as admin, even without a stored profile
	MasterAdminEmail string `yaml:"masterAdminEmail"`
	// Alerts are the toggles used until params are saved
	Alerts contracts.AlertConfig `yaml:"alerts"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrTimezoneInvalid, c.Timezone, err)
	}

	return loc, nil
}
