// Package store persists contracts and their surrounding records in Redis.
package store

import (
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/ethpandaops/contrack/pkg/contracts"
)

var (
	// ErrContractNotFound is returned when a contract id is unknown
	ErrContractNotFound = errors.New("contract not found")
	// ErrUserNotFound is returned when a user email is unknown
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidStrategy is returned for an unknown import strategy
	ErrInvalidStrategy = errors.New("invalid import strategy, expected mesclar or sobrescrever")
	// ErrInvalidRole is returned for an unknown user role
	ErrInvalidRole = errors.New("invalid role, expected admin or gestor")
)

// ImportStrategy decides how an import batch meets the stored collection.
type ImportStrategy string

const (
	// StrategyMerge upserts by id and keeps contracts absent from the batch.
	StrategyMerge ImportStrategy = "mesclar"
	// StrategyOverwrite replaces the whole collection with the batch.
	StrategyOverwrite ImportStrategy = "sobrescrever"
)

// ParseImportStrategy accepts the persisted names plus merge/overwrite.
func ParseImportStrategy(s string) (ImportStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StrategyMerge), "merge":
		return StrategyMerge, nil
	case string(StrategyOverwrite), "overwrite":
		return StrategyOverwrite, nil
	}

	return "", ErrInvalidStrategy
}

// WriteResult counts what a write did to the stored collection.
type WriteResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// ImportLog records one bulk import.
type ImportLog struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"data_hora"`
	User      string         `json:"usuario"`
	FileName  string         `json:"nome_arquivo"`
	Strategy  ImportStrategy `json:"tipo_importacao"`
	Inserted  int            `json:"qt_inseridos"`
	Updated   int            `json:"qt_atualizados"`
	Ignored   int            `json:"qt_ignorados"`
	Errors    []string       `json:"log_erros,omitempty"`
}

// Role is a user's access level.
type Role string

const (
	// RoleAdmin may import, terminate contracts, change params and manage users.
	RoleAdmin Role = "admin"
	// RoleManager (gestor) has read access.
	RoleManager Role = "gestor"
)

// ParseRole normalizes a stored or submitted role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	}

	return "", ErrInvalidRole
}

// UserProfile is a known user and their role.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail lower-cases and trims an email used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AlertSnapshot is the last evaluation written by the alert task.
type AlertSnapshot struct {
	ID          string                `json:"id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Date        civil.Date            `json:"date"`
	Params      contracts.AlertConfig `json:"params"`
	Statistics  contracts.Statistics  `json:"statistics"`
	Alerts      []contracts.AlertItem `json:"alerts"`
}
