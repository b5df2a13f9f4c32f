// Package tasks defines the background jobs run through asynq
package tasks

import "errors"

const (
	// TypeImport imports a parsed contract batch
	TypeImport = "contracts:import"
	// TypeEvaluate evaluates alerts and stores a snapshot
	TypeEvaluate = "alerts:evaluate"

	// QueueContracts is the queue every task is placed on, before prefixing
	QueueContracts = "contracts"
)

// Triggers label where a task came from
const (
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
)

var (
	// ErrTaskNotFound is returned when a task id is unknown to the queue
	ErrTaskNotFound = errors.New("task not found")
)
