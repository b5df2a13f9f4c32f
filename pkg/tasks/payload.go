package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ethpandaops/contrack/pkg/tracker"
)

// ImportPayload carries an import batch to a worker
type ImportPayload struct {
	Request    tracker.ImportRequest `json:"request"`
	Trigger    string                `json:"trigger"`
	EnqueuedAt time.Time             `json:"enqueued_at"`
}

// EvaluatePayload asks a worker to evaluate alerts
type EvaluatePayload struct {
	Trigger    string    `json:"trigger"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewImportTask builds an import task
func NewImportTask(payload ImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import payload: %w", err)
	}

	return asynq.NewTask(TypeImport, data), nil
}

// NewEvaluateTask builds an alert evaluation task
func NewEvaluateTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(EvaluatePayload{Trigger: trigger, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluate payload: %w", err)
	}

	return asynq.NewTask(TypeEvaluate, data), nil
}
