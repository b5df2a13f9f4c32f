package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/contrack/pkg/observability"
	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

// TaskHandler handles task execution
type TaskHandler struct {
	tracker tracker.Service
	log     logrus.FieldLogger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(log logrus.FieldLogger, svc tracker.Service) *TaskHandler {
	return &TaskHandler{
		tracker: svc,
		log:     log.WithField("component", "task-handler"),
	}
}

// HandleImport handles import tasks
func (h *TaskHandler) HandleImport(ctx context.Context, t *asynq.Task) error {
	startTime := time.Now()

	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		observability.RecordError("task-handler", "unmarshal_error")
		observability.RecordTaskComplete(TypeImport, "failed", time.Since(startTime).Seconds())

		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.log.WithFields(logrus.Fields{
		"file":     payload.Request.FileName,
		"strategy": payload.Request.Strategy,
		"rows":     len(payload.Request.Rows),
	})
	log.Info("Starting import task")

	result, err := h.tracker.Import(ctx, payload.Request)
	if err != nil {
		observability.RecordTaskComplete(TypeImport, "failed", time.Since(startTime).Seconds())
		log.WithError(err).Error("Import task failed")

		// A bad batch will not get better on retry
		if errors.Is(err, tracker.ErrNoValidRows) || errors.Is(err, store.ErrInvalidStrategy) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		return err
	}

	writeResult(t, result)
	observability.RecordTaskComplete(TypeImport, "success", time.Since(startTime).Seconds())

	log.WithFields(logrus.Fields{
		"import_id": result.ID,
		"duration":  time.Since(startTime),
	}).Info("Import task completed")

	return nil
}

// HandleEvaluate handles alert evaluation tasks
func (h *TaskHandler) HandleEvaluate(ctx context.Context, t *asynq.Task) error {
	startTime := time.Now()

	var payload EvaluatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		observability.RecordError("task-handler", "unmarshal_error")
		observability.RecordTaskComplete(TypeEvaluate, "failed", time.Since(startTime).Seconds())

		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	snapshot, err := h.tracker.Evaluate(ctx)
	if err != nil {
		observability.RecordTaskComplete(TypeEvaluate, "failed", time.Since(startTime).Seconds())

		return fmt.Errorf("evaluation error: %w", err)
	}

	writeResult(t, snapshot)
	observability.RecordTaskComplete(TypeEvaluate, "success", time.Since(startTime).Seconds())

	h.log.WithFields(logrus.Fields{
		"trigger":  payload.Trigger,
		"alerts":   len(snapshot.Alerts),
		"duration": time.Since(startTime),
	}).Debug("Evaluation task completed")

	return nil
}

// writeResult stores v as the task result when the task runs inside a server
func writeResult(t *asynq.Task, v interface{}) {
	w := t.ResultWriter()
	if w == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	_, _ = w.Write(data)
}

// Routes returns the task handler routes for Asynq
func (h *TaskHandler) Routes() map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		TypeImport:   h.HandleImport,
		TypeEvaluate: h.HandleEvaluate,
	}
}
