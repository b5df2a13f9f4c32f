package tasks

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ethpandaops/contrack/pkg/observability"
)

// QueueManager manages task queuing
type QueueManager struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

// NewQueueManager creates a new queue manager placing tasks on queue
func NewQueueManager(redisOpt *asynq.RedisClientOpt, queue string) *QueueManager {
	return &QueueManager{
		client:    asynq.NewClient(*redisOpt),
		inspector: asynq.NewInspector(*redisOpt),
		queue:     queue,
	}
}

// EnqueueImport enqueues an import batch and returns the task id
func (q *QueueManager) EnqueueImport(ctx context.Context, payload ImportPayload, opts ...asynq.Option) (string, error) {
	if payload.EnqueuedAt.IsZero() {
		payload.EnqueuedAt = time.Now().UTC()
	}

	task, err := NewImportTask(payload)
	if err != nil {
		return "", err
	}

	defaultOpts := []asynq.Option{
		asynq.TaskID(uuid.NewString()),
		asynq.Queue(q.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(5 * time.Minute),
		asynq.Retention(24 * time.Hour),
	}

	return q.enqueue(ctx, task, payload.Trigger, append(defaultOpts, opts...))
}

// EnqueueEvaluation enqueues an alert evaluation and returns the task id
func (q *QueueManager) EnqueueEvaluation(ctx context.Context, trigger string, opts ...asynq.Option) (string, error) {
	task, err := NewEvaluateTask(trigger)
	if err != nil {
		return "", err
	}

	defaultOpts := []asynq.Option{
		asynq.TaskID(uuid.NewString()),
		asynq.Queue(q.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Retention(time.Hour),
	}

	return q.enqueue(ctx, task, trigger, append(defaultOpts, opts...))
}

func (q *QueueManager) enqueue(ctx context.Context, task *asynq.Task, trigger string, opts []asynq.Option) (string, error) {
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		observability.RecordError("queue", "enqueue")

		return "", err
	}

	observability.RecordTaskEnqueued(task.Type(), trigger)

	return info.ID, nil
}

// TaskInfo looks up a task on the queue
func (q *QueueManager) TaskInfo(id string) (*asynq.TaskInfo, error) {
	info, err := q.inspector.GetTaskInfo(q.queue, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrTaskNotFound
		}

		return nil, err
	}

	return info, nil
}

// GetQueueStats returns queue statistics and refreshes the queue gauges. A
// queue nothing was enqueued on yet reports zero tasks.
func (q *QueueManager) GetQueueStats() (*asynq.QueueInfo, error) {
	queues, err := q.inspector.Queues()
	if err != nil {
		return nil, err
	}

	info := &asynq.QueueInfo{Queue: q.queue}

	if slices.Contains(queues, q.queue) {
		info, err = q.inspector.GetQueueInfo(q.queue)
		if err != nil {
			observability.RecordError("queue", "stats")

			return nil, err
		}
	}

	for state, n := range map[string]int{
		"pending":   info.Pending,
		"active":    info.Active,
		"scheduled": info.Scheduled,
		"retry":     info.Retry,
		"archived":  info.Archived,
		"completed": info.Completed,
	} {
		observability.RecordQueueDepth(q.queue, state, n)
	}

	return info, nil
}

// Close closes the queue manager
func (q *QueueManager) Close() error {
	if err := q.inspector.Close(); err != nil {
		return err
	}

	return q.client.Close()
}
