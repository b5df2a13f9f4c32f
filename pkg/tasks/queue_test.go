package tasks

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/contrack/internal/testutil"
	"github.com/ethpandaops/contrack/pkg/observability"
	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

func newTestQueueManager(t *testing.T) *QueueManager {
	t.Helper()

	mr := testutil.NewMiniredis(t)
	qm := NewQueueManager(&asynq.RedisClientOpt{Addr: mr.Addr()}, "test:contracts")

	t.Cleanup(func() {
		_ = qm.Close()
	})

	return qm
}

func TestQueueManager_EnqueueImport(t *testing.T) {
	qm := newTestQueueManager(t)
	ctx := context.Background()

	id, err := qm.EnqueueImport(ctx, ImportPayload{
		Request: tracker.ImportRequest{FileName: "x.xlsx", Strategy: store.StrategyMerge},
		Trigger: TriggerAPI,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	info, err := qm.TaskInfo(id)
	require.NoError(t, err)
	assert.Equal(t, TypeImport, info.Type)
	assert.Equal(t, "test:contracts", info.Queue)
	assert.Equal(t, asynq.TaskStatePending, info.State)
}

func TestQueueManager_EnqueueEvaluation(t *testing.T) {
	qm := newTestQueueManager(t)

	id, err := qm.EnqueueEvaluation(context.Background(), TriggerCLI)
	require.NoError(t, err)

	info, err := qm.TaskInfo(id)
	require.NoError(t, err)
	assert.Equal(t, TypeEvaluate, info.Type)
}

func TestQueueManager_TaskInfoNotFound(t *testing.T) {
	qm := newTestQueueManager(t)

	_, err := qm.TaskInfo("missing")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestQueueManager_GetQueueStats(t *testing.T) {
	qm := newTestQueueManager(t)

	info, err := qm.GetQueueStats()
	require.NoError(t, err)
	assert.Equal(t, "test:contracts", info.Queue)
	assert.Zero(t, info.Size)

	_, err = qm.EnqueueEvaluation(context.Background(), TriggerAPI)
	require.NoError(t, err)

	info, err = qm.GetQueueStats()
	require.NoError(t, err)
	assert.Equal(t, 1, info.Size)
	assert.Equal(t, 1, info.Pending)
	assert.InDelta(t, 1, promtestutil.ToFloat64(observability.QueueTasks.WithLabelValues("test:contracts", "pending")), 0)
}
