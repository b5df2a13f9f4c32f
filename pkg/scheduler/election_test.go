package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLeaderKey = "test:" + LeaderKey

func newTestElector(t *testing.T, mr *miniredis.Miniredis) *elector {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	e, ok := NewLeaderElector(log, &redis.Options{Addr: mr.Addr()}, testLeaderKey).(*elector)
	require.True(t, ok)

	return e
}

func TestElector_Lease(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	first := newTestElector(t, mr)
	second := newTestElector(t, mr)

	defer first.Stop()  //nolint:errcheck // test cleanup
	defer second.Stop() //nolint:errcheck // test cleanup

	assert.True(t, first.tryAcquire(ctx))
	assert.False(t, second.tryAcquire(ctx))

	owner, err := mr.Get(testLeaderKey)
	require.NoError(t, err)
	assert.Equal(t, first.instanceID, owner)

	mr.FastForward(leaseTTL / 2)
	assert.True(t, first.tryAcquire(ctx), "owner renews")
	assert.Equal(t, leaseTTL, mr.TTL(testLeaderKey))

	mr.FastForward(leaseTTL + time.Second)
	assert.True(t, second.tryAcquire(ctx), "expired lease is free")
	assert.False(t, first.tryAcquire(ctx))
}

func TestElector_ReleaseOnlyOwnLock(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	e := newTestElector(t, mr)

	require.NoError(t, mr.Set(testLeaderKey, "someone-else"))
	e.setLeader(true)
	e.release(ctx)

	assert.False(t, e.IsLeader())
	assert.True(t, mr.Exists(testLeaderKey))

	require.NoError(t, e.Stop())
}

func TestElector_StartPromotes(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e := newTestElector(t, mr)
	require.NoError(t, e.Start(ctx))

	require.NoError(t, e.WaitForLeadership(ctx))
	assert.True(t, e.IsLeader())

	require.NoError(t, e.Stop())
	assert.False(t, mr.Exists(testLeaderKey), "stop releases the lock")
	require.NoError(t, e.Stop(), "stop is idempotent")
}

func TestElector_OneLeader(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := newTestElector(t, mr)
	second := newTestElector(t, mr)

	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))

	defer first.Stop()  //nolint:errcheck // test cleanup
	defer second.Stop() //nolint:errcheck // test cleanup

	assert.Eventually(t, func() bool {
		return first.IsLeader() != second.IsLeader()
	}, 2*time.Second, 50*time.Millisecond)
}
