package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// LeaderKey is the lock key, before prefixing
	LeaderKey = "scheduler:leader"

	leaseTTL      = 10 * time.Second
	renewInterval = 3 * time.Second
)

var (
	// ErrElectorStopped is returned when the elector is stopped while waiting for leadership
	ErrElectorStopped = errors.New("elector stopped while waiting for leadership")
)

// Lease scripts only touch the lock while this instance owns it.
//
//nolint:gochecknoglobals // compiled once
var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// LeaderElector decides which instance registers the periodic tasks
type LeaderElector interface {
	Start(ctx context.Context) error
	Stop() error
	IsLeader() bool
	WaitForLeadership(ctx context.Context) error
	PromotedChan() <-chan struct{}
	DemotedChan() <-chan struct{}
}

type elector struct {
	log        logrus.FieldLogger
	redis      *redis.Client
	instanceID string
	leaderKey  string

	isLeader bool
	mu       sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	promoted chan struct{}
	demoted  chan struct{}
}

// NewLeaderElector creates a leader elector competing for leaderKey
func NewLeaderElector(log logrus.FieldLogger, redisOpt *redis.Options, leaderKey string) LeaderElector {
	return &elector{
		log:        log.WithField("component", "election"),
		redis:      redis.NewClient(redisOpt),
		instanceID: uuid.NewString(),
		leaderKey:  leaderKey,
		done:       make(chan struct{}),
		promoted:   make(chan struct{}, 1),
		demoted:    make(chan struct{}, 1),
	}
}

func (e *elector) Start(ctx context.Context) error {
	e.log.WithField("instance_id", e.instanceID).Info("Starting leader election")

	e.wg.Add(1)
	go e.run(ctx)

	return nil
}

func (e *elector) Stop() error {
	e.stopOnce.Do(func() {
		close(e.done)
		e.wg.Wait()

		e.release(context.Background())

		if err := e.redis.Close(); err != nil {
			e.log.WithError(err).Warn("Failed to close Redis client")
		}
	})

	return nil
}

func (e *elector) run(ctx context.Context) {
	defer e.wg.Done()

	e.step(ctx)

	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.step(ctx)
		}
	}
}

// step acquires or renews the lease and signals transitions
func (e *elector) step(ctx context.Context) {
	wasLeader := e.IsLeader()
	held := e.tryAcquire(ctx)

	switch {
	case held && !wasLeader:
		e.setLeader(true)
		e.log.WithField("instance_id", e.instanceID).Info("Promoted to leader")
		notify(e.promoted)
	case !held && wasLeader:
		e.setLeader(false)
		e.log.WithField("instance_id", e.instanceID).Info("Demoted from leader")
		notify(e.demoted)
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// tryAcquire takes a free lock or extends one this instance already holds
func (e *elector) tryAcquire(ctx context.Context) bool {
	acquired, err := e.redis.SetNX(ctx, e.leaderKey, e.instanceID, leaseTTL).Result()
	if err != nil {
		e.log.WithError(err).Debug("Failed to acquire leader lock")
		return false
	}

	if acquired {
		return true
	}

	renewed, err := renewScript.Run(ctx, e.redis, []string{e.leaderKey}, e.instanceID, leaseTTL.Milliseconds()).Int()
	if err != nil {
		e.log.WithError(err).Warn("Failed to renew leader lease")
		return false
	}

	return renewed == 1
}

func (e *elector) release(ctx context.Context) {
	if !e.IsLeader() {
		return
	}

	if err := releaseScript.Run(ctx, e.redis, []string{e.leaderKey}, e.instanceID).Err(); err != nil {
		e.log.WithError(err).Warn("Failed to release leader lock")
	}

	e.setLeader(false)
}

func (e *elector) setLeader(isLeader bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isLeader = isLeader
}

func (e *elector) IsLeader() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isLeader
}

func (e *elector) WaitForLeadership(ctx context.Context) error {
	if e.IsLeader() {
		return nil
	}

	select {
	case <-e.promoted:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for leadership: %w", ctx.Err())
	case <-e.done:
		return ErrElectorStopped
	}
}

func (e *elector) PromotedChan() <-chan struct{} {
	return e.promoted
}

func (e *elector) DemotedChan() <-chan struct{} {
	return e.demoted
}

var _ LeaderElector = (*elector)(nil)
