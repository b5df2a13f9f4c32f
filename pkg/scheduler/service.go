package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/contrack/pkg/observability"
	"github.com/ethpandaops/contrack/pkg/tasks"
)

// Service defines the public interface for the scheduler
type Service interface {
	// Start joins leader election; the leader registers the periodic tasks
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler service
	Stop() error
}

// Enqueuer places an evaluation on the queue right away
type Enqueuer interface {
	EnqueueEvaluation(ctx context.Context, trigger string, opts ...asynq.Option) (string, error)
}

type service struct {
	log logrus.FieldLogger
	cfg *Config

	done chan struct{}
	wg   sync.WaitGroup

	redisOpt *asynq.RedisClientOpt
	queue    string
	location *time.Location
	elector  LeaderElector
	enqueuer Enqueuer

	mu        sync.Mutex
	scheduler *asynq.Scheduler
}

// NewService creates a new scheduler service
func NewService(
	log logrus.FieldLogger,
	cfg *Config,
	redisOpt *asynq.RedisClientOpt,
	queue string,
	location *time.Location,
	elector LeaderElector,
	enqueuer Enqueuer,
) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &service{
		log:      log.WithField("service", "scheduler"),
		cfg:      cfg,
		done:     make(chan struct{}),
		redisOpt: redisOpt,
		queue:    queue,
		location: location,
		elector:  elector,
		enqueuer: enqueuer,
	}, nil
}

func (s *service) Start(ctx context.Context) error {
	if err := s.elector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start leader election: %w", err)
	}

	s.wg.Add(1)
	go s.handleLeaderElection(ctx)

	s.log.WithField("schedule", s.cfg.AlertsSchedule).Info("Scheduler service started (participating in leader election)")

	return nil
}

func (s *service) Stop() error {
	close(s.done)

	if err := s.elector.Stop(); err != nil {
		s.log.WithError(err).Warn("Failed to stop leader elector")
	}

	s.wg.Wait()
	s.stopScheduler()

	s.log.Info("Scheduler service stopped successfully")

	return nil
}

func (s *service) handleLeaderElection(ctx context.Context) {
	defer s.wg.Done()

	promoted := s.elector.PromotedChan()
	demoted := s.elector.DemotedChan()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-promoted:
			s.log.Info("Promoted to scheduler leader")

			if s.cfg.EvaluateOnPromotion {
				if _, err := s.enqueuer.EnqueueEvaluation(ctx, tasks.TriggerSchedule); err != nil {
					s.log.WithError(err).Error("Failed to enqueue initial evaluation")
				}
			}

			if err := s.startScheduler(); err != nil {
				observability.RecordError("scheduler", "start")
				s.log.WithError(err).Error("Failed to start scheduler")
			}
		case <-demoted:
			s.log.Info("Demoted from scheduler leader")
			s.stopScheduler()
		}
	}
}

// startScheduler registers the periodic evaluation. A shut down asynq
// scheduler cannot be restarted, so every promotion builds a new one.
func (s *service) startScheduler() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return nil
	}

	sched := asynq.NewScheduler(*s.redisOpt, &asynq.SchedulerOpts{
		Location: s.location,
		Logger:   s.log,
		LogLevel: asynq.WarnLevel,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				observability.RecordError("scheduler", "enqueue")
				s.log.WithError(err).Warn("Failed to enqueue scheduled evaluation")

				return
			}

			observability.RecordTaskEnqueued(info.Type, tasks.TriggerSchedule)
		},
	})

	task, err := tasks.NewEvaluateTask(tasks.TriggerSchedule)
	if err != nil {
		return err
	}

	entryID, err := sched.Register(s.cfg.AlertsSchedule, task,
		asynq.Queue(s.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to register alerts schedule: %w", err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.scheduler = sched

	s.log.WithFields(logrus.Fields{
		"entry_id": entryID,
		"schedule": s.cfg.AlertsSchedule,
		"queue":    s.queue,
	}).Info("Registered alerts schedule")

	return nil
}

func (s *service) stopScheduler() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}

	s.scheduler.Shutdown()
	s.scheduler = nil
}

// running reports whether this instance currently runs the scheduler
func (s *service) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler != nil
}

var _ Service = (*service)(nil)
