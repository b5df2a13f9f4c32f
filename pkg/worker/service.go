// Package worker consumes background tasks from the contracts queue
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/contrack/pkg/observability"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

// Service defines the public interface for the worker service
type Service interface {
	// Start initializes and starts the worker service
	Start(ctx context.Context) error

	// Stop gracefully shuts down the worker service
	Stop() error
}

// service encapsulates the worker application logic
type service struct {
	config *Config
	log    logrus.FieldLogger

	wg sync.WaitGroup

	tracker  tracker.Service
	redisOpt *asynq.RedisClientOpt
	queue    string

	server *asynq.Server
}

// NewService creates a new worker service consuming queue
func NewService(log logrus.FieldLogger, cfg *Config, svc tracker.Service, redisOpt *asynq.RedisClientOpt, queue string) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &service{
		log:      log.WithField("service", "worker"),
		config:   cfg,
		tracker:  svc,
		redisOpt: redisOpt,
		queue:    queue,
	}, nil
}

// NewServeMux registers every task route on a fresh mux
func NewServeMux(handler *tasks.TaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for taskType, handlerFunc := range handler.Routes() {
		mux.HandleFunc(taskType, handlerFunc)
	}

	return mux
}

// Start initializes and starts the worker service
func (s *service) Start(_ context.Context) error {
	handler := tasks.NewTaskHandler(s.log, s.tracker)

	srv := asynq.NewServer(*s.redisOpt, asynq.Config{
		Concurrency:     s.config.Concurrency,
		Queues:          map[string]int{s.queue: 1},
		ShutdownTimeout: s.config.ShutdownDuration(),
		Logger:          s.log,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			observability.RecordError("worker", task.Type())
			s.log.WithError(err).WithField("task", task.Type()).Warn("Task failed")
		}),
	})

	s.log.WithFields(logrus.Fields{
		"queue":       s.queue,
		"concurrency": s.config.Concurrency,
	}).Info("Starting worker service")

	mux := NewServeMux(handler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if runErr := srv.Run(mux); runErr != nil {
			s.log.WithError(runErr).Error("Worker server stopped with error")
		}
	}()

	s.server = srv

	return nil
}

// Stop gracefully shuts down the worker service
func (s *service) Stop() error {
	if s.server != nil {
		s.server.Shutdown()
	}

	s.wg.Wait()

	s.log.Info("Worker service stopped successfully")

	return nil
}

// Ensure service implements the interface
var _ Service = (*service)(nil)
