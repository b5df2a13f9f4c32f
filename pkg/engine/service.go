package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof is intentionally exposed when pprofAddr is configured
	"os/signal"
	"syscall"
	"time"

	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/contrack/pkg/api"
	"github.com/ethpandaops/contrack/pkg/observability"
	"github.com/ethpandaops/contrack/pkg/redis"
	"github.com/ethpandaops/contrack/pkg/reports"
	"github.com/ethpandaops/contrack/pkg/scheduler"
	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
	"github.com/ethpandaops/contrack/pkg/worker"
)

const shutdownTimeout = 10 * time.Second

// Service owns every long-running component of a contrack process
type Service struct {
	config *Config
	log    logrus.FieldLogger

	redisClient *r.Client
	tracker     tracker.Service
	queue       *tasks.QueueManager

	api       api.Service
	worker    worker.Service
	scheduler scheduler.Service

	// Servers
	healthServer *http.Server
	pprofServer  *http.Server
}

// NewService validates cfg and builds every enabled component
func NewService(log logrus.FieldLogger, cfg *Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	redisOptions, err := cfg.Redis.ParseOptions()
	if err != nil {
		return nil, err
	}

	location, err := cfg.Tracker.Location()
	if err != nil {
		return nil, err
	}

	redisClient := r.NewClient(redisOptions)
	asynqOpt := redis.NewAsynqRedisOptions(redisOptions)
	queueName := cfg.Redis.PrefixQueue(tasks.QueueContracts)

	st := store.New(log, redisClient, &cfg.Redis)
	trackerService := tracker.New(log, &cfg.Tracker, st, tracker.NewClock(location))
	queue := tasks.NewQueueManager(asynqOpt, queueName)

	s := &Service{
		config:      cfg,
		log:         log.WithField("service", "engine"),
		redisClient: redisClient,
		tracker:     trackerService,
		queue:       queue,
	}

	if cfg.API.Enabled {
		renderer, err := reports.NewEngine()
		if err != nil {
			return nil, fmt.Errorf("failed to create report engine: %w", err)
		}

		s.api = api.NewService(&cfg.API, trackerService, queue, renderer, log)
	}

	if cfg.Worker.Enabled {
		s.worker, err = worker.NewService(log, &cfg.Worker, trackerService, asynqOpt, queueName)
		if err != nil {
			return nil, fmt.Errorf("failed to create worker service: %w", err)
		}
	}

	if cfg.Scheduler.Enabled {
		elector := scheduler.NewLeaderElector(log, redisOptions, cfg.Redis.PrefixKey(scheduler.LeaderKey))

		s.scheduler, err = scheduler.NewService(log, &cfg.Scheduler, asynqOpt, queueName, location, elector, queue)
		if err != nil {
			return nil, fmt.Errorf("failed to create scheduler service: %w", err)
		}
	}

	return s, nil
}

// Run starts every component and blocks until ctx is canceled or the
// process receives SIGINT/SIGTERM, then shuts everything down.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		_ = s.Stop()

		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.config.HealthCheckAddr != "" {
		s.log.WithField("addr", s.config.HealthCheckAddr).Info("Starting health check server")

		s.healthServer = &http.Server{
			Addr:              s.config.HealthCheckAddr,
			Handler:           s.healthHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			return serve(s.healthServer, "health check")
		})
	}

	if s.config.PProfAddr != "" {
		s.log.WithField("addr", s.config.PProfAddr).Info("Starting pprof server")

		s.pprofServer = &http.Server{
			Addr:              s.config.PProfAddr,
			ReadHeaderTimeout: 120 * time.Second,
		}

		g.Go(func() error {
			return serve(s.pprofServer, "pprof")
		})
	}

	// Wait for shutdown signal
	g.Go(func() error {
		<-ctx.Done()

		return s.Stop()
	})

	return g.Wait()
}

// Start starts the metrics server and every enabled component
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Starting contrack engine...")

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	observability.StartMetricsServer(s.log, s.config.MetricsAddr)

	if s.worker != nil {
		if err := s.worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}

	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if s.api != nil {
		if err := s.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API service: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"api":       s.api != nil,
		"worker":    s.worker != nil,
		"scheduler": s.scheduler != nil,
	}).Info("Contrack engine started")

	return nil
}

// Stop gracefully shuts down every component
func (s *Service) Stop() error {
	s.log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopService := func(name string, stopFunc func() error) {
		if err := stopFunc(); err != nil {
			s.log.WithError(err).Errorf("Failed to stop %s", name)
		}
	}

	// Stop the scheduler first so no new tasks are created
	if s.scheduler != nil {
		stopService("scheduler service", s.scheduler.Stop)
	}

	if s.api != nil {
		stopService("API service", s.api.Stop)
	}

	// Let in-flight tasks finish
	if s.worker != nil {
		stopService("worker service", s.worker.Stop)
	}

	stopService("task queue", s.queue.Close)
	stopService("Redis client", s.redisClient.Close)

	if s.healthServer != nil {
		stopService("health check server", func() error { return s.healthServer.Shutdown(ctx) })
	}

	if s.pprofServer != nil {
		stopService("pprof server", func() error { return s.pprofServer.Shutdown(ctx) })
	}

	stopService("metrics server", func() error { return observability.StopMetricsServer(ctx) })

	s.log.Info("Contrack engine stopped")

	return nil
}

// healthHandler serves /health (process up) and /ready (redis reachable)
func (s *Service) healthHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := s.redisClient.Ping(req.Context()).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("redis unavailable"))

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

func serve(srv *http.Server, name string) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}

	return nil
}
