package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/contrack/pkg/api/handlers"
	"github.com/ethpandaops/contrack/pkg/reports"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

// Service defines the API service interface
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	app     *fiber.App
	server  *http.Server
	config  *Config
	tracker tracker.Service
	queue   handlers.Queue
	reports *reports.Engine
	log     logrus.FieldLogger
}

// NewService creates a new API service. queue may be nil.
func NewService(cfg *Config, svc tracker.Service, queue handlers.Queue, engine *reports.Engine, log logrus.FieldLogger) Service {
	return &service{
		config:  cfg,
		tracker: svc,
		queue:   queue,
		reports: engine,
		log:     log.WithField("service", "api"),
	}
}

// NewApp builds the Fiber app with middleware and every /api/v1 route
func NewApp(server *handlers.Server, allowOrigins []string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		AppName:      "contrack API",
	})

	setupMiddleware(app, allowOrigins)

	server.RegisterRoutes(app.Group("/api/v1"))

	return app
}

// Start initializes and starts the API server
func (s *service) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API service is disabled")
		return nil
	}

	server, err := handlers.NewServer(ctx, s.tracker, s.queue, s.reports, s.log)
	if err != nil {
		return err
	}

	s.app = NewApp(server, s.config.AllowOrigins)

	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           adaptor.FiberApp(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.WithField("addr", s.config.Addr).Info("Starting API server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server failed to start")
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server
func (s *service) Stop() error {
	if s.server == nil {
		return nil
	}

	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
