// Package handlers implements the contrack REST API request handlers.
package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v3"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/contrack/pkg/reports"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

//go:embed openapi.yaml
var openAPISpec []byte

// LoadSpec parses and validates the embedded OpenAPI document
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}

	return doc, nil
}

// Queue is the subset of the task queue used for asynchronous imports
type Queue interface {
	EnqueueImport(ctx context.Context, payload tasks.ImportPayload, opts ...asynq.Option) (string, error)
	TaskInfo(id string) (*asynq.TaskInfo, error)
	GetQueueStats() (*asynq.QueueInfo, error)
}

// Server holds the dependencies shared by every handler
type Server struct {
	tracker tracker.Service
	queue   Queue
	reports *reports.Engine
	spec    []byte
	log     logrus.FieldLogger
}

// NewServer creates a new API server instance. queue may be nil, in which
// case asynchronous imports are refused.
func NewServer(ctx context.Context, svc tracker.Service, queue Queue, engine *reports.Engine, log logrus.FieldLogger) (*Server, error) {
	doc, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}

	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi spec: %w", err)
	}

	return &Server{
		tracker: svc,
		queue:   queue,
		reports: engine,
		spec:    spec,
		log:     log.WithField("component", "api.handlers"),
	}, nil
}

// RegisterRoutes mounts every route on router
func (s *Server) RegisterRoutes(router fiber.Router) {
	// Public, and registered ahead of identify so it never runs for it
	router.Get("/openapi.json", s.GetOpenAPI)

	api := router.Group("", s.identify)

	api.Get("/contracts", s.ListContracts)
	api.Get("/contracts/:id", s.GetContract)
	api.Post("/contracts/:id/terminate", requireAdmin, s.TerminateContract)

	api.Get("/dashboard", s.GetDashboard)
	api.Get("/alerts", s.ListAlerts)
	api.Get("/natures", s.ListNatures)
	api.Get("/options", s.GetFilterOptions)

	api.Get("/params", s.GetParams)
	api.Put("/params", requireAdmin, s.UpdateParams)

	api.Get("/imports", s.ListImports)
	api.Post("/imports", requireAdmin, s.CreateImport)
	api.Get("/imports/queue", s.GetImportQueue)
	api.Get("/imports/tasks/:taskId", s.GetImportTask)

	api.Get("/reports/:name", s.RenderReport)

	api.Get("/users", requireAdmin, s.ListUsers)
	api.Put("/users/:email/role", requireAdmin, s.SetUserRole)
	api.Get("/me", s.GetCurrentUser)
}

// GetOpenAPI handles GET /api/v1/openapi.json
func (s *Server) GetOpenAPI(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.Send(s.spec)
}
