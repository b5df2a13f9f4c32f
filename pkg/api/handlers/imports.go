package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

const defaultImportsLimit = 20

// ImportBody is the POST /imports request body
type ImportBody struct {
	FileName string            `json:"nome_arquivo"`
	Strategy string            `json:"tipo_importacao"`
	Rows     []json.RawMessage `json:"contratos"`
}

// ListImports handles GET /api/v1/imports
func (s *Server) ListImports(c fiber.Ctx) error {
	limit := defaultImportsLimit

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > store.MaxImportLogs {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
		}

		limit = n
	}

	logs, err := s.tracker.Imports(c.Context(), limit)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"imports": logs})
}

// CreateImport handles POST /api/v1/imports
func (s *Server) CreateImport(c fiber.Ctx) error {
	var body ImportBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return ErrInvalidBody
	}

	strategy, err := store.ParseImportStrategy(body.Strategy)
	if err != nil {
		return httpError(err)
	}

	req := tracker.ImportRequest{
		User:     callerEmail(c),
		FileName: body.FileName,
		Strategy: strategy,
		Rows:     body.Rows,
	}

	if c.Query("async") == "true" {
		if s.queue == nil {
			return ErrQueueUnavailable
		}

		taskID, err := s.queue.EnqueueImport(c.Context(), tasks.ImportPayload{Request: req, Trigger: tasks.TriggerAPI})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": taskID})
	}

	result, err := s.tracker.Import(c.Context(), req)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetImportQueue handles GET /api/v1/imports/queue
func (s *Server) GetImportQueue(c fiber.Ctx) error {
	if s.queue == nil {
		return ErrQueueUnavailable
	}

	info, err := s.queue.GetQueueStats()
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"queue":     info.Queue,
		"size":      info.Size,
		"pending":   info.Pending,
		"active":    info.Active,
		"scheduled": info.Scheduled,
		"retry":     info.Retry,
		"archived":  info.Archived,
		"completed": info.Completed,
		"paused":    info.Paused,
	})
}

// GetImportTask handles GET /api/v1/imports/tasks/:taskId
func (s *Server) GetImportTask(c fiber.Ctx) error {
	if s.queue == nil {
		return ErrQueueUnavailable
	}

	info, err := s.queue.TaskInfo(c.Params("taskId"))
	if err != nil {
		return httpError(err)
	}

	resp := fiber.Map{
		"id":    info.ID,
		"state": info.State.String(),
	}

	if len(info.Result) > 0 {
		resp["result"] = json.RawMessage(info.Result)
	}

	if info.LastErr != "" {
		resp["last_error"] = info.LastErr
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
