package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/contrack/pkg/contracts"
	"github.com/ethpandaops/contrack/pkg/reports"
	"github.com/ethpandaops/contrack/pkg/store"
	"github.com/ethpandaops/contrack/pkg/tasks"
	"github.com/ethpandaops/contrack/pkg/tracker"
)

var (
	// ErrIdentityRequired is returned when the caller's email header is missing
	ErrIdentityRequired = fiber.NewError(fiber.StatusUnauthorized, "missing X-User-Email header")
	// ErrAdminRequired is returned when a non-admin calls an admin route
	ErrAdminRequired = fiber.NewError(fiber.StatusForbidden, "admin role required")
	// ErrQueueUnavailable is returned for async imports when no queue is configured
	ErrQueueUnavailable = fiber.NewError(fiber.StatusServiceUnavailable, "task queue unavailable")
	// ErrInvalidBody is returned when a request body cannot be decoded
	ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")
)

// httpError maps domain errors onto HTTP status codes
func httpError(err error) error {
	switch {
	case errors.Is(err, store.ErrContractNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, reports.ErrUnknownReport),
		errors.Is(err, tasks.ErrTaskNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidStrategy),
		errors.Is(err, store.ErrInvalidRole),
		errors.Is(err, contracts.ErrInvalidContractData):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrNoValidRows):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, tracker.ErrEmailRequired):
		return ErrIdentityRequired
	case errors.Is(err, store.ErrTxConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	return err
}
