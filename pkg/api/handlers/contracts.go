package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ListContracts handles GET /api/v1/contracts
func (s *Server) ListContracts(c fiber.Ctx) error {
	query, err := queryValues(c)
	if err != nil {
		return err
	}

	params, err := BindListContractsParams(query)
	if err != nil {
		return err
	}

	spec, err := params.FilterSpec()
	if err != nil {
		return err
	}

	list, err := s.tracker.Contracts(c.Context(), spec)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"contracts": list,
		"total":     len(list),
	})
}

// GetContract handles GET /api/v1/contracts/:id
func (s *Server) GetContract(c fiber.Ctx) error {
	contract, err := s.tracker.Contract(c.Context(), c.Params("id"))
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(contract)
}

// TerminateContract handles POST /api/v1/contracts/:id/terminate
func (s *Server) TerminateContract(c fiber.Ctx) error {
	contract, err := s.tracker.Terminate(c.Context(), c.Params("id"))
	if err != nil {
		return httpError(err)
	}

	s.log.WithField("contract", contract.ID).WithField("by", callerEmail(c)).Info("Contract terminated via API")

	return c.Status(fiber.StatusOK).JSON(contract)
}
