package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/creatives"
	"github.com/buyflow/buyflow/pkg/formats"
	"github.com/buyflow/buyflow/pkg/orchestrator"
	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/pricing"
	"github.com/buyflow/buyflow/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleOrchestratorError maps the error taxonomy onto HTTP statuses.
// Caller-fixable classes return a structured detail the buyer can act on;
// adapter and reconciliation failures indicate misconfiguration and surface
// as generic upstream or internal errors.
func handleOrchestratorError(c fiber.Ctx, err error) error {
	switch {
	case orchestrator.IsValidationError(err):
		var ve *orchestrator.ValidationError
		errors.As(err, &ve)

		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"problem": problem,
			"errors":  ve.Fields,
		})

	case pricing.IsDataIntegrityError(err):
		// A product with no pricing options is an internal fault, not a
		// caller error.
		return internalError(c, err)

	case pricing.IsCallerError(err):
		return badRequest(c, err.Error())

	case formats.IsValidationError(err):
		return badRequest(c, err.Error())

	case creatives.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, orchestrator.ErrNotApprovable):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsDuplicate(err) || persistence.IsStateConflict(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsNotFound(err):
		return notFound(c, err.Error())

	case adserver.IsAdapterError(err):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("ad_server_error").
			WithDetail("the ad server rejected the operation")

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	case orchestrator.IsReconciliationError(err):
		return internalError(c, err)

	default:
		var te *workflow.TransitionError
		if errors.As(err, &te) {
			problem := problems.NewStatusProblem(409).
				WithInstance(c.Path()).
				WithType("conflict").
				WithDetail(err.Error())

			return c.Status(fiber.StatusConflict).JSON(problem)
		}

		return internalError(c, err)
	}
}
