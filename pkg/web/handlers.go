// Package web provides the HTTP API for media buy operations.
package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/orchestrator"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// Tenant and principal scope headers. Authentication itself is handled in
// front of this service.
const (
	HeaderTenantID    = "X-Tenant-ID"
	HeaderPrincipalID = "X-Principal-ID"
)

type APIHandlers struct {
	orchestrator *orchestrator.Orchestrator
	persistence  persistence.Persistence
	adapters     *adserver.Registry
}

func NewAPIHandlers(
	orch *orchestrator.Orchestrator,
	store persistence.Persistence,
	adapters *adserver.Registry,
) *APIHandlers {
	return &APIHandlers{
		orchestrator: orch,
		persistence:  store,
		adapters:     adapters,
	}
}

// Register mounts every route on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Post("/media-buys", h.CreateMediaBuy)
	app.Patch("/media-buys/:id", h.UpdateMediaBuy)
	app.Get("/media-buys/:id", h.GetMediaBuy)
	app.Post("/workflow-steps/:id/approve", h.ApproveWorkflowStep)
	app.Post("/workflow-steps/:id/reject", h.RejectWorkflowStep)
	app.Get("/workflow-steps", h.ListWorkflowSteps)
	app.Get("/workflow-steps/:id", h.GetWorkflowStep)
	app.Get("/health", h.Health)
}

func (h *APIHandlers) CreateMediaBuy(c fiber.Ctx) error {
	tenantID, principalID, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.orchestrator.CreateMediaBuy(c.Context(), tenantID, principalID, json.RawMessage(c.Body()))
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *APIHandlers) UpdateMediaBuy(c fiber.Ctx) error {
	tenantID, principalID, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "media buy ID is required")
	}

	// The path identifies the buy; the body may omit media_buy_id.
	var body map[string]any

	err = json.Unmarshal(c.Body(), &body)
	if err != nil {
		return badRequest(c, "invalid JSON body: "+err.Error())
	}

	body["media_buy_id"] = id

	raw, err := json.Marshal(body)
	if err != nil {
		return internalError(c, err)
	}

	resp, err := h.orchestrator.UpdateMediaBuy(c.Context(), tenantID, principalID, raw)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) GetMediaBuy(c fiber.Ctx) error {
	tenantID, _, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "media buy ID is required")
	}

	view, err := h.orchestrator.GetMediaBuy(c.Context(), tenantID, id)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(view)
}

type approvalRequest struct {
	User    string `json:"user"`
	Comment string `json:"comment,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (h *APIHandlers) ApproveWorkflowStep(c fiber.Ctx) error {
	tenantID, _, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow step ID is required")
	}

	var req approvalRequest

	err = json.Unmarshal(c.Body(), &req)
	if err != nil {
		return badRequest(c, "invalid JSON body: "+err.Error())
	}

	if req.User == "" {
		return badRequest(c, "user is required")
	}

	resp, err := h.orchestrator.ApproveStep(c.Context(), tenantID, id, req.User, req.Comment)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) RejectWorkflowStep(c fiber.Ctx) error {
	tenantID, _, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow step ID is required")
	}

	var req approvalRequest

	err = json.Unmarshal(c.Body(), &req)
	if err != nil {
		return badRequest(c, "invalid JSON body: "+err.Error())
	}

	if req.User == "" {
		return badRequest(c, "user is required")
	}

	resp, err := h.orchestrator.RejectStep(c.Context(), tenantID, id, req.User, req.Reason)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) ListWorkflowSteps(c fiber.Ctx) error {
	tenantID, _, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	steps, err := h.orchestrator.Engine().ListSteps(c.Context(), tenantID)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(steps)
}

func (h *APIHandlers) GetWorkflowStep(c fiber.Ctx) error {
	tenantID, _, err := scope(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow step ID is required")
	}

	step, err := h.orchestrator.Engine().GetStep(c.Context(), tenantID, id)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) Health(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	detail, healthy := h.adapters.HealthCheck()
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"adapters": detail,
		})
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"adapters": detail,
	})
}

func scope(c fiber.Ctx) (tenantID, principalID string, err error) {
	tenantID = c.Get(HeaderTenantID)
	if tenantID == "" {
		return "", "", fiber.NewError(fiber.StatusBadRequest, HeaderTenantID+" header is required")
	}

	principalID = c.Get(HeaderPrincipalID)

	return tenantID, principalID, nil
}
