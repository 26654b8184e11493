// Package workflow tracks auditable units of asynchronous work and resolves
// the externally visible status of media buys.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// Step types recorded by the engine.
const (
	StepTypeToolCall = "tool_call"
	StepTypeApproval = "approval"
)

// ErrTerminalStep is returned when a caller tries to move a step out of a
// terminal status.
var ErrTerminalStep = errors.New("workflow step is in a terminal status")

// TransitionError reports a rejected step status change.
type TransitionError struct {
	StepID string
	From   models.StepStatus
	To     models.StepStatus
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move step %s from %s to %s: %s", e.StepID, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Engine creates and advances workflow steps. Every inbound operation gets a
// step with a verbatim request snapshot; the step is finalized exactly once.
type Engine struct {
	steps  persistence.WorkflowStepRepository
	logger *slog.Logger
}

// NewEngine creates a workflow engine over the given repository.
func NewEngine(steps persistence.WorkflowStepRepository, logger *slog.Logger) *Engine {
	return &Engine{steps: steps, logger: logger}
}

// CreateStep opens a step in in_progress with the raw request stored
// verbatim. The snapshot is what a human reviewer or a resumed dispatch sees
// later, so it is never re-serialized or normalized.
func (e *Engine) CreateStep(ctx context.Context, tenantID, principalID, stepType, toolName string, request json.RawMessage) (*models.WorkflowStep, error) {
	now := time.Now().UTC()

	step := &models.WorkflowStep{
		StepID:          uuid.New().String(),
		TenantID:        tenantID,
		PrincipalID:     principalID,
		StepType:        stepType,
		ToolName:        toolName,
		Status:          models.StepStatusInProgress,
		RequestSnapshot: request,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := e.steps.Create(ctx, step)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow step: %w", err)
	}

	return step, nil
}

// UpdateStep moves a step to a new status, optionally recording a response
// snapshot and an error message. Transitions out of a terminal status are
// rejected; a finished step never rewinds.
func (e *Engine) UpdateStep(ctx context.Context, tenantID, stepID string, status models.StepStatus, response json.RawMessage, errMsg string) (*models.WorkflowStep, error) {
	step, err := e.steps.GetByID(ctx, tenantID, stepID)
	if err != nil {
		return nil, err
	}

	if step.Status.Terminal() {
		return nil, &TransitionError{
			StepID: stepID,
			From:   step.Status,
			To:     status,
			Err:    ErrTerminalStep,
		}
	}

	step.Status = status
	if response != nil {
		step.ResponseSnapshot = response
	}

	if errMsg != "" {
		step.Error = errMsg
	}

	step.UpdatedAt = time.Now().UTC()

	err = e.steps.Update(ctx, step)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow step: %w", err)
	}

	return step, nil
}

// AddComment appends to the step's comment log. Existing comments are never
// rewritten.
func (e *Engine) AddComment(ctx context.Context, tenantID, stepID, user, text string) (*models.WorkflowStep, error) {
	step, err := e.steps.GetByID(ctx, tenantID, stepID)
	if err != nil {
		return nil, err
	}

	step.Comments = append(step.Comments, models.StepComment{
		User:      user,
		Timestamp: time.Now().UTC(),
		Text:      text,
	})
	step.UpdatedAt = time.Now().UTC()

	err = e.steps.Update(ctx, step)
	if err != nil {
		return nil, fmt.Errorf("failed to append step comment: %w", err)
	}

	return step, nil
}

// Link records that the step acted on a domain object. The mapping rows are
// the object's audit trail.
func (e *Engine) Link(ctx context.Context, stepID, objectType, objectID, action string) error {
	mapping := &models.ObjectWorkflowMapping{
		MappingID:  uuid.New().String(),
		StepID:     stepID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}

	err := e.steps.CreateMapping(ctx, mapping)
	if err != nil {
		return fmt.Errorf("failed to link step %s to %s %s: %w", stepID, objectType, objectID, err)
	}

	return nil
}

// GetStep fetches a step by ID.
func (e *Engine) GetStep(ctx context.Context, tenantID, stepID string) (*models.WorkflowStep, error) {
	return e.steps.GetByID(ctx, tenantID, stepID)
}

// ListSteps returns every step recorded for a tenant, oldest first. Rejected
// requests leave failed steps here even when no media buy was created.
func (e *Engine) ListSteps(ctx context.Context, tenantID string) ([]*models.WorkflowStep, error) {
	return e.steps.ListByTenant(ctx, tenantID)
}

// AuditTrail lists every step mapping recorded against an object, oldest
// first.
func (e *Engine) AuditTrail(ctx context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error) {
	return e.steps.ListMappingsByObject(ctx, objectType, objectID)
}
