// Package orchestrator coordinates media buy creation, approval and updates.
// It validates requests, decides auto versus manual approval, calls the ad
// server adapter exactly once per accepted buy and reconciles the response.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/creatives"
	"github.com/buyflow/buyflow/pkg/eventbus"
	"github.com/buyflow/buyflow/pkg/formats"
	"github.com/buyflow/buyflow/pkg/log"
	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/workflow"
)

// Object types and actions recorded in workflow step mappings.
const (
	objectTypeMediaBuy = "media_buy"

	actionCreate  = "create"
	actionApprove = "approve"
	actionReject  = "reject"
	actionUpdate  = "update"
)

// Orchestrator is the top-level coordinator of the media buy lifecycle.
type Orchestrator struct {
	persistence persistence.Persistence
	adapters    *adserver.Registry
	formats     *formats.Validator
	gate        *creatives.Gate
	engine      *workflow.Engine
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
}

// New creates an orchestrator over the given collaborators.
func New(
	store persistence.Persistence,
	adapters *adserver.Registry,
	formatValidator *formats.Validator,
	publisher eventbus.EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		persistence: store,
		adapters:    adapters,
		formats:     formatValidator,
		gate:        creatives.NewGate(store.CreativeRepository()),
		engine:      workflow.NewEngine(store.WorkflowStepRepository(), log.WithModule("workflow")),
		publisher:   publisher,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		logger:      log.WithModule("orchestrator"),
	}
}

// Engine exposes the workflow engine for read paths (step lookup, audit
// trail).
func (o *Orchestrator) Engine() *workflow.Engine {
	return o.engine
}

// adapterFor resolves the tenant's configured ad server adapter.
func (o *Orchestrator) adapterFor(tenantID, adServer string) (adserver.Adapter, error) {
	return o.adapters.Create(adServer, map[string]any{"tenant_id": tenantID})
}

// publish emits an event best-effort. Event delivery failure never rolls
// back a persisted buy.
func (o *Orchestrator) publish(ctx context.Context, key string, event eventbus.Event) {
	err := o.publisher.Publish(ctx, key, event)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}
