package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buyflow/buyflow/pkg/events"
	"github.com/buyflow/buyflow/pkg/models"
)

// parkedStep is the response snapshot written when a buy is parked, read back
// on approval to locate the buy.
type parkedStep struct {
	MediaBuyID string `json:"media_buy_id"`
	State      string `json:"state"`
}

// ApproveStep resumes a parked media buy. The dispatch path is identical to
// the auto-approved create flow: creatives are re-validated, pricing comes
// from the per-package snapshots persisted at create time, and the adapter is
// called once. Additionally the external order approval is retried, since
// remote inventory forecasting may have lagged at create time.
func (o *Orchestrator) ApproveStep(ctx context.Context, tenantID, stepID, approvedBy, comment string) (*ApprovalResponse, error) {
	step, err := o.engine.GetStep(ctx, tenantID, stepID)
	if err != nil {
		return nil, err
	}

	if step.Status != models.StepStatusRequiresApproval {
		return nil, fmt.Errorf("%w: step %s is %s", ErrNotApprovable, stepID, step.Status)
	}

	buy, packages, err := o.loadParkedBuy(ctx, tenantID, step)
	if err != nil {
		return nil, err
	}

	tenant, err := o.persistence.TenantRepository().GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	adapter, err := o.adapterFor(tenantID, tenant.AdServer)
	if err != nil {
		return nil, err
	}

	if comment != "" {
		_, err = o.engine.AddComment(ctx, tenantID, stepID, approvedBy, comment)
		if err != nil {
			return nil, err
		}
	}

	_, err = o.engine.UpdateStep(ctx, tenantID, stepID, models.StepStatusApproved, nil, "")
	if err != nil {
		return nil, err
	}

	if step.ToolName == "update_media_buy" {
		return o.resumeUpdate(ctx, tenant, buy, step)
	}

	resp, err := o.dispatch(ctx, tenant, adapter, buy, packages, step, approvedBy)
	if err != nil {
		return nil, err
	}

	orderApproved, err := adapter.ApproveOrder(ctx, buy.ExternalID)
	if err != nil {
		// The order exists; approval can be retried by the reviewer.
		o.logger.WarnContext(ctx, "external order approval failed",
			"media_buy_id", buy.MediaBuyID, "external_id", buy.ExternalID, "error", err)
	}

	return &ApprovalResponse{
		StepID:        stepID,
		Status:        string(models.StepStatusApproved),
		MediaBuyID:    buy.MediaBuyID,
		ExternalID:    resp.ExternalID,
		OrderApproved: orderApproved,
	}, nil
}

// RejectStep rejects a parked media buy. Only local state changes; the
// adapter is never called.
func (o *Orchestrator) RejectStep(ctx context.Context, tenantID, stepID, rejectedBy, reason string) (*ApprovalResponse, error) {
	step, err := o.engine.GetStep(ctx, tenantID, stepID)
	if err != nil {
		return nil, err
	}

	if step.Status != models.StepStatusRequiresApproval {
		return nil, fmt.Errorf("%w: step %s is %s", ErrNotApprovable, stepID, step.Status)
	}

	buy, _, err := o.loadParkedBuy(ctx, tenantID, step)
	if err != nil {
		return nil, err
	}

	if reason != "" {
		_, err = o.engine.AddComment(ctx, tenantID, stepID, rejectedBy, reason)
		if err != nil {
			return nil, err
		}
	}

	_, err = o.engine.UpdateStep(ctx, tenantID, stepID, models.StepStatusRejected, nil, "")
	if err != nil {
		return nil, err
	}

	err = o.persistence.MediaBuyRepository().TransitionState(ctx, tenantID, buy.MediaBuyID, buy.State, models.MediaBuyStateRejected)
	if err != nil {
		return nil, err
	}

	event := events.MediaBuyRejected{
		BaseEvent:  events.NewBaseEvent(events.MediaBuyRejectedEvent, tenantID, buy.MediaBuyID),
		StepID:     stepID,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
	o.publish(ctx, buy.MediaBuyID, event)

	o.logger.InfoContext(ctx, "media buy rejected",
		"tenant_id", tenantID, "media_buy_id", buy.MediaBuyID, "step_id", stepID, "rejected_by", rejectedBy)

	return &ApprovalResponse{
		StepID:     stepID,
		Status:     string(models.StepStatusRejected),
		MediaBuyID: buy.MediaBuyID,
	}, nil
}

// resumeUpdate replays a parked update from the step's verbatim request
// snapshot.
func (o *Orchestrator) resumeUpdate(ctx context.Context, tenant *models.Tenant, buy *models.MediaBuy, step *models.WorkflowStep) (*ApprovalResponse, error) {
	var req UpdateMediaBuyRequest

	err := json.Unmarshal(step.RequestSnapshot, &req)
	if err != nil {
		return nil, fmt.Errorf("step %s has an unreadable update snapshot: %w", step.StepID, err)
	}

	_, err = o.applyUpdate(ctx, tenant, buy, &req, step)
	if err != nil {
		return nil, err
	}

	return &ApprovalResponse{
		StepID:     step.StepID,
		Status:     string(models.StepStatusApproved),
		MediaBuyID: buy.MediaBuyID,
	}, nil
}

// loadParkedBuy resolves the media buy a parked step refers to, with its
// packages carrying the pricing snapshots resolved at create time.
func (o *Orchestrator) loadParkedBuy(ctx context.Context, tenantID string, step *models.WorkflowStep) (*models.MediaBuy, []*models.Package, error) {
	var parked parkedStep

	err := json.Unmarshal(step.ResponseSnapshot, &parked)
	if err != nil || parked.MediaBuyID == "" {
		return nil, nil, fmt.Errorf("step %s has no parked media buy reference", step.StepID)
	}

	buy, err := o.persistence.MediaBuyRepository().GetByID(ctx, tenantID, parked.MediaBuyID)
	if err != nil {
		return nil, nil, err
	}

	packages, err := o.persistence.PackageRepository().ListByMediaBuy(ctx, tenantID, buy.MediaBuyID)
	if err != nil {
		return nil, nil, err
	}

	return buy, packages, nil
}
