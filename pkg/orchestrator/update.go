package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/events"
	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/pricing"
	"github.com/buyflow/buyflow/pkg/workflow"
)

// UpdateMediaBuy runs the update flow: pause/resume at campaign and package
// level, budget and flight-date changes, creative replacement and per-creative
// rotation updates. Manual-approval gating applies exactly as on create: a
// gated update is parked with no mutation applied to external state.
func (o *Orchestrator) UpdateMediaBuy(ctx context.Context, tenantID, principalID string, raw json.RawMessage) (*UpdateMediaBuyResponse, error) {
	var req UpdateMediaBuyRequest

	err := json.Unmarshal(raw, &req)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "body", Message: err.Error()}}}
	}

	if req.MediaBuyID == "" && req.BuyerRef == "" {
		return nil, &ValidationError{Fields: []FieldError{
			{Field: "media_buy_id", Message: "media_buy_id or buyer_ref is required"},
		}}
	}

	buy, err := o.findBuy(ctx, tenantID, principalID, &req)
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

	step, err := o.engine.CreateStep(ctx, tenantID, principalID, workflow.StepTypeToolCall, "update_media_buy", raw)
	if err != nil {
		return nil, err
	}

	err = o.engine.Link(ctx, step.StepID, objectTypeMediaBuy, buy.MediaBuyID, actionUpdate)
	if err != nil {
		o.failStep(ctx, tenantID, step.StepID, err)

		return nil, err
	}

	gated := tenant.RequireManualApproval ||
		adserver.RequiresManualApproval(adapter, adserver.OperationUpdateMediaBuy)

	if gated {
		parked, err := json.Marshal(parkedStep{MediaBuyID: buy.MediaBuyID, State: string(buy.State)})
		if err != nil {
			return nil, err
		}

		_, err = o.engine.UpdateStep(ctx, tenantID, step.StepID, models.StepStatusRequiresApproval, parked, "")
		if err != nil {
			return nil, err
		}

		o.logger.InfoContext(ctx, "media buy update parked for manual approval",
			"tenant_id", tenantID, "media_buy_id", buy.MediaBuyID, "step_id", step.StepID)

		return &UpdateMediaBuyResponse{
			MediaBuyID:     buy.MediaBuyID,
			BuyerRef:       buy.BuyerRef,
			Status:         string(models.MediaBuyStatusPendingActivation),
			WorkflowStepID: step.StepID,
		}, nil
	}

	return o.applyUpdate(ctx, tenant, buy, &req, step)
}

// applyUpdate validates and commits the changes described by req. It is the
// shared tail of the direct update flow and approval resumption of a parked
// update.
func (o *Orchestrator) applyUpdate(ctx context.Context, tenant *models.Tenant, buy *models.MediaBuy, req *UpdateMediaBuyRequest, step *models.WorkflowStep) (*UpdateMediaBuyResponse, error) {
	packages, err := o.persistence.PackageRepository().ListByMediaBuy(ctx, tenant.TenantID, buy.MediaBuyID)
	if err != nil {
		o.failStep(ctx, tenant.TenantID, step.StepID, err)

		return nil, err
	}

	err = o.validateUpdate(tenant, buy, packages, req)
	if err != nil {
		o.failStep(ctx, tenant.TenantID, step.StepID, err)

		return nil, err
	}

	now := time.Now().UTC()

	var changes []string

	if req.StartTime != nil {
		buy.StartTime = *req.StartTime
		changes = append(changes, "start_time")
	}

	if req.EndTime != nil {
		buy.EndTime = *req.EndTime
		changes = append(changes, "end_time")
	}

	if req.Paused != nil {
		buy.Paused = *req.Paused
		changes = append(changes, "paused")
	}

	if req.Budget != nil {
		buy.TotalBudget = *req.Budget
		changes = append(changes, "budget")
	}

	affected, err := o.applyPackageUpdates(ctx, tenant, buy, packages, req.Packages, now)
	if err != nil {
		o.failStep(ctx, tenant.TenantID, step.StepID, err)

		return nil, err
	}

	buy.UpdatedAt = now

	err = o.persistence.MediaBuyRepository().Update(ctx, buy)
	if err != nil {
		o.failStep(ctx, tenant.TenantID, step.StepID, err)

		return nil, err
	}

	snapshot, err := json.Marshal(map[string]any{
		"media_buy_id": buy.MediaBuyID,
		"changes":      changes,
	})
	if err != nil {
		return nil, err
	}

	_, err = o.engine.UpdateStep(ctx, tenant.TenantID, step.StepID, models.StepStatusCompleted, snapshot, "")
	if err != nil {
		return nil, err
	}

	affectedIDs := make([]string, len(affected))
	for i, pkg := range affected {
		affectedIDs[i] = pkg.PackageID
	}

	event := events.MediaBuyUpdated{
		BaseEvent:        events.NewBaseEvent(events.MediaBuyUpdatedEvent, tenant.TenantID, buy.MediaBuyID),
		AffectedPackages: affectedIDs,
		Changes:          changes,
	}
	o.publish(ctx, buy.MediaBuyID, event)

	o.logger.InfoContext(ctx, "media buy updated",
		"tenant_id", tenant.TenantID, "media_buy_id", buy.MediaBuyID, "changes", changes)

	return &UpdateMediaBuyResponse{
		MediaBuyID:       buy.MediaBuyID,
		BuyerRef:         buy.BuyerRef,
		Status:           string(buy.State),
		AffectedPackages: packageResponses(affected),
	}, nil
}

// validateUpdate checks flight and budget changes. Budget changes are always
// validated against the flight the buy already has, so shortening or moving
// the flight in the same request cannot be used to slip past the daily cap.
func (o *Orchestrator) validateUpdate(tenant *models.Tenant, buy *models.MediaBuy, packages []*models.Package, req *UpdateMediaBuyRequest) error {
	start := buy.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}

	end := buy.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}

	if !end.After(start) {
		return &ValidationError{Fields: []FieldError{
			{Field: "end_time", Message: "end time must be after start time"},
		}}
	}

	budgetChanged := req.Budget != nil

	budgets := make([]pricing.PackageBudget, 0, len(packages))
	total := 0.0

	for _, pkg := range packages {
		budget := pkg.Budget

		for _, update := range req.Packages {
			if update.PackageID == pkg.PackageID && update.Budget != nil {
				budget = *update.Budget
				budgetChanged = true
			}
		}

		budgets = append(budgets, pricing.PackageBudget{PackageID: pkg.PackageID, Budget: budget})
		total += budget
	}

	if req.Budget != nil {
		total = *req.Budget
	}

	if !budgetChanged {
		return nil
	}

	return pricing.CheckBudgets(tenant, nil, pricing.BudgetCheck{
		Currency:    buy.Currency,
		TotalBudget: total,
		Packages:    budgets,
		StartTime:   buy.StartTime,
		EndTime:     buy.EndTime,
	})
}

// applyPackageUpdates commits per-package changes and returns the affected
// packages.
func (o *Orchestrator) applyPackageUpdates(ctx context.Context, tenant *models.Tenant, buy *models.MediaBuy, packages []*models.Package, updates []PackageUpdateRequest, now time.Time) ([]*models.Package, error) {
	byID := make(map[string]*models.Package, len(packages))
	for _, pkg := range packages {
		byID[pkg.PackageID] = pkg
	}

	var affected []*models.Package

	for _, update := range updates {
		pkg, ok := byID[update.PackageID]
		if !ok {
			return nil, &ValidationError{Fields: []FieldError{
				{Field: "packages", Message: fmt.Sprintf("unknown package %q", update.PackageID)},
			}}
		}

		if update.Paused != nil {
			pkg.Paused = *update.Paused
		}

		if update.Budget != nil {
			pkg.Budget = *update.Budget
			// Persisted locally as authoritative; the push to the ad server
			// is tracked explicitly instead of drifting silently.
			pkg.BudgetPushState = models.BudgetPushStatePendingPush
		}

		if update.CreativeIDs != nil {
			err := o.replaceCreatives(ctx, tenant, buy, pkg, *update.CreativeIDs, now)
			if err != nil {
				return nil, err
			}
		}

		err := o.applyAssignmentUpdates(ctx, tenant.TenantID, buy.MediaBuyID, pkg, update.Assignments, now)
		if err != nil {
			return nil, err
		}

		pkg.UpdatedAt = now

		err = o.persistence.PackageRepository().Update(ctx, pkg)
		if err != nil {
			return nil, err
		}

		affected = append(affected, pkg)
	}

	return affected, nil
}

// replaceCreatives diffs the requested creative set against the package's
// current one. Added creatives are format-validated before any assignment row
// is written; removed creatives lose their assignment.
func (o *Orchestrator) replaceCreatives(ctx context.Context, tenant *models.Tenant, buy *models.MediaBuy, pkg *models.Package, wanted []string, now time.Time) error {
	var added, removed []string

	for _, id := range wanted {
		if !slices.Contains(pkg.CreativeIDs, id) {
			added = append(added, id)
		}
	}

	for _, id := range pkg.CreativeIDs {
		if !slices.Contains(wanted, id) {
			removed = append(removed, id)
		}
	}

	if len(added) > 0 {
		loaded, err := o.persistence.CreativeRepository().GetByIDs(ctx, tenant.TenantID, added)
		if err != nil {
			return err
		}

		specs, err := o.formats.ValidateCreatives(ctx, tenant, loaded)
		if err != nil {
			return err
		}

		err = o.gate.Check(ctx, tenant.TenantID, buy.MediaBuyID, added, specs)
		if err != nil {
			return err
		}
	}

	pkg.CreativeIDs = wanted

	err := o.ensureAssignments(ctx, pkg, now)
	if err != nil {
		return err
	}

	for _, id := range removed {
		err = o.persistence.AssignmentRepository().Delete(ctx, tenant.TenantID, buy.MediaBuyID, pkg.PackageID, id)
		if err != nil {
			return err
		}
	}

	return nil
}

// applyAssignmentUpdates adjusts rotation weight and placements for creatives
// already assigned to the package.
func (o *Orchestrator) applyAssignmentUpdates(ctx context.Context, tenantID, mediaBuyID string, pkg *models.Package, updates []AssignmentUpdateRequest, now time.Time) error {
	if len(updates) == 0 {
		return nil
	}

	assignments, err := o.persistence.AssignmentRepository().ListByPackage(ctx, tenantID, mediaBuyID, pkg.PackageID)
	if err != nil {
		return err
	}

	byCreative := make(map[string]*models.CreativeAssignment, len(assignments))
	for _, assignment := range assignments {
		byCreative[assignment.CreativeID] = assignment
	}

	for _, update := range updates {
		assignment, ok := byCreative[update.CreativeID]
		if !ok {
			return &ValidationError{Fields: []FieldError{
				{Field: "assignments", Message: fmt.Sprintf("creative %q is not assigned to package %q", update.CreativeID, pkg.PackageID)},
			}}
		}

		if update.Weight != nil {
			assignment.Weight = *update.Weight
		}

		if update.PlacementIDs != nil {
			assignment.PlacementIDs = update.PlacementIDs
		}

		assignment.UpdatedAt = now

		err = o.persistence.AssignmentRepository().Update(ctx, assignment)
		if err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) findBuy(ctx context.Context, tenantID, principalID string, req *UpdateMediaBuyRequest) (*models.MediaBuy, error) {
	if req.MediaBuyID != "" {
		return o.persistence.MediaBuyRepository().GetByID(ctx, tenantID, req.MediaBuyID)
	}

	return o.persistence.MediaBuyRepository().GetByBuyerRef(ctx, tenantID, principalID, req.BuyerRef)
}
