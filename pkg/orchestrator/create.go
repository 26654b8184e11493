package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/events"
	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/pricing"
	"github.com/buyflow/buyflow/pkg/workflow"
)

// CreateMediaBuy runs the create flow: validate, resolve pricing and budgets,
// decide gating, and either park the buy for manual approval or dispatch it
// to the ad server and reconcile the response. The workflow step opened for
// the request is finalized before returning in every outcome.
func (o *Orchestrator) CreateMediaBuy(ctx context.Context, tenantID, principalID string, raw json.RawMessage) (*CreateMediaBuyResponse, error) {
	var req CreateMediaBuyRequest

	err := json.Unmarshal(raw, &req)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "body", Message: err.Error()}}}
	}

	// The step opens before any check runs so every rejection, including the
	// caller-fixable ones, leaves an audit record with the error verbatim.
	step, err := o.engine.CreateStep(ctx, tenantID, principalID, workflow.StepTypeToolCall, "create_media_buy", raw)
	if err != nil {
		return nil, err
	}

	tenant, err := o.persistence.TenantRepository().GetByID(ctx, tenantID)
	if err != nil {
		o.failStep(ctx, tenantID, step.StepID, err)

		return nil, err
	}

	adapter, err := o.adapterFor(tenantID, tenant.AdServer)
	if err != nil {
		o.failStep(ctx, tenantID, step.StepID, err)

		return nil, err
	}

	now := time.Now().UTC()

	start, products, verr := o.validateCreate(ctx, tenant, &req, now)
	if verr != nil {
		o.failStep(ctx, tenantID, step.StepID, verr)

		return nil, verr
	}

	// Currency comes from the first package's resolved pricing option; every
	// other package must resolve in the same currency.
	resolved := make([]*models.PricingInfo, len(req.Packages))

	currency := ""
	for i, pkg := range req.Packages {
		info, err := pricing.Resolve(products[i], pricing.Selection{
			PricingOptionID: pkg.PricingOptionID,
			PricingModel:    pkg.PricingModel,
			BidPrice:        pkg.BidPrice,
		}, currency, pkg.Budget)
		if err != nil {
			o.failStep(ctx, tenantID, step.StepID, err)

			return nil, err
		}

		resolved[i] = info
		if currency == "" {
			currency = info.Currency
		}
	}

	budgets := make([]pricing.PackageBudget, len(req.Packages))
	total := 0.0

	for i, pkg := range req.Packages {
		budgets[i] = pricing.PackageBudget{PackageID: pkg.ProductID, Budget: pkg.Budget}
		total += pkg.Budget
	}

	err = pricing.CheckBudgets(tenant, adapter.SupportedCurrencies(), pricing.BudgetCheck{
		Currency:    currency,
		TotalBudget: total,
		Packages:    budgets,
		StartTime:   start,
		EndTime:     req.EndTime,
	})
	if err != nil {
		o.failStep(ctx, tenantID, step.StepID, err)

		return nil, err
	}

	// Permanent identifiers are generated exactly once, before the gating
	// decision, and survive approval round trips unchanged.
	buy := &models.MediaBuy{
		MediaBuyID:  uuid.New().String(),
		TenantID:    tenantID,
		PrincipalID: principalID,
		BuyerRef:    req.BuyerRef,
		Currency:    currency,
		TotalBudget: total,
		StartTime:   start,
		EndTime:     req.EndTime,
		State:       models.MediaBuyStatePendingCreatives,
		PONumber:    req.PONumber,
		RawRequest:  raw,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	packages := make([]*models.Package, len(req.Packages))
	for i, pkg := range req.Packages {
		packages[i] = &models.Package{
			PackageID:        uuid.New().String(),
			MediaBuyID:       buy.MediaBuyID,
			TenantID:         tenantID,
			ProductID:        pkg.ProductID,
			Budget:           pkg.Budget,
			Pricing:          resolved[i],
			TargetingOverlay: pkg.TargetingOverlay,
			CreativeIDs:      pkg.CreativeIDs,
			BudgetPushState:  models.BudgetPushStateSynced,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	gated := tenant.RequireManualApproval ||
		adserver.RequiresManualApproval(adapter, adserver.OperationCreateMediaBuy) ||
		!tenant.AutoCreateEnabled ||
		anyAutoCreateDisabled(products)

	if gated {
		buy.State = models.MediaBuyStatePendingApproval
		buy.ApprovalNeeded = true
	}

	err = o.persistBuy(ctx, buy, packages)
	if err != nil {
		o.failStep(ctx, tenantID, step.StepID, err)

		return nil, err
	}

	err = o.engine.Link(ctx, step.StepID, objectTypeMediaBuy, buy.MediaBuyID, actionCreate)
	if err != nil {
		o.failStep(ctx, tenantID, step.StepID, err)

		return nil, err
	}

	if gated {
		return o.parkForApproval(ctx, tenant, buy, packages, step)
	}

	return o.dispatch(ctx, tenant, adapter, buy, packages, step, "")
}

// validateCreate performs the structural checks that need no external calls.
func (o *Orchestrator) validateCreate(ctx context.Context, tenant *models.Tenant, req *CreateMediaBuyRequest, now time.Time) (time.Time, []*models.Product, *ValidationError) {
	var fields []FieldError

	err := o.validator.Struct(req)
	if err != nil {
		fields = append(fields, FieldError{Field: "request", Message: err.Error()})
	}

	start, asap, err := req.ResolveStartTime(now)
	if err != nil {
		fields = append(fields, FieldError{Field: "start_time", Message: err.Error()})
	}

	if err == nil && !asap && start.Before(now) {
		fields = append(fields, FieldError{Field: "start_time", Message: "start time is in the past"})
	}

	if err == nil && !req.EndTime.After(start) {
		fields = append(fields, FieldError{Field: "end_time", Message: "end time must be after start time"})
	}

	seen := make(map[string]bool, len(req.Packages))
	products := make([]*models.Product, len(req.Packages))

	for i, pkg := range req.Packages {
		field := fmt.Sprintf("packages[%d]", i)

		if pkg.Budget <= 0 {
			fields = append(fields, FieldError{Field: field + ".budget", Message: "budget must be positive"})
		}

		if seen[pkg.ProductID] {
			fields = append(fields, FieldError{
				Field:   field + ".product_id",
				Message: fmt.Sprintf("%s: product %q referenced by more than one package", ErrDuplicateProduct, pkg.ProductID),
			})

			continue
		}

		seen[pkg.ProductID] = true

		product, err := o.persistence.ProductRepository().GetByID(ctx, tenant.TenantID, pkg.ProductID)
		if err != nil {
			if persistence.IsNotFound(err) {
				fields = append(fields, FieldError{Field: field + ".product_id", Message: "unknown product"})

				continue
			}

			fields = append(fields, FieldError{Field: field + ".product_id", Message: err.Error()})

			continue
		}

		products[i] = product

		overlayErrors, err := validateTargetingOverlay(i, pkg.TargetingOverlay)
		if err != nil {
			fields = append(fields, FieldError{Field: field + ".targeting_overlay", Message: err.Error()})
		}

		fields = append(fields, overlayErrors...)
	}

	if len(fields) > 0 {
		return time.Time{}, nil, &ValidationError{Fields: fields}
	}

	return start, products, nil
}

// persistBuy writes the buy and its packages. A duplicate buyer_ref loses to
// the store's unique constraint; the loser reads the winner's row and the
// caller gets a conflict it can resolve by reading, not a partial write.
func (o *Orchestrator) persistBuy(ctx context.Context, buy *models.MediaBuy, packages []*models.Package) error {
	err := o.persistence.MediaBuyRepository().Create(ctx, buy)
	if err != nil {
		if persistence.IsDuplicate(err) {
			existing, readErr := o.persistence.MediaBuyRepository().GetByBuyerRef(ctx, buy.TenantID, buy.PrincipalID, buy.BuyerRef)
			if readErr == nil {
				return fmt.Errorf("buyer_ref %q already used by media buy %s: %w", buy.BuyerRef, existing.MediaBuyID, err)
			}
		}

		return err
	}

	for _, pkg := range packages {
		err = o.persistence.PackageRepository().Create(ctx, pkg)
		if err != nil {
			return err
		}
	}

	return nil
}

// parkForApproval leaves the buy pending and the step waiting for a human.
// No adapter call happens on this path.
func (o *Orchestrator) parkForApproval(ctx context.Context, tenant *models.Tenant, buy *models.MediaBuy, packages []*models.Package, step *models.WorkflowStep) (*CreateMediaBuyResponse, error) {
	parked, err := json.Marshal(map[string]string{
		"media_buy_id": buy.MediaBuyID,
		"state":        string(buy.State),
	})
	if err != nil {
		return nil, err
	}

	_, err = o.engine.UpdateStep(ctx, buy.TenantID, step.StepID, models.StepStatusRequiresApproval, parked, "")
	if err != nil {
		return nil, err
	}

	event := events.MediaBuyPendingApproval{
		BaseEvent: events.NewBaseEvent(events.MediaBuyPendingApprovalEvent, buy.TenantID, buy.MediaBuyID),
		BuyerRef:  buy.BuyerRef,
		StepID:    step.StepID,
	}
	o.publish(ctx, buy.MediaBuyID, event)

	o.logger.InfoContext(ctx, "media buy parked for manual approval",
		"tenant_id", buy.TenantID, "media_buy_id", buy.MediaBuyID, "step_id", step.StepID)

	return &CreateMediaBuyResponse{
		MediaBuyID:     buy.MediaBuyID,
		BuyerRef:       buy.BuyerRef,
		Status:         string(models.MediaBuyStatusPendingActivation),
		Packages:       packageResponses(packages),
		WorkflowStepID: step.StepID,
	}, nil
}

// dispatch is the single path to the ad server, used by the auto-approved
// create flow and by approval resumption. The adapter's create operation is
// invoked at most once per buy; any failure finalizes the step as failed and
// surfaces synchronously with no retry.
func (o *Orchestrator) dispatch(ctx context.Context, tenant *models.Tenant, adapter adserver.Adapter, buy *models.MediaBuy, packages []*models.Package, step *models.WorkflowStep, approvedBy string) (*CreateMediaBuyResponse, error) {
	if !buy.DispatchEligible() {
		err := fmt.Errorf("%w: media buy %s is %s", ErrNotDispatchEligible, buy.MediaBuyID, buy.State)
		o.failStep(ctx, buy.TenantID, step.StepID, err)

		return nil, err
	}

	creativeIDs := collectCreativeIDs(packages)

	specs, creativesApproved, err := o.checkCreatives(ctx, tenant, buy.MediaBuyID, creativeIDs)
	if err != nil {
		o.failStep(ctx, buy.TenantID, step.StepID, err)

		return nil, err
	}

	resp, err := adapter.Create(ctx, buildCreateRequest(buy, packages))
	if err != nil {
		o.failDispatch(ctx, buy, step, err)

		return nil, err
	}

	err = o.reconcile(ctx, buy, packages, resp)
	if err != nil {
		o.failDispatch(ctx, buy, step, err)

		return nil, err
	}

	assetStatuses := o.syncCreativeAssets(ctx, adapter, buy, packages, creativeIDs, specs)

	status := o.resolveStatus(buy, creativeIDs, creativesApproved)

	snapshot, err := json.Marshal(map[string]any{
		"media_buy_id": buy.MediaBuyID,
		"external_id":  buy.ExternalID,
		"status":       string(status),
	})
	if err != nil {
		return nil, err
	}

	_, err = o.engine.UpdateStep(ctx, buy.TenantID, step.StepID, models.StepStatusCompleted, snapshot, "")
	if err != nil {
		return nil, err
	}

	o.emitAccepted(ctx, buy, packages, step, approvedBy)

	o.logger.InfoContext(ctx, "media buy accepted",
		"tenant_id", buy.TenantID, "media_buy_id", buy.MediaBuyID, "external_id", buy.ExternalID)

	return &CreateMediaBuyResponse{
		MediaBuyID:    buy.MediaBuyID,
		BuyerRef:      buy.BuyerRef,
		Status:        string(status),
		ExternalID:    buy.ExternalID,
		Packages:      packageResponses(packages),
		AssetStatuses: assetStatuses,
	}, nil
}

// checkCreatives runs format validation and the creative gate over every
// referenced creative. All must pass before the ad server is touched. The
// second return reports whether every referenced creative is approved; the
// status resolver consumes it so the create response and later reads agree.
func (o *Orchestrator) checkCreatives(ctx context.Context, tenant *models.Tenant, mediaBuyID string, creativeIDs []string) (map[string]*models.FormatSpec, bool, error) {
	if len(creativeIDs) == 0 {
		return nil, false, nil
	}

	loaded, err := o.persistence.CreativeRepository().GetByIDs(ctx, tenant.TenantID, creativeIDs)
	if err != nil {
		return nil, false, err
	}

	approved := true
	for _, creative := range loaded {
		if !creative.Approved {
			approved = false

			break
		}
	}

	specs, err := o.formats.ValidateCreatives(ctx, tenant, loaded)
	if err != nil {
		return nil, false, err
	}

	err = o.gate.Check(ctx, tenant.TenantID, mediaBuyID, creativeIDs, specs)
	if err != nil {
		return nil, false, err
	}

	return specs, approved, nil
}

// reconcile persists the identifiers the ad server assigned. Only
// adapter-returned ids are used; an omitted order or package id is fatal
// because downstream budget and creative tracking needs a stable external key.
func (o *Orchestrator) reconcile(ctx context.Context, buy *models.MediaBuy, packages []*models.Package, resp *adserver.CreateResponse) error {
	if resp.MediaBuyID == "" {
		return &ReconciliationError{MediaBuyID: buy.MediaBuyID}
	}

	results := make(map[string]adserver.PackageResult, len(resp.Packages))
	for _, result := range resp.Packages {
		results[result.PackageID] = result
	}

	now := time.Now().UTC()

	for _, pkg := range packages {
		result, ok := results[pkg.PackageID]
		if !ok {
			return &ReconciliationError{MediaBuyID: buy.MediaBuyID, PackageID: pkg.PackageID}
		}

		pkg.ExternalID = result.PackageID
		pkg.Paused = result.Paused
		pkg.UpdatedAt = now

		err := o.persistence.PackageRepository().Update(ctx, pkg)
		if err != nil {
			return err
		}

		err = o.ensureAssignments(ctx, pkg, now)
		if err != nil {
			return err
		}
	}

	err := o.persistence.MediaBuyRepository().TransitionState(ctx, buy.TenantID, buy.MediaBuyID, buy.State, models.MediaBuyStateAccepted)
	if err != nil {
		return err
	}

	buy.State = models.MediaBuyStateAccepted
	buy.ExternalID = resp.MediaBuyID
	buy.UpdatedAt = now

	return o.persistence.MediaBuyRepository().Update(ctx, buy)
}

// ensureAssignments creates one assignment row per referenced creative. An
// existing row from a concurrent writer is read and kept.
func (o *Orchestrator) ensureAssignments(ctx context.Context, pkg *models.Package, now time.Time) error {
	for _, creativeID := range pkg.CreativeIDs {
		assignment := &models.CreativeAssignment{
			AssignmentID: uuid.New().String(),
			TenantID:     pkg.TenantID,
			MediaBuyID:   pkg.MediaBuyID,
			PackageID:    pkg.PackageID,
			CreativeID:   creativeID,
			Weight:       100,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err := o.persistence.AssignmentRepository().Create(ctx, assignment)
		if err != nil && !persistence.IsDuplicate(err) {
			return err
		}
	}

	return nil
}

// syncCreativeAssets pushes creative content to the ad server after
// reconciliation. Failures are recorded and logged, never fatal; the buy is
// already accepted and asset sync can be repeated.
func (o *Orchestrator) syncCreativeAssets(ctx context.Context, adapter adserver.Adapter, buy *models.MediaBuy, packages []*models.Package, creativeIDs []string, specs map[string]*models.FormatSpec) []AssetSyncStatus {
	if len(creativeIDs) == 0 {
		return nil
	}

	loaded, err := o.persistence.CreativeRepository().GetByIDs(ctx, buy.TenantID, creativeIDs)
	if err != nil {
		o.logger.WarnContext(ctx, "failed to load creatives for asset sync",
			"media_buy_id", buy.MediaBuyID, "error", err)

		return nil
	}

	packagesByCreative := make(map[string][]string)
	for _, pkg := range packages {
		for _, creativeID := range pkg.CreativeIDs {
			packagesByCreative[creativeID] = append(packagesByCreative[creativeID], pkg.ExternalID)
		}
	}

	uploads := make([]adserver.AssetUpload, 0, len(loaded))

	for _, creative := range loaded {
		spec := specs[creative.CreativeID]
		if spec != nil && spec.IsGenerative {
			continue
		}

		uploads = append(uploads, adserver.AssetUpload{
			CreativeID: creative.CreativeID,
			Name:       creative.Name,
			URL:        contentURL(creative),
			Width:      contentWidth(creative),
			Height:     contentHeight(creative),
			PackageIDs: packagesByCreative[creative.CreativeID],
		})
	}

	if len(uploads) == 0 {
		return nil
	}

	statuses, err := adapter.AddCreativeAssets(ctx, buy.ExternalID, uploads, time.Now().UTC())
	if err != nil {
		o.logger.WarnContext(ctx, "creative asset sync failed",
			"media_buy_id", buy.MediaBuyID, "external_id", buy.ExternalID, "error", err)

		return nil
	}

	out := make([]AssetSyncStatus, len(statuses))
	for i, status := range statuses {
		out[i] = AssetSyncStatus{
			CreativeID: status.CreativeID,
			Status:     status.Status,
			Message:    status.Message,
		}
	}

	return out
}

// resolveStatus feeds the status resolver the same four inputs regardless of
// which adapter served the buy.
func (o *Orchestrator) resolveStatus(buy *models.MediaBuy, creativeIDs []string, creativesApproved bool) models.MediaBuyStatus {
	return workflow.ResolveStatus(workflow.StatusInput{
		ManualApprovalRequired: buy.ApprovalNeeded && buy.State == models.MediaBuyStatePendingApproval,
		HasCreatives:           len(creativeIDs) > 0,
		CreativesApproved:      creativesApproved,
		StartTime:              buy.StartTime,
		EndTime:                buy.EndTime,
	}, time.Now().UTC())
}

// failDispatch marks both the step and the buy failed and emits the failure
// event. The adapter is never retried from here.
func (o *Orchestrator) failDispatch(ctx context.Context, buy *models.MediaBuy, step *models.WorkflowStep, cause error) {
	o.failStep(ctx, buy.TenantID, step.StepID, cause)

	err := o.persistence.MediaBuyRepository().TransitionState(ctx, buy.TenantID, buy.MediaBuyID, buy.State, models.MediaBuyStateFailed)
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to mark media buy failed",
			"media_buy_id", buy.MediaBuyID, "error", err)
	} else {
		buy.State = models.MediaBuyStateFailed
	}

	event := events.MediaBuyFailed{
		BaseEvent: events.NewBaseEvent(events.MediaBuyFailedEvent, buy.TenantID, buy.MediaBuyID),
		StepID:    step.StepID,
		Error:     cause.Error(),
	}
	o.publish(ctx, buy.MediaBuyID, event)

	o.logger.ErrorContext(ctx, "media buy dispatch failed",
		"tenant_id", buy.TenantID, "media_buy_id", buy.MediaBuyID, "error", cause)
}

// failStep finalizes a step as failed with the error captured verbatim.
func (o *Orchestrator) failStep(ctx context.Context, tenantID, stepID string, cause error) {
	_, err := o.engine.UpdateStep(ctx, tenantID, stepID, models.StepStatusFailed, nil, cause.Error())
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to finalize workflow step",
			"step_id", stepID, "error", err)
	}
}

func (o *Orchestrator) emitAccepted(ctx context.Context, buy *models.MediaBuy, packages []*models.Package, step *models.WorkflowStep, approvedBy string) {
	packageIDs := make([]string, len(packages))
	for i, pkg := range packages {
		packageIDs[i] = pkg.PackageID
	}

	if approvedBy != "" {
		event := events.MediaBuyApproved{
			BaseEvent:  events.NewBaseEvent(events.MediaBuyApprovedEvent, buy.TenantID, buy.MediaBuyID),
			StepID:     step.StepID,
			ApprovedBy: approvedBy,
			ExternalID: buy.ExternalID,
		}
		o.publish(ctx, buy.MediaBuyID, event)

		return
	}

	event := events.MediaBuyCreated{
		BaseEvent:  events.NewBaseEvent(events.MediaBuyCreatedEvent, buy.TenantID, buy.MediaBuyID),
		BuyerRef:   buy.BuyerRef,
		ExternalID: buy.ExternalID,
		PackageIDs: packageIDs,
	}
	o.publish(ctx, buy.MediaBuyID, event)
}

func buildCreateRequest(buy *models.MediaBuy, packages []*models.Package) adserver.CreateRequest {
	req := adserver.CreateRequest{
		MediaBuyID: buy.MediaBuyID,
		BuyerRef:   buy.BuyerRef,
		PONumber:   buy.PONumber,
		Currency:   buy.Currency,
		StartTime:  buy.StartTime,
		EndTime:    buy.EndTime,
		Packages:   make([]adserver.CreatePackage, len(packages)),
	}

	for i, pkg := range packages {
		req.Packages[i] = adserver.CreatePackage{
			PackageID:        pkg.PackageID,
			ProductID:        pkg.ProductID,
			Budget:           pkg.Budget,
			Pricing:          *pkg.Pricing,
			TargetingOverlay: pkg.TargetingOverlay,
			Paused:           pkg.Paused,
		}
	}

	return req
}

func collectCreativeIDs(packages []*models.Package) []string {
	var ids []string

	seen := make(map[string]bool)

	for _, pkg := range packages {
		for _, id := range pkg.CreativeIDs {
			if !seen[id] {
				seen[id] = true

				ids = append(ids, id)
			}
		}
	}

	return ids
}

func packageResponses(packages []*models.Package) []PackageResponse {
	out := make([]PackageResponse, len(packages))
	for i, pkg := range packages {
		out[i] = PackageResponse{
			PackageID:       pkg.PackageID,
			ProductID:       pkg.ProductID,
			Budget:          pkg.Budget,
			Paused:          pkg.Paused,
			CreativeIDs:     pkg.CreativeIDs,
			BudgetPushState: string(pkg.BudgetPushState),
		}
	}

	return out
}

func anyAutoCreateDisabled(products []*models.Product) bool {
	for _, product := range products {
		if product != nil && !product.AutoCreateEnabled {
			return true
		}
	}

	return false
}

func contentURL(creative *models.Creative) string {
	for _, asset := range creative.Assets {
		if asset.URL != "" {
			return asset.URL
		}
	}

	return creative.ContentURL
}

func contentWidth(creative *models.Creative) float64 {
	for _, asset := range creative.Assets {
		if asset.URL != "" {
			return asset.Width
		}
	}

	return creative.Width
}

func contentHeight(creative *models.Creative) float64 {
	for _, asset := range creative.Assets {
		if asset.URL != "" {
			return asset.Height
		}
	}

	return creative.Height
}
