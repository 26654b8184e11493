package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/adserver/mock"
	"github.com/buyflow/buyflow/pkg/creatives"
	"github.com/buyflow/buyflow/pkg/events"
	"github.com/buyflow/buyflow/pkg/formats"
	"github.com/buyflow/buyflow/pkg/log"
	"github.com/buyflow/buyflow/pkg/mocks"
	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence/memory"
)

const (
	testTenantID    = "tenant-1"
	testPrincipalID = "principal-1"
	testAgentURL    = "https://agent.example.com"
)

// stubAgentDirectory serves the display format for the registered test agent.
type stubAgentDirectory struct{}

func (stubAgentDirectory) GetFormat(ctx context.Context, agentURL, formatID string) (*models.FormatSpec, error) {
	if formats.NormalizeAgentURL(agentURL) == testAgentURL && formatID == "display_300x250" {
		return &models.FormatSpec{FormatID: formatID, AgentURL: testAgentURL}, nil
	}

	return nil, nil
}

type testEnv struct {
	orch      *Orchestrator
	store     *memory.Persistence
	adapter   *mock.Adapter
	publisher *mocks.CapturingPublisher
}

func newTestEnv(t *testing.T, tenantMutators []func(*models.Tenant), adapterOpts ...mock.Option) *testEnv {
	t.Helper()

	ctx := context.Background()
	store := memory.NewPersistence()

	tenant := &models.Tenant{
		TenantID:          testTenantID,
		Name:              "Test Publisher",
		AdServer:          "mock",
		AutoCreateEnabled: true,
		CurrencyLimits: []models.CurrencyLimit{
			{Currency: "USD", MinPackageBudget: 100, MaxDailyPackageSpend: 1000},
		},
		CreativeAgents: []string{testAgentURL},
	}
	for _, mutate := range tenantMutators {
		mutate(tenant)
	}

	require.NoError(t, store.TenantRepository().Create(ctx, tenant))

	for _, productID := range []string{"P1", "P2"} {
		require.NoError(t, store.ProductRepository().Create(ctx, &models.Product{
			ProductID:         productID,
			TenantID:          testTenantID,
			Name:              "Product " + productID,
			AutoCreateEnabled: true,
			PricingOptions: []*models.PricingOption{
				{PricingModel: "cpm", Currency: "USD", IsFixed: true, Rate: 10},
			},
		}))
	}

	adapter := mock.NewAdapter(adapterOpts...)
	registry := adserver.NewRegistry(log.WithModule("adserver-test"))
	registry.Register(mock.NewSharedFactory(adapter))

	publisher := &mocks.CapturingPublisher{}
	orch := New(store, registry, formats.NewValidator(stubAgentDirectory{}), publisher)

	return &testEnv{orch: orch, store: store, adapter: adapter, publisher: publisher}
}

func (e *testEnv) seedCreative(t *testing.T, creative *models.Creative) {
	t.Helper()

	creative.TenantID = testTenantID
	if creative.Format.AgentURL == "" {
		creative.Format = models.FormatRef{AgentURL: testAgentURL, FormatID: "display_300x250"}
	}

	require.NoError(t, e.store.CreativeRepository().Create(context.Background(), creative))
}

func createPayload(t *testing.T, packages ...PackageRequest) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(CreateMediaBuyRequest{
		BuyerRef:  "br-1",
		StartTime: StartASAP,
		EndTime:   time.Now().UTC().AddDate(0, 0, 10),
		Packages:  packages,
	})
	require.NoError(t, err)

	return raw
}

func (e *testEnv) stepFor(t *testing.T, mediaBuyID string) *models.WorkflowStep {
	t.Helper()

	ctx := context.Background()

	trail, err := e.orch.Engine().AuditTrail(ctx, "media_buy", mediaBuyID)
	require.NoError(t, err)
	require.NotEmpty(t, trail)

	step, err := e.orch.Engine().GetStep(ctx, testTenantID, trail[len(trail)-1].StepID)
	require.NoError(t, err)

	return step
}

func TestCreateMediaBuy_AutoApprovedHappyPath(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCreative(t, &models.Creative{
		CreativeID: "cr-1",
		ContentURL: "https://cdn.example.com/cr-1.png",
		Width:      300,
		Height:     250,
		Approved:   true,
	})

	resp, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000, CreativeIDs: []string{"cr-1"}}))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.MediaBuyID)
	assert.Equal(t, "mock-order-"+resp.MediaBuyID, resp.ExternalID)
	assert.Equal(t, string(models.MediaBuyStatusActive), resp.Status)
	require.Len(t, resp.Packages, 1)
	assert.Equal(t, 1, env.adapter.CreateCalls())
	assert.Equal(t, 1, env.adapter.AssetCalls())

	buy, err := env.store.MediaBuyRepository().GetByID(context.Background(), testTenantID, resp.MediaBuyID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateAccepted, buy.State)
	assert.Equal(t, "USD", buy.Currency)

	step := env.stepFor(t, resp.MediaBuyID)
	assert.Equal(t, models.StepStatusCompleted, step.Status)

	assert.Len(t, env.publisher.Published(events.MediaBuyCreatedEvent), 1)
}

func TestCreateMediaBuy_DuplicateProductFails(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t,
			PackageRequest{ProductID: "P1", Budget: 500},
			PackageRequest{ProductID: "P1", Budget: 500},
		))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "P1")
	assert.Equal(t, 0, env.adapter.CreateCalls())
}

func TestCreateMediaBuy_TenantRequiresReviewParksWithoutAdapterCall(t *testing.T) {
	env := newTestEnv(t, []func(*models.Tenant){func(tenant *models.Tenant) {
		tenant.RequireManualApproval = true
	}})

	resp, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.WorkflowStepID)
	assert.Equal(t, string(models.MediaBuyStatusPendingActivation), resp.Status)
	assert.Equal(t, 0, env.adapter.CreateCalls())

	step, err := env.orch.Engine().GetStep(context.Background(), testTenantID, resp.WorkflowStepID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusRequiresApproval, step.Status)

	buy, err := env.store.MediaBuyRepository().GetByID(context.Background(), testTenantID, resp.MediaBuyID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStatePendingApproval, buy.State)

	assert.Len(t, env.publisher.Published(events.MediaBuyPendingApprovalEvent), 1)
}

func TestCreateMediaBuy_CreativeMissingDimensionsFailsBeforeAdapter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCreative(t, &models.Creative{
		CreativeID: "cr-nodims",
		ContentURL: "https://cdn.example.com/cr.png",
	})

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000, CreativeIDs: []string{"cr-nodims"}}))
	require.Error(t, err)
	assert.True(t, creatives.IsValidationError(err))
	assert.Contains(t, err.Error(), "cr-nodims")
	assert.Equal(t, 0, env.adapter.CreateCalls())
}

func TestCreateMediaBuy_IdentifiersSurviveApprovalRoundTrip(t *testing.T) {
	env := newTestEnv(t, []func(*models.Tenant){func(tenant *models.Tenant) {
		tenant.RequireManualApproval = true
	}})

	ctx := context.Background()

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)
	require.Len(t, created.Packages, 1)

	parkedPackageID := created.Packages[0].PackageID

	approved, err := env.orch.ApproveStep(ctx, testTenantID, created.WorkflowStepID, "reviewer-1", "approved after inventory check")
	require.NoError(t, err)

	assert.Equal(t, created.MediaBuyID, approved.MediaBuyID)
	assert.Equal(t, "mock-order-"+created.MediaBuyID, approved.ExternalID)
	assert.True(t, approved.OrderApproved)
	assert.Equal(t, 1, env.adapter.CreateCalls())
	assert.Equal(t, 1, env.adapter.ApproveCalls())

	view, err := env.orch.GetMediaBuy(ctx, testTenantID, created.MediaBuyID)
	require.NoError(t, err)
	require.Len(t, view.Packages, 1)
	assert.Equal(t, parkedPackageID, view.Packages[0].PackageID)
	assert.Equal(t, models.MediaBuyStateAccepted, view.MediaBuy.State)
}

func TestRejectStep_NeverCallsAdapter(t *testing.T) {
	env := newTestEnv(t, []func(*models.Tenant){func(tenant *models.Tenant) {
		tenant.RequireManualApproval = true
	}})

	ctx := context.Background()

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	rejected, err := env.orch.RejectStep(ctx, testTenantID, created.WorkflowStepID, "reviewer-1", "campaign not approved by legal")
	require.NoError(t, err)

	assert.Equal(t, string(models.StepStatusRejected), rejected.Status)
	assert.Equal(t, 0, env.adapter.CreateCalls())

	buy, err := env.store.MediaBuyRepository().GetByID(ctx, testTenantID, created.MediaBuyID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateRejected, buy.State)

	// Rejection is terminal; a second decision on the same step is refused.
	_, err = env.orch.ApproveStep(ctx, testTenantID, created.WorkflowStepID, "reviewer-2", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotApprovable)
}

func TestCreateMediaBuy_AdapterRejectionFinalizesStepFailed(t *testing.T) {
	env := newTestEnv(t, nil, mock.WithCreateFailure(adserver.Issue{Code: "NO_INVENTORY", Message: "no inventory"}))

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.Error(t, err)
	assert.True(t, adserver.IsAdapterError(err))
	assert.Equal(t, 1, env.adapter.CreateCalls())

	buy, err := env.store.MediaBuyRepository().GetByBuyerRef(context.Background(), testTenantID, testPrincipalID, "br-1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateFailed, buy.State)

	step := env.stepFor(t, buy.MediaBuyID)
	assert.Equal(t, models.StepStatusFailed, step.Status)
	assert.Contains(t, step.Error, "no inventory")

	assert.Len(t, env.publisher.Published(events.MediaBuyFailedEvent), 1)
}

func TestCreateMediaBuy_OmittedOrderIDIsFatal(t *testing.T) {
	env := newTestEnv(t, nil, mock.WithOmittedOrderID())

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.Error(t, err)
	assert.True(t, IsReconciliationError(err))
	assert.Contains(t, err.Error(), "order id")

	buy, err := env.store.MediaBuyRepository().GetByBuyerRef(context.Background(), testTenantID, testPrincipalID, "br-1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateFailed, buy.State)
	assert.Empty(t, buy.ExternalID)
}

func TestCreateMediaBuy_OmittedPackageIDIsFatal(t *testing.T) {
	env := newTestEnv(t, nil, mock.WithOmittedPackageIDs())

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.Error(t, err)
	assert.True(t, IsReconciliationError(err))

	buy, err := env.store.MediaBuyRepository().GetByBuyerRef(context.Background(), testTenantID, testPrincipalID, "br-1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateFailed, buy.State)
}

func TestCreateMediaBuy_EventFailureNeverRollsBackTheBuy(t *testing.T) {
	env := newTestEnv(t, nil)
	env.publisher.FailAll = errors.New("broker unavailable")

	resp, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	buy, err := env.store.MediaBuyRepository().GetByID(context.Background(), testTenantID, resp.MediaBuyID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateAccepted, buy.State)
}

func TestCreateMediaBuy_UnapprovedCreativeStatusAgreesWithRead(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCreative(t, &models.Creative{
		CreativeID: "cr-pending",
		ContentURL: "https://cdn.example.com/cr-pending.png",
		Width:      300,
		Height:     250,
	})

	resp, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000, CreativeIDs: []string{"cr-pending"}}))
	require.NoError(t, err)

	// Content-complete but unapproved creatives hold activation; the create
	// response and every subsequent read must report the same status.
	assert.Equal(t, string(models.MediaBuyStatusPendingActivation), resp.Status)

	view, err := env.orch.GetMediaBuy(context.Background(), testTenantID, resp.MediaBuyID)
	require.NoError(t, err)
	assert.Equal(t, resp.Status, view.Status)
}

func TestCreateMediaBuy_RejectedRequestLeavesFailedStep(t *testing.T) {
	env := newTestEnv(t, nil)

	raw := createPayload(t,
		PackageRequest{ProductID: "P1", Budget: 500},
		PackageRequest{ProductID: "P1", Budget: 500},
	)

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID, raw)
	require.Error(t, err)

	steps, err := env.orch.Engine().ListSteps(context.Background(), testTenantID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusFailed, steps[0].Status)
	assert.Contains(t, steps[0].Error, "P1")
	assert.Equal(t, []byte(raw), []byte(steps[0].RequestSnapshot))
}

func TestCreateMediaBuy_ZeroBudgetRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 0}))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "budget must be positive")
	assert.Equal(t, 0, env.adapter.CreateCalls())
}

func TestCreateMediaBuy_MissingBuyerRefRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	raw, err := json.Marshal(CreateMediaBuyRequest{
		StartTime: StartASAP,
		EndTime:   time.Now().UTC().AddDate(0, 0, 10),
		Packages:  []PackageRequest{{ProductID: "P1", Budget: 500}},
	})
	require.NoError(t, err)

	_, err = env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID, raw)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "BuyerRef")
	assert.Equal(t, 0, env.adapter.CreateCalls())
}

func TestCreateMediaBuy_DailyCapViolation(t *testing.T) {
	env := newTestEnv(t, nil)

	// 10-day flight, $15000 package, $1000/day cap.
	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 15000}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1500.00")
	assert.Equal(t, 0, env.adapter.CreateCalls())
}

func TestUpdateMediaBuy_PauseBothLevels(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	paused := true
	raw, err := json.Marshal(UpdateMediaBuyRequest{
		MediaBuyID: created.MediaBuyID,
		Paused:     &paused,
		Packages: []PackageUpdateRequest{
			{PackageID: created.Packages[0].PackageID, Paused: &paused},
		},
	})
	require.NoError(t, err)

	updated, err := env.orch.UpdateMediaBuy(ctx, testTenantID, testPrincipalID, raw)
	require.NoError(t, err)
	require.Len(t, updated.AffectedPackages, 1)
	assert.True(t, updated.AffectedPackages[0].Paused)

	buy, err := env.store.MediaBuyRepository().GetByID(ctx, testTenantID, created.MediaBuyID)
	require.NoError(t, err)
	assert.True(t, buy.Paused)

	assert.Len(t, env.publisher.Published(events.MediaBuyUpdatedEvent), 1)
}

func TestUpdateMediaBuy_BudgetChangeTrackedAsPendingPush(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	budget := 8000.0
	raw, err := json.Marshal(UpdateMediaBuyRequest{
		MediaBuyID: created.MediaBuyID,
		Packages: []PackageUpdateRequest{
			{PackageID: created.Packages[0].PackageID, Budget: &budget},
		},
	})
	require.NoError(t, err)

	updated, err := env.orch.UpdateMediaBuy(ctx, testTenantID, testPrincipalID, raw)
	require.NoError(t, err)
	require.Len(t, updated.AffectedPackages, 1)
	assert.Equal(t, string(models.BudgetPushStatePendingPush), updated.AffectedPackages[0].BudgetPushState)
}

func TestUpdateMediaBuy_FlightChangeCannotEvadeDailyCap(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	// $15000 over the existing 10-day flight violates the cap; stretching the
	// flight to 100 days in the same request must not rescue it.
	budget := 15000.0
	newEnd := time.Now().UTC().AddDate(0, 0, 100)
	raw, err := json.Marshal(UpdateMediaBuyRequest{
		MediaBuyID: created.MediaBuyID,
		EndTime:    &newEnd,
		Packages: []PackageUpdateRequest{
			{PackageID: created.Packages[0].PackageID, Budget: &budget},
		},
	})
	require.NoError(t, err)

	_, err = env.orch.UpdateMediaBuy(ctx, testTenantID, testPrincipalID, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily spend")
}

func TestUpdateMediaBuy_GatedUpdateLeavesExternalStateUntouched(t *testing.T) {
	env := newTestEnv(t, nil, mock.WithManualApprovalOperations(adserver.OperationUpdateMediaBuy))
	ctx := context.Background()

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000}))
	require.NoError(t, err)

	createCalls := env.adapter.CreateCalls()

	budget := 8000.0
	raw, err := json.Marshal(UpdateMediaBuyRequest{
		MediaBuyID: created.MediaBuyID,
		Packages: []PackageUpdateRequest{
			{PackageID: created.Packages[0].PackageID, Budget: &budget},
		},
	})
	require.NoError(t, err)

	updated, err := env.orch.UpdateMediaBuy(ctx, testTenantID, testPrincipalID, raw)
	require.NoError(t, err)
	assert.NotEmpty(t, updated.WorkflowStepID)
	assert.Equal(t, createCalls, env.adapter.CreateCalls())

	// Nothing changed locally either.
	pkg, err := env.store.PackageRepository().GetByID(ctx, testTenantID, created.Packages[0].PackageID)
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, pkg.Budget, 0.001)
}

func TestUpdateMediaBuy_CreativeReplacementDiffsAssignments(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.seedCreative(t, &models.Creative{
		CreativeID: "cr-old",
		ContentURL: "https://cdn.example.com/old.png",
		Width:      300, Height: 250,
	})
	env.seedCreative(t, &models.Creative{
		CreativeID: "cr-new",
		ContentURL: "https://cdn.example.com/new.png",
		Width:      300, Height: 250,
	})

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000, CreativeIDs: []string{"cr-old"}}))
	require.NoError(t, err)

	packageID := created.Packages[0].PackageID
	wanted := []string{"cr-new"}
	raw, err := json.Marshal(UpdateMediaBuyRequest{
		MediaBuyID: created.MediaBuyID,
		Packages: []PackageUpdateRequest{
			{PackageID: packageID, CreativeIDs: &wanted},
		},
	})
	require.NoError(t, err)

	_, err = env.orch.UpdateMediaBuy(ctx, testTenantID, testPrincipalID, raw)
	require.NoError(t, err)

	assignments, err := env.store.AssignmentRepository().ListByPackage(ctx, testTenantID, created.MediaBuyID, packageID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "cr-new", assignments[0].CreativeID)
}

func TestUpdateMediaBuy_AssignmentWeightUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.seedCreative(t, &models.Creative{
		CreativeID: "cr-1",
		ContentURL: "https://cdn.example.com/cr-1.png",
		Width:      300, Height: 250,
	})

	created, err := env.orch.CreateMediaBuy(ctx, testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{ProductID: "P1", Budget: 5000, CreativeIDs: []string{"cr-1"}}))
	require.NoError(t, err)

	packageID := created.Packages[0].PackageID
	weight := 40
	raw, err := json.Marshal(UpdateMediaBuyRequest{
		MediaBuyID: created.MediaBuyID,
		Packages: []PackageUpdateRequest{
			{PackageID: packageID, Assignments: []AssignmentUpdateRequest{
				{CreativeID: "cr-1", Weight: &weight, PlacementIDs: []string{"pl-1"}},
			}},
		},
	})
	require.NoError(t, err)

	_, err = env.orch.UpdateMediaBuy(ctx, testTenantID, testPrincipalID, raw)
	require.NoError(t, err)

	assignments, err := env.store.AssignmentRepository().ListByPackage(ctx, testTenantID, created.MediaBuyID, packageID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 40, assignments[0].Weight)
	assert.Equal(t, []string{"pl-1"}, assignments[0].PlacementIDs)
}

func TestCreateMediaBuy_TargetingOverlayRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.orch.CreateMediaBuy(context.Background(), testTenantID, testPrincipalID,
		createPayload(t, PackageRequest{
			ProductID: "P1",
			Budget:    5000,
			TargetingOverlay: map[string]any{
				"device_type_any_of": []string{"toaster"},
			},
		}))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "targeting_overlay")
}
