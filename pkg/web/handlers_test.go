package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyflow/buyflow/pkg/adserver"
	"github.com/buyflow/buyflow/pkg/adserver/mock"
	"github.com/buyflow/buyflow/pkg/formats"
	"github.com/buyflow/buyflow/pkg/log"
	"github.com/buyflow/buyflow/pkg/mocks"
	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/orchestrator"
	"github.com/buyflow/buyflow/pkg/persistence/memory"
)

type noAgents struct{}

func (noAgents) GetFormat(ctx context.Context, agentURL, formatID string) (*models.FormatSpec, error) {
	return nil, nil
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	ctx := context.Background()
	store := memory.NewPersistence()

	require.NoError(t, store.TenantRepository().Create(ctx, &models.Tenant{
		TenantID:          "t1",
		Name:              "Test Publisher",
		AdServer:          "mock",
		AutoCreateEnabled: true,
		CurrencyLimits:    []models.CurrencyLimit{{Currency: "USD"}},
	}))
	require.NoError(t, store.ProductRepository().Create(ctx, &models.Product{
		ProductID:         "P1",
		TenantID:          "t1",
		Name:              "Homepage Takeover",
		AutoCreateEnabled: true,
		PricingOptions: []*models.PricingOption{
			{PricingModel: "cpm", Currency: "USD", IsFixed: true, Rate: 10},
		},
	}))

	registry := adserver.NewRegistry(log.WithModule("web-test"))
	registry.Register(mock.NewFactory())

	orch := orchestrator.New(store, registry, formats.NewValidator(noAgents{}), &mocks.CapturingPublisher{})

	app := fiber.New()
	NewAPIHandlers(orch, store, registry).Register(app)

	return app
}

func createBody(t *testing.T) []byte {
	t.Helper()

	raw, err := json.Marshal(orchestrator.CreateMediaBuyRequest{
		BuyerRef:  "br-web-1",
		StartTime: orchestrator.StartASAP,
		EndTime:   time.Now().UTC().AddDate(0, 0, 7),
		Packages:  []orchestrator.PackageRequest{{ProductID: "P1", Budget: 500}},
	})
	require.NoError(t, err)

	return raw
}

func doCreate(t *testing.T, app *fiber.App) orchestrator.CreateMediaBuyResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/media-buys", bytes.NewReader(createBody(t)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, "t1")
	req.Header.Set(HeaderPrincipalID, "p1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created orchestrator.CreateMediaBuyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	return created
}

func TestCreateMediaBuy_RequiresTenantHeader(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/media-buys", bytes.NewReader(createBody(t)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateMediaBuy_Created(t *testing.T) {
	app := setupTestApp(t)

	created := doCreate(t, app)
	assert.NotEmpty(t, created.MediaBuyID)
	assert.NotEmpty(t, created.ExternalID)
	assert.Len(t, created.Packages, 1)
}

func TestCreateMediaBuy_DuplicateBuyerRefConflicts(t *testing.T) {
	app := setupTestApp(t)

	doCreate(t, app)

	req := httptest.NewRequest(http.MethodPost, "/media-buys", bytes.NewReader(createBody(t)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, "t1")
	req.Header.Set(HeaderPrincipalID, "p1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetMediaBuy_NotFound(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/media-buys/does-not-exist", nil)
	req.Header.Set(HeaderTenantID, "t1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMediaBuy_ReturnsComputedStatus(t *testing.T) {
	app := setupTestApp(t)

	created := doCreate(t, app)

	req := httptest.NewRequest(http.MethodGet, "/media-buys/"+created.MediaBuyID, nil)
	req.Header.Set(HeaderTenantID, "t1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		MediaBuy struct {
			MediaBuyID string `json:"media_buy_id"`
		} `json:"media_buy"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, created.MediaBuyID, view.MediaBuy.MediaBuyID)
	assert.NotEmpty(t, view.Status)
}

func TestUpdateMediaBuy_PathIdentifiesTheBuy(t *testing.T) {
	app := setupTestApp(t)

	created := doCreate(t, app)

	body := []byte(`{"paused": true}`)
	req := httptest.NewRequest(http.MethodPatch, "/media-buys/"+created.MediaBuyID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, "t1")
	req.Header.Set(HeaderPrincipalID, "p1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated orchestrator.UpdateMediaBuyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, created.MediaBuyID, updated.MediaBuyID)
}

func TestApproveWorkflowStep_UserIsRequired(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/workflow-steps/step-1/approve", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTenantID, "t1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
