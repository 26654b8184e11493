package creatives

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/persistence/memory"
)

func seededGate(t *testing.T, creativesToAdd ...*models.Creative) *Gate {
	t.Helper()

	store := memory.NewPersistence()
	for _, creative := range creativesToAdd {
		require.NoError(t, store.CreativeRepository().Create(context.Background(), creative))
	}

	return NewGate(store.CreativeRepository())
}

func readyCreative(id string) *models.Creative {
	return &models.Creative{
		CreativeID: id,
		TenantID:   "tenant-1",
		ContentURL: "https://cdn.example.com/" + id + ".png",
		Width:      300,
		Height:     250,
	}
}

func TestGate_EmptyCreativeSetPasses(t *testing.T) {
	gate := seededGate(t)

	err := gate.Check(context.Background(), "tenant-1", "mb-1", nil, nil)
	require.NoError(t, err)
}

func TestGate_ReadyCreativePasses(t *testing.T) {
	gate := seededGate(t, readyCreative("cr-1"))

	err := gate.Check(context.Background(), "tenant-1", "mb-1", []string{"cr-1"}, nil)
	require.NoError(t, err)
}

func TestGate_MissingCreativeFailsLoad(t *testing.T) {
	gate := seededGate(t, readyCreative("cr-1"))

	err := gate.Check(context.Background(), "tenant-1", "mb-1", []string{"cr-1", "cr-ghost"}, nil)
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestGate_AggregatesEveryOffender(t *testing.T) {
	noURL := &models.Creative{CreativeID: "cr-nourl", TenantID: "tenant-1", Width: 300, Height: 250}
	noDims := &models.Creative{CreativeID: "cr-nodims", TenantID: "tenant-1", ContentURL: "https://cdn.example.com/x.png"}

	gate := seededGate(t, readyCreative("cr-ok"), noURL, noDims)

	err := gate.Check(context.Background(), "tenant-1", "mb-1", []string{"cr-ok", "cr-nourl", "cr-nodims"}, nil)
	require.Error(t, err)

	var ve *ValidationError

	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "mb-1", ve.MediaBuyID)

	offenders := make([]string, 0, len(ve.Problems))
	for _, problem := range ve.Problems {
		offenders = append(offenders, problem.CreativeID)
	}

	assert.Contains(t, offenders, "cr-nourl")
	assert.Contains(t, offenders, "cr-nodims")
	assert.NotContains(t, offenders, "cr-ok")
}

func TestGate_GenerativeFormatExempt(t *testing.T) {
	bare := &models.Creative{CreativeID: "cr-gen", TenantID: "tenant-1"}
	gate := seededGate(t, bare)

	specs := map[string]*models.FormatSpec{
		"cr-gen": {FormatID: "generative_video", IsGenerative: true},
	}

	err := gate.Check(context.Background(), "tenant-1", "mb-1", []string{"cr-gen"}, specs)
	require.NoError(t, err)
}

func TestGate_SlotAssetWinsOverTopLevelFallback(t *testing.T) {
	creative := &models.Creative{
		CreativeID: "cr-slot",
		TenantID:   "tenant-1",
		Assets: []models.CreativeAsset{
			{SlotID: "main", URL: "https://cdn.example.com/slot.png", Width: 728, Height: 90},
		},
		// Top-level fields are stale and incomplete; the slot asset carries
		// the effective content.
		ContentURL: "",
		Width:      0,
		Height:     0,
	}
	gate := seededGate(t, creative)

	err := gate.Check(context.Background(), "tenant-1", "mb-1", []string{"cr-slot"}, nil)
	require.NoError(t, err)
}

func TestGate_SlotAssetWithoutDimensionsFails(t *testing.T) {
	creative := &models.Creative{
		CreativeID: "cr-baddims",
		TenantID:   "tenant-1",
		Assets: []models.CreativeAsset{
			{SlotID: "main", URL: "https://cdn.example.com/slot.png"},
		},
	}
	gate := seededGate(t, creative)

	err := gate.Check(context.Background(), "tenant-1", "mb-1", []string{"cr-baddims"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cr-baddims")
	assert.Contains(t, err.Error(), "dimensions")
}
