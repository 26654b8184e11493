package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

func seedBuy(t *testing.T, store *Persistence, mediaBuyID, buyerRef string) *models.MediaBuy {
	t.Helper()

	buy := &models.MediaBuy{
		MediaBuyID:  mediaBuyID,
		TenantID:    "t1",
		PrincipalID: "p1",
		BuyerRef:    buyerRef,
		State:       models.MediaBuyStatePendingCreatives,
	}
	require.NoError(t, store.MediaBuyRepository().Create(context.Background(), buy))

	return buy
}

func TestMediaBuyBuyerRefUnique(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	seedBuy(t, store, "mb-1", "br-1")

	err := store.MediaBuyRepository().Create(ctx, &models.MediaBuy{
		MediaBuyID:  "mb-2",
		TenantID:    "t1",
		PrincipalID: "p1",
		BuyerRef:    "br-1",
		State:       models.MediaBuyStatePendingCreatives,
	})
	require.Error(t, err)
	assert.True(t, persistence.IsDuplicate(err))

	// Same ref under another principal is a different scope.
	err = store.MediaBuyRepository().Create(ctx, &models.MediaBuy{
		MediaBuyID:  "mb-3",
		TenantID:    "t1",
		PrincipalID: "p2",
		BuyerRef:    "br-1",
		State:       models.MediaBuyStatePendingCreatives,
	})
	require.NoError(t, err)

	found, err := store.MediaBuyRepository().GetByBuyerRef(ctx, "t1", "p1", "br-1")
	require.NoError(t, err)
	assert.Equal(t, "mb-1", found.MediaBuyID)
}

func TestMediaBuyTransitionStateIsConditional(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	seedBuy(t, store, "mb-1", "br-1")

	err := store.MediaBuyRepository().TransitionState(ctx, "t1", "mb-1",
		models.MediaBuyStatePendingCreatives, models.MediaBuyStateAccepted)
	require.NoError(t, err)

	// The expected-from state no longer holds; the transition must lose.
	err = store.MediaBuyRepository().TransitionState(ctx, "t1", "mb-1",
		models.MediaBuyStatePendingCreatives, models.MediaBuyStateFailed)
	require.Error(t, err)
	assert.True(t, persistence.IsStateConflict(err))

	buy, err := store.MediaBuyRepository().GetByID(ctx, "t1", "mb-1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStateAccepted, buy.State)
}

func TestMediaBuyDeleteCascades(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	seedBuy(t, store, "mb-1", "br-1")
	require.NoError(t, store.PackageRepository().Create(ctx, &models.Package{
		PackageID:  "pkg-1",
		TenantID:   "t1",
		MediaBuyID: "mb-1",
		ProductID:  "P1",
	}))
	require.NoError(t, store.AssignmentRepository().Create(ctx, &models.CreativeAssignment{
		AssignmentID: "asg-1",
		TenantID:     "t1",
		MediaBuyID:   "mb-1",
		PackageID:    "pkg-1",
		CreativeID:   "cr-1",
	}))

	require.NoError(t, store.MediaBuyRepository().Delete(ctx, "t1", "mb-1"))

	_, err := store.MediaBuyRepository().GetByID(ctx, "t1", "mb-1")
	assert.True(t, persistence.IsNotFound(err))

	_, err = store.PackageRepository().GetByID(ctx, "t1", "pkg-1")
	assert.True(t, persistence.IsNotFound(err))

	assignments, err := store.AssignmentRepository().ListByPackage(ctx, "t1", "mb-1", "pkg-1")
	require.NoError(t, err)
	assert.Empty(t, assignments)

	// The buyer ref is free again after the cascade.
	seedBuy(t, store, "mb-2", "br-1")
}

func TestGetReturnsCopies(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	seedBuy(t, store, "mb-1", "br-1")

	first, err := store.MediaBuyRepository().GetByID(ctx, "t1", "mb-1")
	require.NoError(t, err)

	first.State = models.MediaBuyStateFailed

	second, err := store.MediaBuyRepository().GetByID(ctx, "t1", "mb-1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStatePendingCreatives, second.State)
}

func TestCreativeGetByIDsFailsClosed(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	require.NoError(t, store.CreativeRepository().Create(ctx, &models.Creative{
		CreativeID: "cr-1",
		TenantID:   "t1",
		Format:     models.FormatRef{AgentURL: "https://agent.example.com", FormatID: "f1"},
	}))

	_, err := store.CreativeRepository().GetByIDs(ctx, "t1", []string{"cr-1", "cr-missing"})
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestAssignmentDuplicateTriple(t *testing.T) {
	store := NewPersistence()
	ctx := context.Background()

	assignment := &models.CreativeAssignment{
		AssignmentID: "asg-1",
		TenantID:     "t1",
		MediaBuyID:   "mb-1",
		PackageID:    "pkg-1",
		CreativeID:   "cr-1",
	}
	require.NoError(t, store.AssignmentRepository().Create(ctx, assignment))

	duplicate := *assignment
	duplicate.AssignmentID = "asg-2"
	err := store.AssignmentRepository().Create(ctx, &duplicate)
	require.Error(t, err)
	assert.True(t, persistence.IsDuplicate(err))
}
