package memory

import (
	"context"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

type mediaBuyRepository struct {
	store *Persistence
}

func (r *mediaBuyRepository) Create(ctx context.Context, buy *models.MediaBuy) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(buy.TenantID, buy.MediaBuyID)
	if _, exists := r.store.mediaBuys[id]; exists {
		return persistence.NewStoreError("Create", "media_buy", buy.TenantID, buy.MediaBuyID, persistence.ErrMediaBuyAlreadyExists)
	}

	refKey := key3(buy.TenantID, buy.PrincipalID, buy.BuyerRef)
	if _, exists := r.store.buyerRefs[refKey]; exists {
		return persistence.NewStoreError("Create", "media_buy", buy.TenantID, buy.BuyerRef, persistence.ErrMediaBuyAlreadyExists)
	}

	copied := *buy
	r.store.mediaBuys[id] = &copied
	r.store.buyerRefs[refKey] = buy.MediaBuyID

	return nil
}

func (r *mediaBuyRepository) GetByID(ctx context.Context, tenantID, mediaBuyID string) (*models.MediaBuy, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	buy, exists := r.store.mediaBuys[key2(tenantID, mediaBuyID)]
	if !exists {
		return nil, persistence.NewStoreError("GetByID", "media_buy", tenantID, mediaBuyID, persistence.ErrMediaBuyNotFound)
	}

	copied := *buy

	return &copied, nil
}

func (r *mediaBuyRepository) GetByBuyerRef(ctx context.Context, tenantID, principalID, buyerRef string) (*models.MediaBuy, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	mediaBuyID, exists := r.store.buyerRefs[key3(tenantID, principalID, buyerRef)]
	if !exists {
		return nil, persistence.NewStoreError("GetByBuyerRef", "media_buy", tenantID, buyerRef, persistence.ErrMediaBuyNotFound)
	}

	copied := *r.store.mediaBuys[key2(tenantID, mediaBuyID)]

	return &copied, nil
}

func (r *mediaBuyRepository) Update(ctx context.Context, buy *models.MediaBuy) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(buy.TenantID, buy.MediaBuyID)
	if _, exists := r.store.mediaBuys[id]; !exists {
		return persistence.NewStoreError("Update", "media_buy", buy.TenantID, buy.MediaBuyID, persistence.ErrMediaBuyNotFound)
	}

	copied := *buy
	r.store.mediaBuys[id] = &copied

	return nil
}

func (r *mediaBuyRepository) TransitionState(ctx context.Context, tenantID, mediaBuyID string, from, to models.MediaBuyState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	buy, exists := r.store.mediaBuys[key2(tenantID, mediaBuyID)]
	if !exists {
		return persistence.NewStoreError("TransitionState", "media_buy", tenantID, mediaBuyID, persistence.ErrMediaBuyNotFound)
	}

	if buy.State != from {
		return persistence.NewStoreError("TransitionState", "media_buy", tenantID, mediaBuyID, persistence.ErrStateConflict)
	}

	buy.State = to

	return nil
}

// Delete removes the buy and cascades to its packages and assignments.
func (r *mediaBuyRepository) Delete(ctx context.Context, tenantID, mediaBuyID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(tenantID, mediaBuyID)

	buy, exists := r.store.mediaBuys[id]
	if !exists {
		return persistence.NewStoreError("Delete", "media_buy", tenantID, mediaBuyID, persistence.ErrMediaBuyNotFound)
	}

	delete(r.store.buyerRefs, key3(buy.TenantID, buy.PrincipalID, buy.BuyerRef))
	delete(r.store.mediaBuys, id)

	for pkgKey, pkg := range r.store.packages {
		if pkg.TenantID == tenantID && pkg.MediaBuyID == mediaBuyID {
			delete(r.store.packages, pkgKey)
		}
	}

	for asgKey, asg := range r.store.assignments {
		if asg.TenantID == tenantID && asg.MediaBuyID == mediaBuyID {
			delete(r.store.assignments, asgKey)
		}
	}

	return nil
}
