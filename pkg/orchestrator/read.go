package orchestrator

import (
	"context"
	"time"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/workflow"
)

// MediaBuyView is the read model returned by GetMediaBuy. Status is computed
// on demand by the status resolver and never stored.
type MediaBuyView struct {
	MediaBuy *models.MediaBuy  `json:"media_buy"`
	Packages []PackageResponse `json:"packages"`
	Status   string            `json:"status"`
}

// GetMediaBuy loads a buy with its packages and computes its current status.
func (o *Orchestrator) GetMediaBuy(ctx context.Context, tenantID, mediaBuyID string) (*MediaBuyView, error) {
	buy, err := o.persistence.MediaBuyRepository().GetByID(ctx, tenantID, mediaBuyID)
	if err != nil {
		return nil, err
	}

	packages, err := o.persistence.PackageRepository().ListByMediaBuy(ctx, tenantID, mediaBuyID)
	if err != nil {
		return nil, err
	}

	creativeIDs := collectCreativeIDs(packages)

	approved, err := o.creativesApproved(ctx, tenantID, creativeIDs)
	if err != nil {
		return nil, err
	}

	status := workflow.ResolveStatus(workflow.StatusInput{
		ManualApprovalRequired: buy.State == models.MediaBuyStatePendingApproval,
		HasCreatives:           len(creativeIDs) > 0,
		CreativesApproved:      approved,
		StartTime:              buy.StartTime,
		EndTime:                buy.EndTime,
	}, time.Now().UTC())

	return &MediaBuyView{
		MediaBuy: buy,
		Packages: packageResponses(packages),
		Status:   string(status),
	}, nil
}

func (o *Orchestrator) creativesApproved(ctx context.Context, tenantID string, creativeIDs []string) (bool, error) {
	if len(creativeIDs) == 0 {
		return false, nil
	}

	loaded, err := o.persistence.CreativeRepository().GetByIDs(ctx, tenantID, creativeIDs)
	if err != nil {
		return false, err
	}

	for _, creative := range loaded {
		if !creative.Approved {
			return false, nil
		}
	}

	return true, nil
}
