package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// StartASAP is the sentinel start time meaning "as soon as possible". It is
// the only start value allowed to resolve into the past.
const StartASAP = "asap"

// CreateMediaBuyRequest is the inbound create payload.
type CreateMediaBuyRequest struct {
	BuyerRef  string           `json:"buyer_ref"  validate:"required"`
	PONumber  string           `json:"po_number,omitempty"`
	StartTime string           `json:"start_time" validate:"required"`
	EndTime   time.Time        `json:"end_time"   validate:"required"`
	Packages  []PackageRequest `json:"packages"   validate:"required,min=1,dive"`
}

// PackageRequest is one requested line item.
type PackageRequest struct {
	ProductID        string         `json:"product_id" validate:"required"`
	Budget           float64        `json:"budget"`
	PricingOptionID  string         `json:"pricing_option_id,omitempty"`
	PricingModel     string         `json:"pricing_model,omitempty"`
	BidPrice         *float64       `json:"bid_price,omitempty"`
	TargetingOverlay map[string]any `json:"targeting_overlay,omitempty"`
	CreativeIDs      []string       `json:"creative_ids,omitempty"`
}

// ResolveStartTime parses the start field, accepting the asap sentinel.
func (r *CreateMediaBuyRequest) ResolveStartTime(now time.Time) (time.Time, bool, error) {
	if strings.EqualFold(r.StartTime, StartASAP) {
		return now, true, nil
	}

	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("start_time must be RFC 3339 or %q: %w", StartASAP, err)
	}

	return start, false, nil
}

// PackageResponse is one created or affected line item in a response.
type PackageResponse struct {
	PackageID       string   `json:"package_id"`
	ProductID       string   `json:"product_id"`
	Budget          float64  `json:"budget,omitempty"`
	Paused          bool     `json:"paused"`
	CreativeIDs     []string `json:"creative_ids,omitempty"`
	BudgetPushState string   `json:"budget_push_state,omitempty"`
}

// CreateMediaBuyResponse is returned from the create flow. WorkflowStepID is
// set when the buy was parked for manual approval.
type CreateMediaBuyResponse struct {
	MediaBuyID     string            `json:"media_buy_id"`
	BuyerRef       string            `json:"buyer_ref"`
	Status         string            `json:"status"`
	ExternalID     string            `json:"external_id,omitempty"`
	Packages       []PackageResponse `json:"packages"`
	WorkflowStepID string            `json:"workflow_step_id,omitempty"`
	AssetStatuses  []AssetSyncStatus `json:"asset_statuses,omitempty"`
}

// AssetSyncStatus reports the outcome of pushing one creative to the ad
// server.
type AssetSyncStatus struct {
	CreativeID string `json:"creative_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// UpdateMediaBuyRequest is the inbound update payload. MediaBuyID or
// BuyerRef identifies the buy; nil fields are left untouched.
type UpdateMediaBuyRequest struct {
	MediaBuyID string `json:"media_buy_id,omitempty"`
	BuyerRef   string `json:"buyer_ref,omitempty"`

	Paused    *bool      `json:"paused,omitempty"`
	Budget    *float64   `json:"budget,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Packages []PackageUpdateRequest `json:"packages,omitempty"`
}

// PackageUpdateRequest carries per-package changes.
type PackageUpdateRequest struct {
	PackageID string `json:"package_id" validate:"required"`

	Paused      *bool     `json:"paused,omitempty"`
	Budget      *float64  `json:"budget,omitempty"`
	CreativeIDs *[]string `json:"creative_ids,omitempty"`

	Assignments []AssignmentUpdateRequest `json:"assignments,omitempty"`
}

// AssignmentUpdateRequest adjusts rotation weight or placements for one
// creative already assigned to the package.
type AssignmentUpdateRequest struct {
	CreativeID   string   `json:"creative_id" validate:"required"`
	Weight       *int     `json:"weight,omitempty"`
	PlacementIDs []string `json:"placement_ids,omitempty"`
}

// UpdateMediaBuyResponse is returned from the update flow.
type UpdateMediaBuyResponse struct {
	MediaBuyID       string            `json:"media_buy_id"`
	BuyerRef         string            `json:"buyer_ref"`
	Status           string            `json:"status"`
	AffectedPackages []PackageResponse `json:"affected_packages,omitempty"`
	WorkflowStepID   string            `json:"workflow_step_id,omitempty"`
}

// ApprovalResponse is returned from the approve and reject flows.
type ApprovalResponse struct {
	StepID        string `json:"step_id"`
	Status        string `json:"status"`
	MediaBuyID    string `json:"media_buy_id,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	OrderApproved bool   `json:"order_approved,omitempty"`
}
