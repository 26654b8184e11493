package models

import "time"

// BudgetPushState tracks whether a locally persisted package budget change has
// been pushed to the external ad server. Local records are authoritative until
// synchronization runs; a pending push is an explicit state, never silent
// drift.
type BudgetPushState string

const (
	BudgetPushStateSynced      BudgetPushState = "synced"
	BudgetPushStatePendingPush BudgetPushState = "pending_push"
)

// Package is one line item within a media buy, bound to exactly one product.
// PackageID is generated once and survives regardless of approval outcome.
type Package struct {
	PackageID        string          `json:"package_id"`
	MediaBuyID       string          `json:"media_buy_id" validate:"required"`
	TenantID         string          `json:"tenant_id"    validate:"required"`
	ProductID        string          `json:"product_id"   validate:"required"`
	Budget           float64         `json:"budget"`
	Pricing          *PricingInfo    `json:"pricing,omitempty"` // Snapshot resolved at create time
	TargetingOverlay map[string]any  `json:"targeting_overlay,omitempty"`
	CreativeIDs      []string        `json:"creative_ids,omitempty"`
	Paused           bool            `json:"paused"`
	BudgetPushState  BudgetPushState `json:"budget_push_state,omitempty"`
	ExternalID       string          `json:"external_id,omitempty"` // Package ID assigned by the ad server
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PricingInfo is the normalized pricing record resolved for a package. Values
// are unwrapped exactly once when the pricing option is selected; business
// rules never see wrapped or partially resolved pricing.
type PricingInfo struct {
	PricingModel string  `json:"pricing_model"`
	Rate         float64 `json:"rate"`
	Currency     string  `json:"currency"`
	IsFixed      bool    `json:"is_fixed"`
	BidPrice     float64 `json:"bid_price,omitempty"`
}
