// Package models defines the core domain models for media buy orchestration.
package models

import (
	"encoding/json"
	"time"
)

// MediaBuyState is the persisted workflow state of a media buy. It is distinct
// from MediaBuyStatus, which is computed on demand and never stored.
type MediaBuyState string

const (
	MediaBuyStatePendingApproval  MediaBuyState = "pending_approval"  // Parked, awaiting human review
	MediaBuyStatePendingCreatives MediaBuyState = "pending_creatives" // Accepted but creatives not yet approved
	MediaBuyStateAccepted         MediaBuyState = "accepted"          // Dispatched to the ad server
	MediaBuyStateFailed           MediaBuyState = "failed"            // Dispatch or reconciliation failed
	MediaBuyStateRejected         MediaBuyState = "rejected"          // Human rejected the buy
)

// MediaBuyStatus is the externally visible lifecycle status, computed by the
// status resolver from flight dates and approval state.
type MediaBuyStatus string

const (
	MediaBuyStatusPendingActivation MediaBuyStatus = "pending_activation"
	MediaBuyStatusActive            MediaBuyStatus = "active"
	MediaBuyStatusCompleted         MediaBuyStatus = "completed"
	MediaBuyStatusPaused            MediaBuyStatus = "paused" // Reserved
)

// MediaBuy represents a buyer's purchase order against one or more publisher
// products. MediaBuyID is assigned exactly once and never regenerated,
// including for buys parked for manual approval.
type MediaBuy struct {
	MediaBuyID     string          `json:"media_buy_id"`
	TenantID       string          `json:"tenant_id"    validate:"required"`
	PrincipalID    string          `json:"principal_id" validate:"required"`
	BuyerRef       string          `json:"buyer_ref"    validate:"required"`
	Currency       string          `json:"currency"`
	TotalBudget    float64         `json:"total_budget"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	State          MediaBuyState   `json:"state"`
	PONumber       string          `json:"po_number,omitempty"`
	ApprovalNeeded bool            `json:"approval_needed"`
	Paused         bool            `json:"paused"`
	ExternalID     string          `json:"external_id,omitempty"` // Order ID assigned by the ad server
	RawRequest     json.RawMessage `json:"raw_request,omitempty"` // Verbatim request snapshot for resumption
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DispatchEligible reports whether the buy may be sent to the ad server. A buy
// already accepted, failed or rejected is never dispatched again; this is the
// gate that prevents two concurrent dispatches for the same media buy.
func (m *MediaBuy) DispatchEligible() bool {
	switch m.State {
	case MediaBuyStateAccepted, MediaBuyStateFailed, MediaBuyStateRejected:
		return false
	default:
		return true
	}
}
