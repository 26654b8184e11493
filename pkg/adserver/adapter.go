// Package adserver defines the capability interface for external ad server
// integrations and the registry that selects one per tenant.
package adserver

import (
	"context"
	"time"

	"github.com/buyflow/buyflow/pkg/models"
)

// OperationCreateMediaBuy and friends name the orchestrator operations an
// adapter can declare manual-approval-only.
const (
	OperationCreateMediaBuy = "create_media_buy"
	OperationUpdateMediaBuy = "update_media_buy"
)

// CreateRequest is the dispatch payload for a media buy.
type CreateRequest struct {
	MediaBuyID string
	BuyerRef   string
	PONumber   string
	Currency   string
	StartTime  time.Time
	EndTime    time.Time
	Packages   []CreatePackage
}

// CreatePackage is one line item of a dispatch.
type CreatePackage struct {
	PackageID        string
	ProductID        string
	Budget           float64
	Pricing          models.PricingInfo
	TargetingOverlay map[string]any
	Paused           bool
}

// CreateResponse is the ad server's acknowledgement. Every entry must echo a
// PackageID; reconciliation treats a missing identifier as fatal.
type CreateResponse struct {
	MediaBuyID string
	Packages   []PackageResult
}

// PackageResult is the per-package acknowledgement.
type PackageResult struct {
	PackageID string
	Paused    bool
}

// AssetUpload is one creative pushed to the ad server after reconciliation.
type AssetUpload struct {
	CreativeID string
	Name       string
	URL        string
	Width      float64
	Height     float64
	PackageIDs []string
}

// AssetStatus is the per-creative result of an asset upload.
type AssetStatus struct {
	CreativeID string
	Status     string
	Message    string
}

// Adapter is the capability interface implemented once per ad server. The
// orchestrator never inspects adapter types; every behavioral difference is
// expressed through these methods.
type Adapter interface {
	// Create places the media buy with the external ad server. It is called
	// at most once per accepted buy; the orchestrator never retries it.
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)

	// AddCreativeAssets uploads creatives for the buy and reports per-creative
	// statuses.
	AddCreativeAssets(ctx context.Context, mediaBuyID string, assets []AssetUpload, now time.Time) ([]AssetStatus, error)

	// ApproveOrder asks the ad server to approve a previously created order.
	// Inventory forecasting on the remote side may lag, so callers retry this
	// on manual approval.
	ApproveOrder(ctx context.Context, externalID string) (bool, error)

	// ManualApprovalRequired reports whether every operation on this ad server
	// needs human sign-off.
	ManualApprovalRequired() bool

	// ManualApprovalOperations lists the operations that need human sign-off
	// even when ManualApprovalRequired is false.
	ManualApprovalOperations() []string

	// SupportedCurrencies lists the currencies the ad server accepts. An empty
	// list means unrestricted.
	SupportedCurrencies() []string
}

// RequiresManualApproval reports whether the adapter gates the given operation.
func RequiresManualApproval(adapter Adapter, operation string) bool {
	if adapter.ManualApprovalRequired() {
		return true
	}

	for _, op := range adapter.ManualApprovalOperations() {
		if op == operation {
			return true
		}
	}

	return false
}
