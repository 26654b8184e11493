// Package mock provides an in-process ad server adapter for tests and local
// development. It assigns deterministic external identifiers and can be
// configured to misbehave in the ways real ad servers do.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/buyflow/buyflow/pkg/adserver"
)

// Adapter implements adserver.Adapter backed by process memory.
type Adapter struct {
	mu sync.Mutex

	// Behavior knobs.
	manualApprovalRequired   bool
	manualApprovalOperations []string
	supportedCurrencies      []string
	failCreate               *adserver.AdapterError
	omitPackageIDs           bool
	omitOrderID              bool
	approveOrderResult       bool

	createCalls  int
	assetCalls   int
	approveCalls int
}

// Option configures the mock adapter.
type Option func(*Adapter)

// WithManualApprovalRequired makes every operation manual-approval-only.
func WithManualApprovalRequired() Option {
	return func(a *Adapter) { a.manualApprovalRequired = true }
}

// WithManualApprovalOperations gates only the named operations.
func WithManualApprovalOperations(operations ...string) Option {
	return func(a *Adapter) { a.manualApprovalOperations = operations }
}

// WithSupportedCurrencies restricts the currencies the mock accepts.
func WithSupportedCurrencies(currencies ...string) Option {
	return func(a *Adapter) { a.supportedCurrencies = currencies }
}

// WithCreateFailure makes Create return the given structured rejection.
func WithCreateFailure(issues ...adserver.Issue) Option {
	return func(a *Adapter) { a.failCreate = &adserver.AdapterError{Adapter: "mock", Issues: issues} }
}

// WithOmittedPackageIDs makes Create drop package identifiers from its
// response, simulating a reconciliation fault.
func WithOmittedPackageIDs() Option {
	return func(a *Adapter) { a.omitPackageIDs = true }
}

// WithOmittedOrderID makes Create return a response with no order identifier.
func WithOmittedOrderID() Option {
	return func(a *Adapter) { a.omitOrderID = true }
}

// NewAdapter creates a mock adapter.
func NewAdapter(opts ...Option) *Adapter {
	adapter := &Adapter{approveOrderResult: true}
	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

func (a *Adapter) Create(ctx context.Context, req adserver.CreateRequest) (*adserver.CreateResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.createCalls++

	if a.failCreate != nil {
		return nil, a.failCreate
	}

	response := &adserver.CreateResponse{
		Packages: make([]adserver.PackageResult, 0, len(req.Packages)),
	}
	if !a.omitOrderID {
		response.MediaBuyID = "mock-order-" + req.MediaBuyID
	}

	for _, pkg := range req.Packages {
		result := adserver.PackageResult{Paused: pkg.Paused}
		if !a.omitPackageIDs {
			result.PackageID = pkg.PackageID
		}

		response.Packages = append(response.Packages, result)
	}

	return response, nil
}

func (a *Adapter) AddCreativeAssets(ctx context.Context, mediaBuyID string, assets []adserver.AssetUpload, now time.Time) ([]adserver.AssetStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.assetCalls++

	statuses := make([]adserver.AssetStatus, 0, len(assets))
	for _, asset := range assets {
		statuses = append(statuses, adserver.AssetStatus{
			CreativeID: asset.CreativeID,
			Status:     "approved",
		})
	}

	return statuses, nil
}

func (a *Adapter) ApproveOrder(ctx context.Context, externalID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.approveCalls++

	return a.approveOrderResult, nil
}

func (a *Adapter) ManualApprovalRequired() bool {
	return a.manualApprovalRequired
}

func (a *Adapter) ManualApprovalOperations() []string {
	return a.manualApprovalOperations
}

func (a *Adapter) SupportedCurrencies() []string {
	return a.supportedCurrencies
}

// CreateCalls reports how many times Create was invoked.
func (a *Adapter) CreateCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.createCalls
}

// AssetCalls reports how many times AddCreativeAssets was invoked.
func (a *Adapter) AssetCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.assetCalls
}

// ApproveCalls reports how many times ApproveOrder was invoked.
func (a *Adapter) ApproveCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.approveCalls
}

// Factory builds mock adapters for the registry.
type Factory struct {
	opts   []Option
	shared *Adapter
}

// NewFactory creates a factory that applies the given options to every
// adapter it builds.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// NewSharedFactory creates a factory that always returns the given adapter.
// Tests use it to observe call counts across orchestrator invocations.
func NewSharedFactory(adapter *Adapter) *Factory {
	return &Factory{shared: adapter}
}

func (f *Factory) ID() string {
	return "mock"
}

func (f *Factory) Create(config map[string]any) (adserver.Adapter, error) {
	if f.shared != nil {
		return f.shared, nil
	}

	opts := f.opts

	if manual, ok := config["manual_approval_required"].(bool); ok && manual {
		opts = append(opts, WithManualApprovalRequired())
	}

	return NewAdapter(opts...), nil
}
