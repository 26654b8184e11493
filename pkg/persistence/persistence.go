// Package persistence provides the data storage abstraction for media buys,
// packages, creatives and workflow steps.
package persistence

import (
	"context"

	"github.com/buyflow/buyflow/pkg/models"
)

// Persistence is the transactional store consumed by the orchestrator. All
// keys are scoped by tenant; implementations enforce unique constraints and
// cascade deletes of dependent rows.
type Persistence interface {
	MediaBuyRepository() MediaBuyRepository
	PackageRepository() PackageRepository
	AssignmentRepository() AssignmentRepository
	CreativeRepository() CreativeRepository
	ProductRepository() ProductRepository
	TenantRepository() TenantRepository
	WorkflowStepRepository() WorkflowStepRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// MediaBuyRepository stores media buys.
type MediaBuyRepository interface {
	Create(ctx context.Context, buy *models.MediaBuy) error
	GetByID(ctx context.Context, tenantID, mediaBuyID string) (*models.MediaBuy, error)
	GetByBuyerRef(ctx context.Context, tenantID, principalID, buyerRef string) (*models.MediaBuy, error)
	Update(ctx context.Context, buy *models.MediaBuy) error

	// TransitionState atomically moves the buy from one state to another. It
	// returns ErrStateConflict when the stored state differs from `from`,
	// which is how concurrent dispatches for the same buy lose the race.
	TransitionState(ctx context.Context, tenantID, mediaBuyID string, from, to models.MediaBuyState) error

	Delete(ctx context.Context, tenantID, mediaBuyID string) error
}

// PackageRepository stores packages owned by media buys.
type PackageRepository interface {
	Create(ctx context.Context, pkg *models.Package) error
	GetByID(ctx context.Context, tenantID, packageID string) (*models.Package, error)
	ListByMediaBuy(ctx context.Context, tenantID, mediaBuyID string) ([]*models.Package, error)
	Update(ctx context.Context, pkg *models.Package) error
}

// AssignmentRepository stores creative assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.CreativeAssignment) error
	ListByPackage(ctx context.Context, tenantID, mediaBuyID, packageID string) ([]*models.CreativeAssignment, error)
	Update(ctx context.Context, assignment *models.CreativeAssignment) error
	Delete(ctx context.Context, tenantID, mediaBuyID, packageID, creativeID string) error
}

// CreativeRepository stores creatives.
type CreativeRepository interface {
	Create(ctx context.Context, creative *models.Creative) error
	GetByID(ctx context.Context, tenantID, creativeID string) (*models.Creative, error)
	GetByIDs(ctx context.Context, tenantID string, creativeIDs []string) ([]*models.Creative, error)
	Update(ctx context.Context, creative *models.Creative) error
}

// ProductRepository stores products and their pricing options.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error)
}

// TenantRepository stores tenant and principal configuration.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// WorkflowStepRepository stores workflow steps and their object mappings.
type WorkflowStepRepository interface {
	Create(ctx context.Context, step *models.WorkflowStep) error
	GetByID(ctx context.Context, tenantID, stepID string) (*models.WorkflowStep, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.WorkflowStep, error)
	Update(ctx context.Context, step *models.WorkflowStep) error

	CreateMapping(ctx context.Context, mapping *models.ObjectWorkflowMapping) error
	ListMappingsByObject(ctx context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error)
}
