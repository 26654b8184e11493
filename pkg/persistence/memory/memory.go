// Package memory provides an in-memory persistence implementation for tests
// and local development. Unique constraints and cascade deletes behave like
// the SQL implementation so orchestration semantics can be exercised without a
// database.
package memory

import (
	"context"
	"sync"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// Persistence implements persistence.Persistence backed by process memory.
type Persistence struct {
	mu sync.RWMutex

	mediaBuys   map[string]*models.MediaBuy           // tenant/media_buy_id
	buyerRefs   map[string]string                     // tenant/principal/buyer_ref -> media_buy_id
	packages    map[string]*models.Package            // tenant/package_id
	assignments map[string]*models.CreativeAssignment // tenant/media_buy/package/creative
	creatives   map[string]*models.Creative           // tenant/creative_id
	products    map[string]*models.Product            // tenant/product_id
	tenants     map[string]*models.Tenant             // tenant_id
	steps       map[string]*models.WorkflowStep       // tenant/step_id
	mappings    []*models.ObjectWorkflowMapping
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		mediaBuys:   make(map[string]*models.MediaBuy),
		buyerRefs:   make(map[string]string),
		packages:    make(map[string]*models.Package),
		assignments: make(map[string]*models.CreativeAssignment),
		creatives:   make(map[string]*models.Creative),
		products:    make(map[string]*models.Product),
		tenants:     make(map[string]*models.Tenant),
		steps:       make(map[string]*models.WorkflowStep),
	}
}

func (p *Persistence) MediaBuyRepository() persistence.MediaBuyRepository {
	return &mediaBuyRepository{p}
}

func (p *Persistence) PackageRepository() persistence.PackageRepository {
	return &packageRepository{p}
}

func (p *Persistence) AssignmentRepository() persistence.AssignmentRepository {
	return &assignmentRepository{p}
}

func (p *Persistence) CreativeRepository() persistence.CreativeRepository {
	return &creativeRepository{p}
}

func (p *Persistence) ProductRepository() persistence.ProductRepository {
	return &productRepository{p}
}

func (p *Persistence) TenantRepository() persistence.TenantRepository {
	return &tenantRepository{p}
}

func (p *Persistence) WorkflowStepRepository() persistence.WorkflowStepRepository {
	return &workflowStepRepository{p}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return nil
}

func (p *Persistence) Close(ctx context.Context) error {
	return nil
}

func key2(a, b string) string {
	return a + "/" + b
}

func key3(a, b, c string) string {
	return a + "/" + b + "/" + c
}

func key4(a, b, c, d string) string {
	return a + "/" + b + "/" + c + "/" + d
}
