package memory

import (
	"context"
	"sort"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

type packageRepository struct {
	store *Persistence
}

func (r *packageRepository) Create(ctx context.Context, pkg *models.Package) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(pkg.TenantID, pkg.PackageID)
	if _, exists := r.store.packages[id]; exists {
		return persistence.NewStoreError("Create", "package", pkg.TenantID, pkg.PackageID, persistence.ErrDuplicateKey)
	}

	copied := *pkg
	r.store.packages[id] = &copied

	return nil
}

func (r *packageRepository) GetByID(ctx context.Context, tenantID, packageID string) (*models.Package, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	pkg, exists := r.store.packages[key2(tenantID, packageID)]
	if !exists {
		return nil, persistence.NewStoreError("GetByID", "package", tenantID, packageID, persistence.ErrPackageNotFound)
	}

	copied := *pkg

	return &copied, nil
}

func (r *packageRepository) ListByMediaBuy(ctx context.Context, tenantID, mediaBuyID string) ([]*models.Package, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	packages := make([]*models.Package, 0)

	for _, pkg := range r.store.packages {
		if pkg.TenantID == tenantID && pkg.MediaBuyID == mediaBuyID {
			copied := *pkg
			packages = append(packages, &copied)
		}
	}

	sort.Slice(packages, func(i, j int) bool {
		return packages[i].CreatedAt.Before(packages[j].CreatedAt) ||
			(packages[i].CreatedAt.Equal(packages[j].CreatedAt) && packages[i].PackageID < packages[j].PackageID)
	})

	return packages, nil
}

func (r *packageRepository) Update(ctx context.Context, pkg *models.Package) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(pkg.TenantID, pkg.PackageID)
	if _, exists := r.store.packages[id]; !exists {
		return persistence.NewStoreError("Update", "package", pkg.TenantID, pkg.PackageID, persistence.ErrPackageNotFound)
	}

	copied := *pkg
	r.store.packages[id] = &copied

	return nil
}

type assignmentRepository struct {
	store *Persistence
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.CreativeAssignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key4(assignment.TenantID, assignment.MediaBuyID, assignment.PackageID, assignment.CreativeID)
	if _, exists := r.store.assignments[id]; exists {
		return persistence.NewStoreError("Create", "creative_assignment", assignment.TenantID, assignment.CreativeID, persistence.ErrAssignmentAlreadyExists)
	}

	copied := *assignment
	r.store.assignments[id] = &copied

	return nil
}

func (r *assignmentRepository) ListByPackage(ctx context.Context, tenantID, mediaBuyID, packageID string) ([]*models.CreativeAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	assignments := make([]*models.CreativeAssignment, 0)

	for _, asg := range r.store.assignments {
		if asg.TenantID == tenantID && asg.MediaBuyID == mediaBuyID && asg.PackageID == packageID {
			copied := *asg
			assignments = append(assignments, &copied)
		}
	}

	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].CreativeID < assignments[j].CreativeID
	})

	return assignments, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.CreativeAssignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key4(assignment.TenantID, assignment.MediaBuyID, assignment.PackageID, assignment.CreativeID)
	if _, exists := r.store.assignments[id]; !exists {
		return persistence.NewStoreError("Update", "creative_assignment", assignment.TenantID, assignment.CreativeID, persistence.ErrAssignmentNotFound)
	}

	copied := *assignment
	r.store.assignments[id] = &copied

	return nil
}

func (r *assignmentRepository) Delete(ctx context.Context, tenantID, mediaBuyID, packageID, creativeID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key4(tenantID, mediaBuyID, packageID, creativeID)
	if _, exists := r.store.assignments[id]; !exists {
		return persistence.NewStoreError("Delete", "creative_assignment", tenantID, creativeID, persistence.ErrAssignmentNotFound)
	}

	delete(r.store.assignments, id)

	return nil
}

type creativeRepository struct {
	store *Persistence
}

func (r *creativeRepository) Create(ctx context.Context, creative *models.Creative) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(creative.TenantID, creative.CreativeID)
	if _, exists := r.store.creatives[id]; exists {
		return persistence.NewStoreError("Create", "creative", creative.TenantID, creative.CreativeID, persistence.ErrDuplicateKey)
	}

	copied := *creative
	r.store.creatives[id] = &copied

	return nil
}

func (r *creativeRepository) GetByID(ctx context.Context, tenantID, creativeID string) (*models.Creative, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	creative, exists := r.store.creatives[key2(tenantID, creativeID)]
	if !exists {
		return nil, persistence.NewStoreError("GetByID", "creative", tenantID, creativeID, persistence.ErrCreativeNotFound)
	}

	copied := *creative

	return &copied, nil
}

// GetByIDs batch-loads creatives. A missing identifier fails the whole load so
// callers never operate on a partial set.
func (r *creativeRepository) GetByIDs(ctx context.Context, tenantID string, creativeIDs []string) ([]*models.Creative, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	creatives := make([]*models.Creative, 0, len(creativeIDs))

	for _, creativeID := range creativeIDs {
		creative, exists := r.store.creatives[key2(tenantID, creativeID)]
		if !exists {
			return nil, persistence.NewStoreError("GetByIDs", "creative", tenantID, creativeID, persistence.ErrCreativeNotFound)
		}

		copied := *creative
		creatives = append(creatives, &copied)
	}

	return creatives, nil
}

func (r *creativeRepository) Update(ctx context.Context, creative *models.Creative) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(creative.TenantID, creative.CreativeID)
	if _, exists := r.store.creatives[id]; !exists {
		return persistence.NewStoreError("Update", "creative", creative.TenantID, creative.CreativeID, persistence.ErrCreativeNotFound)
	}

	copied := *creative
	r.store.creatives[id] = &copied

	return nil
}

type productRepository struct {
	store *Persistence
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(product.TenantID, product.ProductID)
	if _, exists := r.store.products[id]; exists {
		return persistence.NewStoreError("Create", "product", product.TenantID, product.ProductID, persistence.ErrDuplicateKey)
	}

	copied := *product
	r.store.products[id] = &copied

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, exists := r.store.products[key2(tenantID, productID)]
	if !exists {
		return nil, persistence.NewStoreError("GetByID", "product", tenantID, productID, persistence.ErrProductNotFound)
	}

	copied := *product

	return &copied, nil
}

type tenantRepository struct {
	store *Persistence
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.tenants[tenant.TenantID]; exists {
		return persistence.NewStoreError("Create", "tenant", tenant.TenantID, tenant.TenantID, persistence.ErrDuplicateKey)
	}

	copied := *tenant
	r.store.tenants[tenant.TenantID] = &copied

	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tenant, exists := r.store.tenants[tenantID]
	if !exists {
		return nil, persistence.NewStoreError("GetByID", "tenant", tenantID, tenantID, persistence.ErrTenantNotFound)
	}

	copied := *tenant

	return &copied, nil
}

type workflowStepRepository struct {
	store *Persistence
}

func (r *workflowStepRepository) Create(ctx context.Context, step *models.WorkflowStep) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(step.TenantID, step.StepID)
	if _, exists := r.store.steps[id]; exists {
		return persistence.NewStoreError("Create", "workflow_step", step.TenantID, step.StepID, persistence.ErrDuplicateKey)
	}

	copied := *step
	copied.Comments = append([]models.StepComment(nil), step.Comments...)
	r.store.steps[id] = &copied

	return nil
}

func (r *workflowStepRepository) GetByID(ctx context.Context, tenantID, stepID string) (*models.WorkflowStep, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	step, exists := r.store.steps[key2(tenantID, stepID)]
	if !exists {
		return nil, persistence.NewStoreError("GetByID", "workflow_step", tenantID, stepID, persistence.ErrStepNotFound)
	}

	copied := *step
	copied.Comments = append([]models.StepComment(nil), step.Comments...)

	return &copied, nil
}

func (r *workflowStepRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.WorkflowStep, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	steps := make([]*models.WorkflowStep, 0)

	for _, step := range r.store.steps {
		if step.TenantID != tenantID {
			continue
		}

		copied := *step
		copied.Comments = append([]models.StepComment(nil), step.Comments...)
		steps = append(steps, &copied)
	}

	sort.Slice(steps, func(i, j int) bool {
		return steps[i].CreatedAt.Before(steps[j].CreatedAt)
	})

	return steps, nil
}

func (r *workflowStepRepository) Update(ctx context.Context, step *models.WorkflowStep) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := key2(step.TenantID, step.StepID)
	if _, exists := r.store.steps[id]; !exists {
		return persistence.NewStoreError("Update", "workflow_step", step.TenantID, step.StepID, persistence.ErrStepNotFound)
	}

	copied := *step
	copied.Comments = append([]models.StepComment(nil), step.Comments...)
	r.store.steps[id] = &copied

	return nil
}

func (r *workflowStepRepository) CreateMapping(ctx context.Context, mapping *models.ObjectWorkflowMapping) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *mapping
	r.store.mappings = append(r.store.mappings, &copied)

	return nil
}

func (r *workflowStepRepository) ListMappingsByObject(ctx context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	mappings := make([]*models.ObjectWorkflowMapping, 0)

	for _, mapping := range r.store.mappings {
		if mapping.ObjectType == objectType && mapping.ObjectID == objectID {
			copied := *mapping
			mappings = append(mappings, &copied)
		}
	}

	return mappings, nil
}
