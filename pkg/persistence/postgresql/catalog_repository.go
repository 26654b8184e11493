package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// TenantRepository handles tenant configuration database operations.
type TenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	limits, err := json.Marshal(tenant.CurrencyLimits)
	if err != nil {
		return fmt.Errorf("failed to marshal currency limits: %w", err)
	}

	agents, err := json.Marshal(tenant.CreativeAgents)
	if err != nil {
		return fmt.Errorf("failed to marshal creative agents: %w", err)
	}

	query := `
		INSERT INTO tenants (
			tenant_id
		  , name
		  , ad_server
		  , require_manual_approval
		  , auto_create_enabled
		  , currency_limits
		  , creative_agents
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		tenant.TenantID,
		tenant.Name,
		tenant.AdServer,
		tenant.RequireManualApproval,
		tenant.AutoCreateEnabled,
		limits,
		agents,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "tenant", tenant.TenantID, tenant.TenantID, persistence.ErrDuplicateKey)
		}

		return fmt.Errorf("failed to insert tenant: %w", err)
	}

	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	query := `
		SELECT
			tenant_id
		  , name
		  , ad_server
		  , require_manual_approval
		  , auto_create_enabled
		  , currency_limits
		  , creative_agents
		FROM tenants
		WHERE tenant_id = $1
	`

	var (
		tenant models.Tenant
		limits []byte
		agents []byte
	)

	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&tenant.TenantID,
		&tenant.Name,
		&tenant.AdServer,
		&tenant.RequireManualApproval,
		&tenant.AutoCreateEnabled,
		&limits,
		&agents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "tenant", tenantID, tenantID, persistence.ErrTenantNotFound)
		}

		return nil, fmt.Errorf("failed to query tenant: %w", err)
	}

	if len(limits) > 0 {
		err = json.Unmarshal(limits, &tenant.CurrencyLimits)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal currency limits: %w", err)
		}
	}

	if len(agents) > 0 {
		err = json.Unmarshal(agents, &tenant.CreativeAgents)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal creative agents: %w", err)
		}
	}

	return &tenant, nil
}

// ProductRepository handles product database operations.
type ProductRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	options, err := json.Marshal(product.PricingOptions)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing options: %w", err)
	}

	formats, err := json.Marshal(product.Formats)
	if err != nil {
		return fmt.Errorf("failed to marshal formats: %w", err)
	}

	query := `
		INSERT INTO products (
			tenant_id
		  , product_id
		  , name
		  , description
		  , pricing_options
		  , auto_create_enabled
		  , formats
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		product.TenantID,
		product.ProductID,
		product.Name,
		nullString(product.Description),
		options,
		product.AutoCreateEnabled,
		formats,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "product", product.TenantID, product.ProductID, persistence.ErrDuplicateKey)
		}

		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error) {
	query := `
		SELECT
			tenant_id
		  , product_id
		  , name
		  , description
		  , pricing_options
		  , auto_create_enabled
		  , formats
		FROM products
		WHERE tenant_id = $1 AND product_id = $2
	`

	var (
		product     models.Product
		description sql.NullString
		options     []byte
		formats     []byte
	)

	err := r.db.QueryRowContext(ctx, query, tenantID, productID).Scan(
		&product.TenantID,
		&product.ProductID,
		&product.Name,
		&description,
		&options,
		&product.AutoCreateEnabled,
		&formats,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "product", tenantID, productID, persistence.ErrProductNotFound)
		}

		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	if len(options) > 0 {
		err = json.Unmarshal(options, &product.PricingOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal pricing options: %w", err)
		}
	}

	if len(formats) > 0 {
		err = json.Unmarshal(formats, &product.Formats)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal formats: %w", err)
		}
	}

	product.Description = description.String

	return &product, nil
}
