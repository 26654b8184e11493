package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// PackageRepository handles package database operations.
type PackageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const packageColumns = `
			tenant_id
		  , package_id
		  , media_buy_id
		  , product_id
		  , budget
		  , pricing
		  , targeting_overlay
		  , creative_ids
		  , paused
		  , budget_push_state
		  , external_id
		  , created_at
		  , updated_at`

func (r *PackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	pricing, err := marshalNullable(pkg.Pricing)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing: %w", err)
	}

	overlay, err := marshalNullable(pkg.TargetingOverlay)
	if err != nil {
		return fmt.Errorf("failed to marshal targeting overlay: %w", err)
	}

	creativeIDs, err := json.Marshal(pkg.CreativeIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal creative ids: %w", err)
	}

	query := `
		INSERT INTO packages (` + packageColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		pkg.TenantID,
		pkg.PackageID,
		pkg.MediaBuyID,
		pkg.ProductID,
		pkg.Budget,
		pricing,
		overlay,
		creativeIDs,
		pkg.Paused,
		nullString(string(pkg.BudgetPushState)),
		nullString(pkg.ExternalID),
		pkg.CreatedAt,
		pkg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "package", pkg.TenantID, pkg.PackageID, persistence.ErrDuplicateKey)
		}

		return fmt.Errorf("failed to insert package: %w", err)
	}

	return nil
}

func (r *PackageRepository) GetByID(ctx context.Context, tenantID, packageID string) (*models.Package, error) {
	query := `
		SELECT` + packageColumns + `
		FROM packages
		WHERE tenant_id = $1 AND package_id = $2
	`

	pkg, err := scanPackage(r.db.QueryRowContext(ctx, query, tenantID, packageID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "package", tenantID, packageID, persistence.ErrPackageNotFound)
		}

		return nil, fmt.Errorf("failed to query package: %w", err)
	}

	return pkg, nil
}

func (r *PackageRepository) ListByMediaBuy(ctx context.Context, tenantID, mediaBuyID string) ([]*models.Package, error) {
	query := `
		SELECT` + packageColumns + `
		FROM packages
		WHERE tenant_id = $1 AND media_buy_id = $2
		ORDER BY created_at, package_id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, mediaBuyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	packages := make([]*models.Package, 0)

	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}

		packages = append(packages, pkg)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	return packages, nil
}

func (r *PackageRepository) Update(ctx context.Context, pkg *models.Package) error {
	pricing, err := marshalNullable(pkg.Pricing)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing: %w", err)
	}

	overlay, err := marshalNullable(pkg.TargetingOverlay)
	if err != nil {
		return fmt.Errorf("failed to marshal targeting overlay: %w", err)
	}

	creativeIDs, err := json.Marshal(pkg.CreativeIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal creative ids: %w", err)
	}

	query := `
		UPDATE packages SET
			budget = $3
		  , pricing = $4
		  , targeting_overlay = $5
		  , creative_ids = $6
		  , paused = $7
		  , budget_push_state = $8
		  , external_id = $9
		  , updated_at = $10
		WHERE tenant_id = $1 AND package_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		pkg.TenantID,
		pkg.PackageID,
		pkg.Budget,
		pricing,
		overlay,
		creativeIDs,
		pkg.Paused,
		nullString(string(pkg.BudgetPushState)),
		nullString(pkg.ExternalID),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Update", "package", pkg.TenantID, pkg.PackageID, persistence.ErrPackageNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (*models.Package, error) {
	var (
		pkg             models.Package
		pricing         []byte
		overlay         []byte
		creativeIDs     []byte
		budgetPushState sql.NullString
		externalID      sql.NullString
	)

	err := row.Scan(
		&pkg.TenantID,
		&pkg.PackageID,
		&pkg.MediaBuyID,
		&pkg.ProductID,
		&pkg.Budget,
		&pricing,
		&overlay,
		&creativeIDs,
		&pkg.Paused,
		&budgetPushState,
		&externalID,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(pricing) > 0 {
		err = json.Unmarshal(pricing, &pkg.Pricing)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal pricing: %w", err)
		}
	}

	if len(overlay) > 0 {
		err = json.Unmarshal(overlay, &pkg.TargetingOverlay)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal targeting overlay: %w", err)
		}
	}

	if len(creativeIDs) > 0 {
		err = json.Unmarshal(creativeIDs, &pkg.CreativeIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal creative ids: %w", err)
		}
	}

	pkg.BudgetPushState = models.BudgetPushState(budgetPushState.String)
	pkg.ExternalID = externalID.String

	return &pkg, nil
}

func marshalNullable(v any) (any, error) {
	switch value := v.(type) {
	case *models.PricingInfo:
		if value == nil {
			return nil, nil
		}
	case map[string]any:
		if value == nil {
			return nil, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return data, nil
}
