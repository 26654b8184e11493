package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence"
)

// CreativeRepository handles creative database operations.
type CreativeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const creativeColumns = `
			tenant_id
		  , creative_id
		  , principal_id
		  , name
		  , format_agent_url
		  , format_id
		  , assets
		  , content_url
		  , width
		  , height
		  , approved
		  , created_at
		  , updated_at`

func (r *CreativeRepository) Create(ctx context.Context, creative *models.Creative) error {
	assets, err := json.Marshal(creative.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}

	query := `
		INSERT INTO creatives (` + creativeColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		creative.TenantID,
		creative.CreativeID,
		nullString(creative.PrincipalID),
		nullString(creative.Name),
		creative.Format.AgentURL,
		creative.Format.FormatID,
		assets,
		nullString(creative.ContentURL),
		creative.Width,
		creative.Height,
		creative.Approved,
		creative.CreatedAt,
		creative.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "creative", creative.TenantID, creative.CreativeID, persistence.ErrDuplicateKey)
		}

		return fmt.Errorf("failed to insert creative: %w", err)
	}

	return nil
}

func (r *CreativeRepository) GetByID(ctx context.Context, tenantID, creativeID string) (*models.Creative, error) {
	query := `
		SELECT` + creativeColumns + `
		FROM creatives
		WHERE tenant_id = $1 AND creative_id = $2
	`

	creative, err := scanCreative(r.db.QueryRowContext(ctx, query, tenantID, creativeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "creative", tenantID, creativeID, persistence.ErrCreativeNotFound)
		}

		return nil, fmt.Errorf("failed to query creative: %w", err)
	}

	return creative, nil
}

// GetByIDs batch-loads creatives. Any missing identifier fails the whole load.
func (r *CreativeRepository) GetByIDs(ctx context.Context, tenantID string, creativeIDs []string) ([]*models.Creative, error) {
	query := `
		SELECT` + creativeColumns + `
		FROM creatives
		WHERE tenant_id = $1 AND creative_id = ANY($2)
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(creativeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query creatives: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	byID := make(map[string]*models.Creative, len(creativeIDs))

	for rows.Next() {
		creative, err := scanCreative(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan creative: %w", err)
		}

		byID[creative.CreativeID] = creative
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating creatives: %w", err)
	}

	creatives := make([]*models.Creative, 0, len(creativeIDs))

	for _, creativeID := range creativeIDs {
		creative, found := byID[creativeID]
		if !found {
			return nil, persistence.NewStoreError("GetByIDs", "creative", tenantID, creativeID, persistence.ErrCreativeNotFound)
		}

		creatives = append(creatives, creative)
	}

	return creatives, nil
}

func (r *CreativeRepository) Update(ctx context.Context, creative *models.Creative) error {
	assets, err := json.Marshal(creative.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}

	query := `
		UPDATE creatives SET
			name = $3
		  , format_agent_url = $4
		  , format_id = $5
		  , assets = $6
		  , content_url = $7
		  , width = $8
		  , height = $9
		  , approved = $10
		  , updated_at = $11
		WHERE tenant_id = $1 AND creative_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		creative.TenantID,
		creative.CreativeID,
		nullString(creative.Name),
		creative.Format.AgentURL,
		creative.Format.FormatID,
		assets,
		nullString(creative.ContentURL),
		creative.Width,
		creative.Height,
		creative.Approved,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update creative: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Update", "creative", creative.TenantID, creative.CreativeID, persistence.ErrCreativeNotFound)
	}

	return nil
}

func scanCreative(row rowScanner) (*models.Creative, error) {
	var (
		creative    models.Creative
		principalID sql.NullString
		name        sql.NullString
		assets      []byte
		contentURL  sql.NullString
	)

	err := row.Scan(
		&creative.TenantID,
		&creative.CreativeID,
		&principalID,
		&name,
		&creative.Format.AgentURL,
		&creative.Format.FormatID,
		&assets,
		&contentURL,
		&creative.Width,
		&creative.Height,
		&creative.Approved,
		&creative.CreatedAt,
		&creative.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(assets) > 0 {
		err = json.Unmarshal(assets, &creative.Assets)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
		}
	}

	creative.PrincipalID = principalID.String
	creative.Name = name.String
	creative.ContentURL = contentURL.String

	return &creative, nil
}

// AssignmentRepository handles creative assignment database operations.
type AssignmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.CreativeAssignment) error {
	placements, err := json.Marshal(assignment.PlacementIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal placement ids: %w", err)
	}

	query := `
		INSERT INTO creative_assignments (
			assignment_id
		  , tenant_id
		  , media_buy_id
		  , package_id
		  , creative_id
		  , weight
		  , placement_ids
		  , created_at
		  , updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		assignment.AssignmentID,
		assignment.TenantID,
		assignment.MediaBuyID,
		assignment.PackageID,
		assignment.CreativeID,
		assignment.Weight,
		placements,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "creative_assignment", assignment.TenantID, assignment.CreativeID, persistence.ErrAssignmentAlreadyExists)
		}

		return fmt.Errorf("failed to insert creative assignment: %w", err)
	}

	return nil
}

func (r *AssignmentRepository) ListByPackage(ctx context.Context, tenantID, mediaBuyID, packageID string) ([]*models.CreativeAssignment, error) {
	query := `
		SELECT
			assignment_id
		  , tenant_id
		  , media_buy_id
		  , package_id
		  , creative_id
		  , weight
		  , placement_ids
		  , created_at
		  , updated_at
		FROM creative_assignments
		WHERE tenant_id = $1 AND media_buy_id = $2 AND package_id = $3
		ORDER BY creative_id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, mediaBuyID, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query creative assignments: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	assignments := make([]*models.CreativeAssignment, 0)

	for rows.Next() {
		var (
			assignment models.CreativeAssignment
			placements []byte
		)

		err = rows.Scan(
			&assignment.AssignmentID,
			&assignment.TenantID,
			&assignment.MediaBuyID,
			&assignment.PackageID,
			&assignment.CreativeID,
			&assignment.Weight,
			&placements,
			&assignment.CreatedAt,
			&assignment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan creative assignment: %w", err)
		}

		if len(placements) > 0 {
			err = json.Unmarshal(placements, &assignment.PlacementIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal placement ids: %w", err)
			}
		}

		assignments = append(assignments, &assignment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating creative assignments: %w", err)
	}

	return assignments, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.CreativeAssignment) error {
	placements, err := json.Marshal(assignment.PlacementIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal placement ids: %w", err)
	}

	query := `
		UPDATE creative_assignments SET
			weight = $5
		  , placement_ids = $6
		  , updated_at = $7
		WHERE tenant_id = $1 AND media_buy_id = $2 AND package_id = $3 AND creative_id = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		assignment.TenantID,
		assignment.MediaBuyID,
		assignment.PackageID,
		assignment.CreativeID,
		assignment.Weight,
		placements,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update creative assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Update", "creative_assignment", assignment.TenantID, assignment.CreativeID, persistence.ErrAssignmentNotFound)
	}

	return nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, tenantID, mediaBuyID, packageID, creativeID string) error {
	query := `
		DELETE FROM creative_assignments
		WHERE tenant_id = $1 AND media_buy_id = $2 AND package_id = $3 AND creative_id = $4
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, mediaBuyID, packageID, creativeID)
	if err != nil {
		return fmt.Errorf("failed to delete creative assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Delete", "creative_assignment", tenantID, creativeID, persistence.ErrAssignmentNotFound)
	}

	return nil
}
