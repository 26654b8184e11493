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

// MediaBuyRepository handles media buy database operations.
type MediaBuyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const mediaBuyColumns = `
			tenant_id
		  , media_buy_id
		  , principal_id
		  , buyer_ref
		  , currency
		  , total_budget
		  , start_time
		  , end_time
		  , state
		  , po_number
		  , approval_needed
		  , paused
		  , external_id
		  , raw_request
		  , created_at
		  , updated_at`

func (r *MediaBuyRepository) Create(ctx context.Context, buy *models.MediaBuy) error {
	query := `
		INSERT INTO media_buys (` + mediaBuyColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		buy.TenantID,
		buy.MediaBuyID,
		buy.PrincipalID,
		buy.BuyerRef,
		nullString(buy.Currency),
		buy.TotalBudget,
		buy.StartTime,
		buy.EndTime,
		string(buy.State),
		nullString(buy.PONumber),
		buy.ApprovalNeeded,
		buy.Paused,
		nullString(buy.ExternalID),
		nullRaw(buy.RawRequest),
		buy.CreatedAt,
		buy.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "media_buy", buy.TenantID, buy.MediaBuyID, persistence.ErrMediaBuyAlreadyExists)
		}

		return fmt.Errorf("failed to insert media buy: %w", err)
	}

	return nil
}

func (r *MediaBuyRepository) GetByID(ctx context.Context, tenantID, mediaBuyID string) (*models.MediaBuy, error) {
	query := `
		SELECT` + mediaBuyColumns + `
		FROM media_buys
		WHERE tenant_id = $1 AND media_buy_id = $2
	`

	buy, err := r.scanMediaBuy(r.db.QueryRowContext(ctx, query, tenantID, mediaBuyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "media_buy", tenantID, mediaBuyID, persistence.ErrMediaBuyNotFound)
		}

		return nil, fmt.Errorf("failed to query media buy: %w", err)
	}

	return buy, nil
}

func (r *MediaBuyRepository) GetByBuyerRef(ctx context.Context, tenantID, principalID, buyerRef string) (*models.MediaBuy, error) {
	query := `
		SELECT` + mediaBuyColumns + `
		FROM media_buys
		WHERE tenant_id = $1 AND principal_id = $2 AND buyer_ref = $3
	`

	buy, err := r.scanMediaBuy(r.db.QueryRowContext(ctx, query, tenantID, principalID, buyerRef))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByBuyerRef", "media_buy", tenantID, buyerRef, persistence.ErrMediaBuyNotFound)
		}

		return nil, fmt.Errorf("failed to query media buy by buyer ref: %w", err)
	}

	return buy, nil
}

func (r *MediaBuyRepository) Update(ctx context.Context, buy *models.MediaBuy) error {
	query := `
		UPDATE media_buys SET
			currency = $3
		  , total_budget = $4
		  , start_time = $5
		  , end_time = $6
		  , state = $7
		  , po_number = $8
		  , approval_needed = $9
		  , paused = $10
		  , external_id = $11
		  , raw_request = $12
		  , updated_at = $13
		WHERE tenant_id = $1 AND media_buy_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		buy.TenantID,
		buy.MediaBuyID,
		nullString(buy.Currency),
		buy.TotalBudget,
		buy.StartTime,
		buy.EndTime,
		string(buy.State),
		nullString(buy.PONumber),
		buy.ApprovalNeeded,
		buy.Paused,
		nullString(buy.ExternalID),
		nullRaw(buy.RawRequest),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update media buy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Update", "media_buy", buy.TenantID, buy.MediaBuyID, persistence.ErrMediaBuyNotFound)
	}

	return nil
}

// TransitionState performs a compare-and-set on the buy's state so concurrent
// dispatches for the same media buy cannot both proceed.
func (r *MediaBuyRepository) TransitionState(ctx context.Context, tenantID, mediaBuyID string, from, to models.MediaBuyState) error {
	query := `
		UPDATE media_buys SET
			state = $4
		  , updated_at = NOW()
		WHERE tenant_id = $1 AND media_buy_id = $2 AND state = $3
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, mediaBuyID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("failed to transition media buy state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("TransitionState", "media_buy", tenantID, mediaBuyID, persistence.ErrStateConflict)
	}

	return nil
}

// Delete removes the buy; packages and assignments cascade via foreign keys.
func (r *MediaBuyRepository) Delete(ctx context.Context, tenantID, mediaBuyID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_buys WHERE tenant_id = $1 AND media_buy_id = $2`, tenantID, mediaBuyID)
	if err != nil {
		return fmt.Errorf("failed to delete media buy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Delete", "media_buy", tenantID, mediaBuyID, persistence.ErrMediaBuyNotFound)
	}

	return nil
}

func (r *MediaBuyRepository) scanMediaBuy(row *sql.Row) (*models.MediaBuy, error) {
	var (
		buy        models.MediaBuy
		currency   sql.NullString
		poNumber   sql.NullString
		externalID sql.NullString
		rawRequest []byte
		state      string
	)

	err := row.Scan(
		&buy.TenantID,
		&buy.MediaBuyID,
		&buy.PrincipalID,
		&buy.BuyerRef,
		&currency,
		&buy.TotalBudget,
		&buy.StartTime,
		&buy.EndTime,
		&state,
		&poNumber,
		&buy.ApprovalNeeded,
		&buy.Paused,
		&externalID,
		&rawRequest,
		&buy.CreatedAt,
		&buy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	buy.Currency = currency.String
	buy.PONumber = poNumber.String
	buy.ExternalID = externalID.String
	buy.State = models.MediaBuyState(state)
	buy.RawRequest = json.RawMessage(rawRequest)

	return &buy, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}

	return s
}

func nullRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	return []byte(raw)
}
