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

// WorkflowStepRepository handles workflow step database operations.
type WorkflowStepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const stepColumns = `
			tenant_id
		  , step_id
		  , principal_id
		  , step_type
		  , tool_name
		  , status
		  , request_snapshot
		  , response_snapshot
		  , error
		  , comments
		  , created_at
		  , updated_at`

func (r *WorkflowStepRepository) Create(ctx context.Context, step *models.WorkflowStep) error {
	comments, err := json.Marshal(step.Comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}

	query := `
		INSERT INTO workflow_steps (` + stepColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		step.TenantID,
		step.StepID,
		nullString(step.PrincipalID),
		step.StepType,
		nullString(step.ToolName),
		string(step.Status),
		nullRaw(step.RequestSnapshot),
		nullRaw(step.ResponseSnapshot),
		nullString(step.Error),
		comments,
		step.CreatedAt,
		step.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Create", "workflow_step", step.TenantID, step.StepID, persistence.ErrDuplicateKey)
		}

		return fmt.Errorf("failed to insert workflow step: %w", err)
	}

	return nil
}

func (r *WorkflowStepRepository) GetByID(ctx context.Context, tenantID, stepID string) (*models.WorkflowStep, error) {
	query := `
		SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE tenant_id = $1 AND step_id = $2
	`

	var (
		step        models.WorkflowStep
		principalID sql.NullString
		toolName    sql.NullString
		status      string
		request     []byte
		response    []byte
		stepError   sql.NullString
		comments    []byte
	)

	err := r.db.QueryRowContext(ctx, query, tenantID, stepID).Scan(
		&step.TenantID,
		&step.StepID,
		&principalID,
		&step.StepType,
		&toolName,
		&status,
		&request,
		&response,
		&stepError,
		&comments,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "workflow_step", tenantID, stepID, persistence.ErrStepNotFound)
		}

		return nil, fmt.Errorf("failed to query workflow step: %w", err)
	}

	if len(comments) > 0 {
		err = json.Unmarshal(comments, &step.Comments)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
		}
	}

	step.PrincipalID = principalID.String
	step.ToolName = toolName.String
	step.Status = models.StepStatus(status)
	step.RequestSnapshot = json.RawMessage(request)
	step.ResponseSnapshot = json.RawMessage(response)
	step.Error = stepError.String

	return &step, nil
}

func (r *WorkflowStepRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.WorkflowStep, error) {
	query := `
		SELECT` + stepColumns + `
		FROM workflow_steps
		WHERE tenant_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow steps: %w", err)
	}
	defer rows.Close()

	steps := make([]*models.WorkflowStep, 0)

	for rows.Next() {
		var (
			step        models.WorkflowStep
			principalID sql.NullString
			toolName    sql.NullString
			status      string
			request     []byte
			response    []byte
			stepError   sql.NullString
			comments    []byte
		)

		err = rows.Scan(
			&step.TenantID,
			&step.StepID,
			&principalID,
			&step.StepType,
			&toolName,
			&status,
			&request,
			&response,
			&stepError,
			&comments,
			&step.CreatedAt,
			&step.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}

		if len(comments) > 0 {
			err = json.Unmarshal(comments, &step.Comments)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
			}
		}

		step.PrincipalID = principalID.String
		step.ToolName = toolName.String
		step.Status = models.StepStatus(status)
		step.RequestSnapshot = json.RawMessage(request)
		step.ResponseSnapshot = json.RawMessage(response)
		step.Error = stepError.String

		steps = append(steps, &step)
	}

	return steps, rows.Err()
}

func (r *WorkflowStepRepository) Update(ctx context.Context, step *models.WorkflowStep) error {
	comments, err := json.Marshal(step.Comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}

	query := `
		UPDATE workflow_steps SET
			status = $3
		  , response_snapshot = $4
		  , error = $5
		  , comments = $6
		  , updated_at = $7
		WHERE tenant_id = $1 AND step_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		step.TenantID,
		step.StepID,
		string(step.Status),
		nullRaw(step.ResponseSnapshot),
		nullString(step.Error),
		comments,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow step: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return persistence.NewStoreError("Update", "workflow_step", step.TenantID, step.StepID, persistence.ErrStepNotFound)
	}

	return nil
}

func (r *WorkflowStepRepository) CreateMapping(ctx context.Context, mapping *models.ObjectWorkflowMapping) error {
	query := `
		INSERT INTO object_workflow_mappings (
			mapping_id
		  , step_id
		  , object_type
		  , object_id
		  , action
		  , created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		mapping.MappingID,
		mapping.StepID,
		mapping.ObjectType,
		mapping.ObjectID,
		mapping.Action,
		mapping.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert object workflow mapping: %w", err)
	}

	return nil
}

func (r *WorkflowStepRepository) ListMappingsByObject(ctx context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error) {
	query := `
		SELECT
			mapping_id
		  , step_id
		  , object_type
		  , object_id
		  , action
		  , created_at
		FROM object_workflow_mappings
		WHERE object_type = $1 AND object_id = $2
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, objectType, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query object workflow mappings: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	mappings := make([]*models.ObjectWorkflowMapping, 0)

	for rows.Next() {
		var mapping models.ObjectWorkflowMapping

		err = rows.Scan(
			&mapping.MappingID,
			&mapping.StepID,
			&mapping.ObjectType,
			&mapping.ObjectID,
			&mapping.Action,
			&mapping.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object workflow mapping: %w", err)
		}

		mappings = append(mappings, &mapping)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating object workflow mappings: %w", err)
	}

	return mappings, nil
}
