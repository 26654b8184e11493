// Package postgresql provides the PostgreSQL persistence implementation for
// media buys, packages, creatives and workflow steps.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/persistence/sqlbase"
)

const uniqueViolationCode = "23505"

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	mediaBuys   *MediaBuyRepository
	packages    *PackageRepository
	assignments *AssignmentRepository
	creatives   *CreativeRepository
	products    *ProductRepository
	tenants     *TenantRepository
	steps       *WorkflowStepRepository
}

// NewPersistence connects, runs migrations and returns a ready store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		mediaBuys:   &MediaBuyRepository{db: database, logger: logger},
		packages:    &PackageRepository{db: database, logger: logger},
		assignments: &AssignmentRepository{db: database, logger: logger},
		creatives:   &CreativeRepository{db: database, logger: logger},
		products:    &ProductRepository{db: database, logger: logger},
		tenants:     &TenantRepository{db: database, logger: logger},
		steps:       &WorkflowStepRepository{db: database, logger: logger},
	}, nil
}

func (p *Persistence) MediaBuyRepository() persistence.MediaBuyRepository {
	return p.mediaBuys
}

func (p *Persistence) PackageRepository() persistence.PackageRepository {
	return p.packages
}

func (p *Persistence) AssignmentRepository() persistence.AssignmentRepository {
	return p.assignments
}

func (p *Persistence) CreativeRepository() persistence.CreativeRepository {
	return p.creatives
}

func (p *Persistence) ProductRepository() persistence.ProductRepository {
	return p.products
}

func (p *Persistence) TenantRepository() persistence.TenantRepository {
	return p.tenants
}

func (p *Persistence) WorkflowStepRepository() persistence.WorkflowStepRepository {
	return p.steps
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether the driver rejected a write on a unique
// constraint. Callers translate this into the duplicate sentinel so racing
// creators can read the winner's row and continue.
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)

	return ok && string(pqErr.Code) == uniqueViolationCode
}
