// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrMediaBuyNotFound indicates a media buy was not found by the given identifier.
	ErrMediaBuyNotFound = errors.New("media buy not found")

	// ErrMediaBuyAlreadyExists indicates a media buy with the same identifier
	// or (tenant, principal, buyer_ref) already exists.
	ErrMediaBuyAlreadyExists = errors.New("media buy already exists")

	// ErrPackageNotFound indicates a package was not found by the given identifier.
	ErrPackageNotFound = errors.New("package not found")

	// ErrAssignmentAlreadyExists indicates the (media_buy, package, creative)
	// assignment already exists. Races on creation are resolved by letting the
	// loser read the winner's row and continue.
	ErrAssignmentAlreadyExists = errors.New("creative assignment already exists")

	// ErrAssignmentNotFound indicates a creative assignment was not found.
	ErrAssignmentNotFound = errors.New("creative assignment not found")

	// ErrCreativeNotFound indicates a creative was not found by the given identifier.
	ErrCreativeNotFound = errors.New("creative not found")

	// ErrProductNotFound indicates a product was not found by the given identifier.
	ErrProductNotFound = errors.New("product not found")

	// ErrTenantNotFound indicates a tenant was not found by the given identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrStepNotFound indicates a workflow step was not found by the given identifier.
	ErrStepNotFound = errors.New("workflow step not found")

	// ErrStateConflict indicates a conditional state transition observed a
	// different stored state than expected.
	ErrStateConflict = errors.New("media buy state conflict")

	// ErrDuplicateKey indicates a unique constraint rejected a write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// StoreError wraps persistence errors with operation context.
type StoreError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Create")
	Entity   string // Entity kind (e.g., "media_buy", "workflow_step")
	TenantID string
	ID       string // Primary identifier if applicable
	Err      error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s operation failed for %s %s (tenant %s): %v", e.Op, e.Entity, e.ID, e.TenantID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s (tenant %s): %v", e.Op, e.Entity, e.TenantID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, entity, tenantID, id string, err error) *StoreError {
	return &StoreError{
		Op:       op,
		Entity:   entity,
		TenantID: tenantID,
		ID:       id,
		Err:      err,
	}
}

// IsNotFound checks if an error indicates any entity was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMediaBuyNotFound) ||
		errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrCreativeNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrStepNotFound)
}

// IsDuplicate checks if an error indicates a unique constraint rejection.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrMediaBuyAlreadyExists) ||
		errors.Is(err, ErrAssignmentAlreadyExists)
}

// IsStateConflict checks if an error indicates a lost conditional transition.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}
