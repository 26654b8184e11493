package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateProduct indicates two packages referencing the same product.
	ErrDuplicateProduct = errors.New("duplicate product across packages")

	// ErrNotApprovable indicates an approval action against a step that is not
	// waiting for review.
	ErrNotApprovable = errors.New("workflow step is not awaiting approval")

	// ErrNotDispatchEligible indicates a dispatch attempt against a buy that
	// is already terminal. Concurrent dispatches for one buy lose here.
	ErrNotDispatchEligible = errors.New("media buy is not eligible for dispatch")
)

// FieldError is one caller-fixable problem with a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every structural problem found in a request.
// The caller can fix all of them in one round trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}

	return "invalid request: " + strings.Join(msgs, "; ")
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// ReconciliationError indicates the ad server omitted an identifier the
// reconciler depends on. There is no safe fallback key, so this is fatal.
type ReconciliationError struct {
	MediaBuyID string
	PackageID  string
}

func (e *ReconciliationError) Error() string {
	if e.PackageID == "" {
		return fmt.Sprintf("ad server response for media buy %s omitted the order id", e.MediaBuyID)
	}

	return fmt.Sprintf("ad server response for media buy %s omitted package %s", e.MediaBuyID, e.PackageID)
}

// IsReconciliationError reports whether err is a reconciliation failure.
func IsReconciliationError(err error) bool {
	var re *ReconciliationError

	return errors.As(err, &re)
}
