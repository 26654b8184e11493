// Package pricing resolves pricing options for packages and enforces budget
// constraints.
package pricing

import (
	"errors"
	"fmt"
)

// Pricing resolution errors. All are caller-fixable except
// ErrNoPricingOptions, which indicates corrupt product data.
var (
	// ErrNoPricingOptions indicates a product carries zero pricing options.
	// This is an internal data-integrity fault, not caller error.
	ErrNoPricingOptions = errors.New("product has no pricing options")

	// ErrNoMatchingOption indicates no pricing option matched the selection.
	ErrNoMatchingOption = errors.New("no matching pricing option")

	// ErrMissingBidPrice indicates an auction option was chosen without a bid price.
	ErrMissingBidPrice = errors.New("auction pricing requires a bid price")

	// ErrBidBelowFloor indicates the bid price is below the auction floor.
	ErrBidBelowFloor = errors.New("bid price below floor")

	// ErrMissingRate indicates a fixed option carries no rate.
	ErrMissingRate = errors.New("fixed pricing option has no rate")

	// ErrBelowMinSpend indicates the package budget is below the option's
	// minimum spend per package.
	ErrBelowMinSpend = errors.New("package budget below minimum spend for pricing option")
)

// Budget enforcement errors.
var (
	// ErrUnsupportedCurrency indicates the currency is not supported by the
	// tenant or the ad server.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrBelowMinimumBudget indicates a budget below the tenant's per-currency minimum.
	ErrBelowMinimumBudget = errors.New("budget below minimum")

	// ErrAboveDailyCap indicates a computed daily spend above the tenant's
	// per-currency cap.
	ErrAboveDailyCap = errors.New("daily spend above maximum")
)

// ResolveError wraps pricing resolution failures with selection context.
type ResolveError struct {
	ProductID string
	OptionKey string // Requested option identifier or legacy model, if any
	Err       error
}

func (e *ResolveError) Error() string {
	if e.OptionKey != "" {
		return fmt.Sprintf("pricing resolution failed for product %s (option %s): %v", e.ProductID, e.OptionKey, e.Err)
	}

	return fmt.Sprintf("pricing resolution failed for product %s: %v", e.ProductID, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func (e *ResolveError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// BudgetError wraps budget violations with the offending amount, the limit
// and the currency. Budgets are never silently clamped.
type BudgetError struct {
	PackageID string // Empty when the violation is on the aggregate total
	Amount    float64
	Limit     float64
	Currency  string
	Err       error
}

func (e *BudgetError) Error() string {
	scope := "total budget"
	if e.PackageID != "" {
		scope = "package " + e.PackageID
	}

	return fmt.Sprintf("%v: %s %.2f %s (limit %.2f %s)", e.Err, scope, e.Amount, e.Currency, e.Limit, e.Currency)
}

func (e *BudgetError) Unwrap() error {
	return e.Err
}

func (e *BudgetError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsDataIntegrityError checks if an error indicates corrupt product data
// rather than caller error.
func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrNoPricingOptions)
}

// IsCallerError checks if an error is fixable by the caller.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrNoMatchingOption) ||
		errors.Is(err, ErrMissingBidPrice) ||
		errors.Is(err, ErrBidBelowFloor) ||
		errors.Is(err, ErrMissingRate) ||
		errors.Is(err, ErrBelowMinSpend) ||
		errors.Is(err, ErrUnsupportedCurrency) ||
		errors.Is(err, ErrBelowMinimumBudget) ||
		errors.Is(err, ErrAboveDailyCap)
}
