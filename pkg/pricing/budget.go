package pricing

import (
	"slices"
	"strings"
	"time"

	"github.com/buyflow/buyflow/pkg/models"
)

// PackageBudget is one package's budget as seen by the guard.
type PackageBudget struct {
	PackageID string
	Budget    float64
}

// BudgetCheck carries everything the guard needs for one media buy.
type BudgetCheck struct {
	Currency    string
	TotalBudget float64
	Packages    []PackageBudget
	StartTime   time.Time
	EndTime     time.Time
}

// CheckBudgets enforces the tenant's per-currency spend constraints. The
// currency must be declared supported for the tenant and, when the ad server
// restricts currencies, be in its supported set. Constraints apply per package
// when packages carry explicit budgets, otherwise to the aggregate total.
// Violations fail with the offending amount, limit and currency; budgets are
// never clamped.
func CheckBudgets(tenant *models.Tenant, adapterCurrencies []string, check BudgetCheck) error {
	limit := tenant.CurrencyLimitFor(check.Currency)
	if limit == nil {
		return &BudgetError{Amount: check.TotalBudget, Currency: check.Currency, Err: ErrUnsupportedCurrency}
	}

	if len(adapterCurrencies) > 0 && !containsFold(adapterCurrencies, check.Currency) {
		return &BudgetError{Amount: check.TotalBudget, Currency: check.Currency, Err: ErrUnsupportedCurrency}
	}

	days := flightDays(check.StartTime, check.EndTime)

	if hasExplicitBudgets(check.Packages) {
		for _, pkg := range check.Packages {
			err := checkAmount(limit, pkg.PackageID, pkg.Budget, days)
			if err != nil {
				return err
			}
		}

		return nil
	}

	return checkAmount(limit, "", check.TotalBudget, days)
}

func checkAmount(limit *models.CurrencyLimit, packageID string, budget float64, days int) error {
	if limit.MinPackageBudget > 0 && budget < limit.MinPackageBudget {
		return &BudgetError{
			PackageID: packageID,
			Amount:    budget,
			Limit:     limit.MinPackageBudget,
			Currency:  limit.Currency,
			Err:       ErrBelowMinimumBudget,
		}
	}

	if limit.MaxDailyPackageSpend > 0 {
		daily := budget / float64(max(1, days))
		if daily > limit.MaxDailyPackageSpend {
			return &BudgetError{
				PackageID: packageID,
				Amount:    daily,
				Limit:     limit.MaxDailyPackageSpend,
				Currency:  limit.Currency,
				Err:       ErrAboveDailyCap,
			}
		}
	}

	return nil
}

// flightDays counts whole days between start and end, rounding partial days
// up so a short flight never inflates its allowed daily spend.
func flightDays(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}

	hours := end.Sub(start).Hours()
	days := int(hours / 24)

	if hours > float64(days)*24 {
		days++
	}

	return days
}

func hasExplicitBudgets(packages []PackageBudget) bool {
	return slices.ContainsFunc(packages, func(pkg PackageBudget) bool {
		return pkg.Budget > 0
	})
}

func containsFold(values []string, wanted string) bool {
	return slices.ContainsFunc(values, func(value string) bool {
		return strings.EqualFold(value, wanted)
	})
}
