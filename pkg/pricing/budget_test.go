package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyflow/buyflow/pkg/models"
)

func testTenant() *models.Tenant {
	return &models.Tenant{
		TenantID: "tenant-1",
		Name:     "Publisher",
		AdServer: "mock",
		CurrencyLimits: []models.CurrencyLimit{
			{Currency: "USD", MinPackageBudget: 100, MaxDailyPackageSpend: 1000},
			{Currency: "EUR", MinPackageBudget: 0, MaxDailyPackageSpend: 0},
		},
	}
}

func flight(days int) (time.Time, time.Time) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	return start, start.AddDate(0, 0, days)
}

func TestCheckBudgets_UnsupportedCurrencyForTenant(t *testing.T) {
	start, end := flight(10)

	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "GBP",
		TotalBudget: 5000,
		StartTime:   start,
		EndTime:     end,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestCheckBudgets_CurrencyNotAcceptedByAdServer(t *testing.T) {
	start, end := flight(10)

	err := CheckBudgets(testTenant(), []string{"EUR"}, BudgetCheck{
		Currency:    "USD",
		TotalBudget: 5000,
		StartTime:   start,
		EndTime:     end,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestCheckBudgets_BelowMinimumFails(t *testing.T) {
	start, end := flight(10)

	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "USD",
		TotalBudget: 99,
		StartTime:   start,
		EndTime:     end,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBelowMinimumBudget)
}

func TestCheckBudgets_AtMinimumSucceeds(t *testing.T) {
	start, end := flight(10)

	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "USD",
		TotalBudget: 100,
		StartTime:   start,
		EndTime:     end,
	})

	require.NoError(t, err)
}

func TestCheckBudgets_DailyCapViolationCitesComputedSpend(t *testing.T) {
	// A $15000 package over a 10-day flight computes $1500/day against a
	// $1000 cap.
	start, end := flight(10)

	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "USD",
		TotalBudget: 15000,
		Packages:    []PackageBudget{{PackageID: "pkg-1", Budget: 15000}},
		StartTime:   start,
		EndTime:     end,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAboveDailyCap)

	var be *BudgetError

	require.ErrorAs(t, err, &be)
	assert.Equal(t, "pkg-1", be.PackageID)
	assert.InDelta(t, 1500.0, be.Amount, 0.001)
	assert.InDelta(t, 1000.0, be.Limit, 0.001)
	assert.Equal(t, "USD", be.Currency)
}

func TestCheckBudgets_PerPackageWhenExplicitBudgets(t *testing.T) {
	start, end := flight(10)

	// The aggregate would violate the cap, but each package stays under it.
	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "USD",
		TotalBudget: 16000,
		Packages: []PackageBudget{
			{PackageID: "pkg-1", Budget: 8000},
			{PackageID: "pkg-2", Budget: 8000},
		},
		StartTime: start,
		EndTime:   end,
	})

	require.NoError(t, err)
}

func TestCheckBudgets_AggregateWhenNoExplicitBudgets(t *testing.T) {
	start, end := flight(10)

	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "USD",
		TotalBudget: 15000,
		Packages:    []PackageBudget{{PackageID: "pkg-1"}, {PackageID: "pkg-2"}},
		StartTime:   start,
		EndTime:     end,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAboveDailyCap)

	var be *BudgetError

	require.ErrorAs(t, err, &be)
	assert.Empty(t, be.PackageID)
}

func TestCheckBudgets_NoLimitsConfiguredPasses(t *testing.T) {
	start, end := flight(2)

	err := CheckBudgets(testTenant(), nil, BudgetCheck{
		Currency:    "EUR",
		TotalBudget: 1_000_000,
		StartTime:   start,
		EndTime:     end,
	})

	require.NoError(t, err)
}

func TestFlightDays_RoundsPartialDaysUp(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, flightDays(start, start.Add(6*time.Hour)))
	assert.Equal(t, 1, flightDays(start, start.Add(24*time.Hour)))
	assert.Equal(t, 2, flightDays(start, start.Add(25*time.Hour)))
	assert.Equal(t, 0, flightDays(start, start))
}
