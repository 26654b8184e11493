package models

// CurrencyLimit holds per-currency spend constraints configured for a tenant.
// A zero value means the constraint is not enforced for that currency.
type CurrencyLimit struct {
	Currency             string  `json:"currency" validate:"required,len=3"`
	MinPackageBudget     float64 `json:"min_package_budget,omitempty"`
	MaxDailyPackageSpend float64 `json:"max_daily_package_spend,omitempty"`
}

// Tenant is a publisher account. Its configuration selects the ad server
// adapter and drives approval gating and budget enforcement.
type Tenant struct {
	TenantID              string          `json:"tenant_id" validate:"required"`
	Name                  string          `json:"name"      validate:"required"`
	AdServer              string          `json:"ad_server" validate:"required"` // Adapter name, e.g. "mock"
	RequireManualApproval bool            `json:"require_manual_approval"`
	AutoCreateEnabled     bool            `json:"auto_create_enabled"`
	CurrencyLimits        []CurrencyLimit `json:"currency_limits,omitempty"`
	CreativeAgents        []string        `json:"creative_agents,omitempty"` // Registered creative agent URLs
}

// CurrencyLimitFor returns the limit entry for the given currency, or nil when
// the currency is not declared supported for the tenant.
func (t *Tenant) CurrencyLimitFor(currency string) *CurrencyLimit {
	for i := range t.CurrencyLimits {
		if t.CurrencyLimits[i].Currency == currency {
			return &t.CurrencyLimits[i]
		}
	}

	return nil
}

// Principal is a buyer identity scoped to a tenant. Buyer refs are unique per
// (tenant, principal).
type Principal struct {
	PrincipalID string `json:"principal_id" validate:"required"`
	TenantID    string `json:"tenant_id"    validate:"required"`
	Name        string `json:"name"`
}
