package models

import (
	"fmt"
	"strings"
)

// Product is a publisher's sellable inventory definition.
type Product struct {
	ProductID         string           `json:"product_id" validate:"required"`
	TenantID          string           `json:"tenant_id"  validate:"required"`
	Name              string           `json:"name"       validate:"required"`
	Description       string           `json:"description,omitempty"`
	PricingOptions    []*PricingOption `json:"pricing_options"`
	AutoCreateEnabled bool             `json:"auto_create_enabled"`
	Formats           []FormatRef      `json:"formats,omitempty"` // Creative formats the product accepts
}

// PricingOption is a (model, currency, fixed/auction) pricing contract offered
// by a product. Fixed options carry a rate; auction options carry floor and
// ceiling guidance and require a caller-supplied bid price at or above the
// floor.
type PricingOption struct {
	PricingModel       string  `json:"pricing_model" validate:"required"`
	Currency           string  `json:"currency"      validate:"required,len=3"`
	IsFixed            bool    `json:"is_fixed"`
	Rate               float64 `json:"rate,omitempty"`
	FloorPrice         float64 `json:"floor_price,omitempty"`
	CeilingPrice       float64 `json:"ceiling_price,omitempty"`
	MinSpendPerPackage float64 `json:"min_spend_per_package,omitempty"`
}

// Key returns the canonical identifier of the option:
// {model}_{currency}_{fixed|auction}, lowercased.
func (o *PricingOption) Key() string {
	kind := "auction"
	if o.IsFixed {
		kind = "fixed"
	}

	return strings.ToLower(fmt.Sprintf("%s_%s_%s", o.PricingModel, o.Currency, kind))
}
