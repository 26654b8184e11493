package pricing

import (
	"strings"

	"github.com/buyflow/buyflow/pkg/models"
)

// Selection carries the caller's pricing choice for a package. All fields are
// optional; an empty selection resolves to the product's first option.
type Selection struct {
	// PricingOptionID is the canonical identifier
	// {model}_{currency}_{fixed|auction}.
	PricingOptionID string

	// PricingModel is the legacy model-only selector, e.g. "cpm".
	PricingModel string

	// BidPrice is required for auction options.
	BidPrice *float64
}

// Resolve selects and validates a pricing option for a package and returns
// the normalized pricing record. Resolution order: exact identifier match,
// then legacy model match (narrowed by campaign currency when given), then
// the product's first option.
func Resolve(product *models.Product, sel Selection, campaignCurrency string, packageBudget float64) (*models.PricingInfo, error) {
	if len(product.PricingOptions) == 0 {
		return nil, &ResolveError{ProductID: product.ProductID, Err: ErrNoPricingOptions}
	}

	option, err := selectOption(product, sel, campaignCurrency)
	if err != nil {
		return nil, err
	}

	info := &models.PricingInfo{
		PricingModel: option.PricingModel,
		Currency:     option.Currency,
		IsFixed:      option.IsFixed,
	}

	if option.IsFixed {
		if option.Rate <= 0 {
			return nil, &ResolveError{ProductID: product.ProductID, OptionKey: option.Key(), Err: ErrMissingRate}
		}

		info.Rate = option.Rate
	} else {
		if sel.BidPrice == nil {
			return nil, &ResolveError{ProductID: product.ProductID, OptionKey: option.Key(), Err: ErrMissingBidPrice}
		}

		// The floor itself is a valid bid.
		if *sel.BidPrice < option.FloorPrice {
			return nil, &ResolveError{ProductID: product.ProductID, OptionKey: option.Key(), Err: ErrBidBelowFloor}
		}

		info.BidPrice = *sel.BidPrice
		info.Rate = *sel.BidPrice
	}

	if option.MinSpendPerPackage > 0 && packageBudget < option.MinSpendPerPackage {
		return nil, &ResolveError{ProductID: product.ProductID, OptionKey: option.Key(), Err: ErrBelowMinSpend}
	}

	return info, nil
}

func selectOption(product *models.Product, sel Selection, campaignCurrency string) (*models.PricingOption, error) {
	if sel.PricingOptionID != "" {
		wanted := strings.ToLower(sel.PricingOptionID)
		for _, option := range product.PricingOptions {
			if option.Key() == wanted {
				return option, nil
			}
		}

		return nil, &ResolveError{ProductID: product.ProductID, OptionKey: sel.PricingOptionID, Err: ErrNoMatchingOption}
	}

	if sel.PricingModel != "" {
		for _, option := range product.PricingOptions {
			if !strings.EqualFold(option.PricingModel, sel.PricingModel) {
				continue
			}

			if campaignCurrency != "" && !strings.EqualFold(option.Currency, campaignCurrency) {
				continue
			}

			return option, nil
		}

		return nil, &ResolveError{ProductID: product.ProductID, OptionKey: sel.PricingModel, Err: ErrNoMatchingOption}
	}

	return product.PricingOptions[0], nil
}
