package deal

import (
	"glitchfinder/internal/pricing"
)

// Evaluator applies the deal-quality policy. Deterministic, no side
// effects, no network.
type Evaluator struct {
	// MinDiscount in percent; a listing passes on discount OR savings
	MinDiscount float64
	// MinSavings in euros
	MinSavings float64
	// MaxPrice is the price ceiling guarding against luxury items
	MaxPrice float64
}

// Evaluate computes discount and savings for a listing and checks it
// against the policy. Returns false for listings outside the price window,
// without a real markdown, or failing both thresholds.
func (e Evaluator) Evaluate(l RawListing) (Deal, bool) {
	if l.Price <= 0 || l.Price > e.MaxPrice {
		return Deal{}, false
	}
	if l.FormerPrice <= l.Price {
		return Deal{}, false
	}

	discount := pricing.Round2((l.FormerPrice - l.Price) / l.FormerPrice * 100)
	savings := pricing.Round2(l.FormerPrice - l.Price)

	if discount < e.MinDiscount && savings < e.MinSavings {
		return Deal{}, false
	}

	return Deal{
		RawListing:    l,
		DiscountPct:   discount,
		SavingsAmount: savings,
	}, true
}
