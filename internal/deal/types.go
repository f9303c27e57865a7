// Package deal holds the listing data model and the policy filter that
// turns raw retailer listings into deals worth verifying.
package deal

// RawListing is a retailer-reported candidate before any filtering.
// Immutable once produced by a site adapter.
type RawListing struct {
	Title string `json:"title"`
	// Price is the current price, currency-normalized to euros
	Price float64 `json:"price"`
	// FormerPrice is the best-effort original price. When the retailer does
	// not advertise one it is estimated, and FormerPriceEstimated is set.
	FormerPrice          float64 `json:"former_price,omitempty"`
	FormerPriceEstimated bool    `json:"former_price_estimated,omitempty"`
	BuyLink              string  `json:"buy_link"`
	Retailer             string  `json:"retailer"`
}

// Deal is a RawListing that cleared the discount/savings thresholds
type Deal struct {
	RawListing
	// DiscountPct is round((former-price)/former*100, 2), in [0, 100]
	DiscountPct float64 `json:"discount_pct"`
	// SavingsAmount is former_price - price, always >= 0
	SavingsAmount float64 `json:"savings_amount"`
}

// EnrichedDeal is a verified Deal extended with coupon/cashback estimates
// and the composite ranking score
type EnrichedDeal struct {
	Deal
	CouponPct        *float64 `json:"coupon_pct,omitempty"`
	CashbackAmount   float64  `json:"cashback_amount"`
	EffectiveSavings float64  `json:"effective_savings"`
	Score            float64  `json:"score"`
	Available        bool     `json:"available"`
}

// Score is the composite ranking value. The weights have no deeper
// rationale than the reference deployment; any replacement must stay
// monotonic non-decreasing in both arguments.
func Score(discountPct, effectiveSavings float64) float64 {
	return discountPct*2 + effectiveSavings/10
}
