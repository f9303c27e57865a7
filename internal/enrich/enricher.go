// Package enrich augments deals with coupon and cashback estimates and
// computes the composite score. Both lookups fail closed: a dead aggregator
// or an unknown retailer degrades to "no coupon, zero cashback" and never
// blocks scoring.
package enrich

import (
	"context"
	"strings"

	"glitchfinder/internal/deal"
	"glitchfinder/internal/pricing"
)

// CouponSource looks up an extra coupon percentage for a retailer
type CouponSource interface {
	// CouponPct returns a coupon percentage in (0, 100] and true when one
	// was found
	CouponPct(ctx context.Context, retailer string) (float64, bool)
}

// CashbackSource looks up a flat cashback amount for a retailer
type CashbackSource interface {
	// Cashback returns a flat euro amount, zero when unknown
	Cashback(ctx context.Context, retailer string) float64
}

// Enricher folds coupon and cashback estimates into a deal
type Enricher struct {
	coupons  CouponSource
	cashback CashbackSource
}

// NewEnricher creates an enricher. Nil sources are replaced with explicit
// "nothing found" implementations.
func NewEnricher(coupons CouponSource, cashback CashbackSource) *Enricher {
	if coupons == nil {
		coupons = noCoupons{}
	}
	if cashback == nil {
		cashback = noCashback{}
	}
	return &Enricher{coupons: coupons, cashback: cashback}
}

// Enrich applies coupon and cashback lookups to a deal and recomputes the
// effective savings and score. Idempotent: the output depends only on the
// deal fields and the lookup results.
func (e *Enricher) Enrich(ctx context.Context, d deal.Deal) deal.EnrichedDeal {
	enriched := deal.EnrichedDeal{Deal: d}

	priceAfterCoupon := d.Price
	if pct, ok := e.coupons.CouponPct(ctx, d.Retailer); ok && pct > 0 {
		coupon := pct
		enriched.CouponPct = &coupon
		priceAfterCoupon = d.Price * (1 - pct/100)
	}

	enriched.CashbackAmount = e.cashback.Cashback(ctx, d.Retailer)
	enriched.EffectiveSavings = pricing.Round2((d.FormerPrice - priceAfterCoupon) + enriched.CashbackAmount)
	enriched.Score = pricing.Round2(deal.Score(d.DiscountPct, enriched.EffectiveSavings))

	return enriched
}

// TableCashbackSource serves flat cashback amounts from a static
// per-retailer table. The amounts are deployment configuration, documented
// as estimates; an absent retailer is an explicit zero.
type TableCashbackSource struct {
	Amounts map[string]float64
}

// Cashback returns the table amount for a retailer, zero when unknown
func (s TableCashbackSource) Cashback(ctx context.Context, retailer string) float64 {
	return s.Amounts[strings.ToLower(retailer)]
}

type noCoupons struct{}

func (noCoupons) CouponPct(ctx context.Context, retailer string) (float64, bool) { return 0, false }

type noCashback struct{}

func (noCashback) Cashback(ctx context.Context, retailer string) float64 { return 0 }
