package enrich

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"glitchfinder/internal/deal"
)

type fixedCoupon struct {
	pct   float64
	found bool
}

func (f fixedCoupon) CouponPct(ctx context.Context, retailer string) (float64, bool) {
	return f.pct, f.found
}

func sampleDeal() deal.Deal {
	return deal.Deal{
		RawListing: deal.RawListing{
			Title:       "Aspirateur robot",
			Price:       100,
			FormerPrice: 250,
			BuyLink:     "https://shop.example/p/1",
			Retailer:    "Fnac",
		},
		DiscountPct:   60,
		SavingsAmount: 150,
	}
}

func TestEnrichWithCouponAndCashback(t *testing.T) {
	e := NewEnricher(
		fixedCoupon{pct: 10, found: true},
		TableCashbackSource{Amounts: map[string]float64{"fnac": 5}},
	)

	enriched := e.Enrich(context.Background(), sampleDeal())

	// price after coupon = 100 * 0.9 = 90
	// effective savings = (250 - 90) + 5 = 165
	// score = 60*2 + 165/10 = 136.5
	assert.NotNil(t, enriched.CouponPct)
	assert.Equal(t, 10.0, *enriched.CouponPct)
	assert.Equal(t, 5.0, enriched.CashbackAmount)
	assert.Equal(t, 165.0, enriched.EffectiveSavings)
	assert.Equal(t, 136.5, enriched.Score)
}

func TestEnrichWithoutLookupResults(t *testing.T) {
	e := NewEnricher(nil, nil)

	enriched := e.Enrich(context.Background(), sampleDeal())

	// effective savings collapse to the plain savings amount
	assert.Nil(t, enriched.CouponPct)
	assert.Equal(t, 0.0, enriched.CashbackAmount)
	assert.Equal(t, 150.0, enriched.EffectiveSavings)
	assert.Equal(t, 135.0, enriched.Score)
}

func TestEnrichIdempotent(t *testing.T) {
	e := NewEnricher(
		fixedCoupon{pct: 15, found: true},
		TableCashbackSource{Amounts: map[string]float64{"fnac": 5}},
	)

	d := sampleDeal()
	first := e.Enrich(context.Background(), d)
	second := e.Enrich(context.Background(), d)

	assert.Equal(t, first, second, "same deal and same lookup results must enrich identically")

	// Re-enriching the embedded deal of an enriched result is also stable
	third := e.Enrich(context.Background(), first.Deal)
	assert.Equal(t, first, third)
}

func TestTableCashbackSource(t *testing.T) {
	src := TableCashbackSource{Amounts: map[string]float64{"amazon": 2, "ldlc": 10}}

	assert.Equal(t, 2.0, src.Cashback(context.Background(), "Amazon"))
	assert.Equal(t, 10.0, src.Cashback(context.Background(), "LDLC"))
	assert.Equal(t, 0.0, src.Cashback(context.Background(), "Inconnu"))
}

func TestAggregatorCouponSourceFirstPositiveWins(t *testing.T) {
	var queried []string
	fetch := func(ctx context.Context, url string) (io.Reader, error) {
		queried = append(queried, url)
		switch {
		case strings.HasPrefix(url, "https://dead.example"):
			return nil, errors.New("connection refused")
		case strings.HasPrefix(url, "https://empty.example"):
			return strings.NewReader("<html><body>aucun code</body></html>"), nil
		case strings.HasPrefix(url, "https://hit.example"):
			return strings.NewReader(`<html><body><span class="reduction">-15%</span></body></html>`), nil
		default:
			return strings.NewReader(`<html><body><span class="reduction">-99%</span></body></html>`), nil
		}
	}

	src := NewAggregatorCouponSource(fetch, []string{
		"https://dead.example",
		"https://empty.example",
		"https://hit.example",
		"https://never.example",
	})

	pct, ok := src.CouponPct(context.Background(), "Fnac")
	assert.True(t, ok)
	assert.Equal(t, 15.0, pct)
	assert.Len(t, queried, 3, "lookup must stop at the first positive result")
	assert.Contains(t, queried[0], "query=fnac")
}

func TestAggregatorCouponSourceFailsClosed(t *testing.T) {
	fetch := func(ctx context.Context, url string) (io.Reader, error) {
		return nil, errors.New("timeout")
	}

	src := NewAggregatorCouponSource(fetch, []string{"https://a.example", "https://b.example"})

	pct, ok := src.CouponPct(context.Background(), "Darty")
	assert.False(t, ok)
	assert.Zero(t, pct)
}

func TestParsePercent(t *testing.T) {
	testCases := []struct {
		input string
		pct   float64
		ok    bool
	}{
		{"-15%", 15, true},
		{"jusqu'à 8% de réduction", 8, true},
		{"%", 0, false},
		{"-0%", 0, false},
		{"-250%", 0, false},
	}

	for _, tc := range testCases {
		pct, ok := parsePercent(tc.input)
		assert.Equal(t, tc.ok, ok, "ok mismatch for %q", tc.input)
		assert.Equal(t, tc.pct, pct, "pct mismatch for %q", tc.input)
	}
}
