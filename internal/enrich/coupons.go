package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"glitchfinder/helpers"
	"glitchfinder/logger"
	"glitchfinder/pkg/errors"
)

// AggregatorCouponSource scrapes coupon percentages from a list of coupon
// aggregator sites, tried in priority order. The first source reporting a
// positive percentage wins; everything else is skipped.
type AggregatorCouponSource struct {
	fetch   helpers.FetchFunc
	sources []string
	log     *logger.Logger
}

// NewAggregatorCouponSource creates a coupon source over the given
// aggregator base URLs
func NewAggregatorCouponSource(fetch helpers.FetchFunc, sources []string) *AggregatorCouponSource {
	return &AggregatorCouponSource{
		fetch:   fetch,
		sources: sources,
		log:     logger.ForComponent("coupons"),
	}
}

// CouponPct looks up a coupon for a retailer. Fails closed: any fetch or
// parse problem on one source moves on to the next, and exhausting the list
// means "no coupon found".
func (s *AggregatorCouponSource) CouponPct(ctx context.Context, retailer string) (float64, bool) {
	query := url.QueryEscape(strings.ToLower(retailer))

	for _, source := range s.sources {
		searchURL := fmt.Sprintf("%s/search?query=%s", source, query)

		body, err := s.fetch(ctx, searchURL)
		if err != nil {
			s.log.Debug().
				Err(errors.NewEnrichment(retailer, "coupon source unreachable", err)).
				Str("source", source).
				Msg("Coupon source unreachable")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			continue
		}

		text := doc.Find(".coupon-discount, .reduction").First().Text()
		if !strings.Contains(text, "%") {
			continue
		}

		if pct, ok := parsePercent(text); ok {
			s.log.Debug().
				Str("retailer", retailer).
				Str("source", source).
				Float64("coupon_pct", pct).
				Msg("Coupon found")
			return pct, true
		}
	}

	return 0, false
}

// parsePercent extracts the digits of a "-15%" style tag
func parsePercent(text string) (float64, bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	pct, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || pct <= 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}
