package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"glitchfinder/helpers"
	"glitchfinder/internal/deal"
	"glitchfinder/internal/pricing"
	"glitchfinder/logger"
)

// ConfigurableAdapter implements SiteAdapter for any retailer whose
// search-results page can be described with a SiteConfig. One instance per
// retailer; the differences between retailers are data, not control flow.
type ConfigurableAdapter struct {
	cfg       SiteConfig
	fetch     helpers.FetchFunc
	estimator pricing.UpliftEstimator
	log       *logger.Logger
}

// NewConfigurableAdapter creates an adapter from a site configuration. The
// estimator supplies former-price estimates when the retailer does not
// advertise one.
func NewConfigurableAdapter(cfg SiteConfig, fetch helpers.FetchFunc, estimator pricing.UpliftEstimator) *ConfigurableAdapter {
	return &ConfigurableAdapter{
		cfg:       cfg,
		fetch:     fetch,
		estimator: estimator,
		log:       logger.ForAdapter(cfg.Name),
	}
}

// Name returns the retailer identifier
func (a *ConfigurableAdapter) Name() string {
	return a.cfg.Name
}

// Search fetches the retailer's search page for a keyword and extracts raw
// listings. Any fetch or parse error is swallowed and logged; the result is
// simply empty.
func (a *ConfigurableAdapter) Search(ctx context.Context, keyword string) []deal.RawListing {
	searchURL := fmt.Sprintf(a.cfg.SearchURL, url.QueryEscape(keyword))

	body, err := a.fetch(ctx, searchURL)
	if err != nil {
		a.log.Warn().Err(err).Str("keyword", keyword).Msg("Fetch failed, returning no listings")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		a.log.Warn().Err(err).Str("keyword", keyword).Msg("HTML parse failed, returning no listings")
		return nil
	}

	var listings []deal.RawListing
	doc.Find(a.cfg.Selectors.Item).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(listings) >= a.cfg.MaxPerSite {
			return false
		}
		if l, ok := a.extractListing(s); ok {
			listings = append(listings, l)
		}
		return true
	})

	a.log.Debug().
		Str("keyword", keyword).
		Int("listings", len(listings)).
		Msg("Search complete")

	return listings
}

// extractListing pulls one RawListing out of an item block. Items missing a
// title, a parseable price or a buy link are skipped.
func (a *ConfigurableAdapter) extractListing(s *goquery.Selection) (deal.RawListing, bool) {
	title := strings.TrimSpace(s.Find(a.cfg.Selectors.Title).First().Text())
	if title == "" {
		return deal.RawListing{}, false
	}

	priceText := s.Find(a.cfg.Selectors.Price).First().Text()
	if a.cfg.Selectors.PriceFraction != "" {
		priceText += s.Find(a.cfg.Selectors.PriceFraction).First().Text()
	}
	price, ok := pricing.Normalize(priceText)
	if !ok {
		return deal.RawListing{}, false
	}

	link := a.resolveLink(s.Find(a.cfg.Selectors.Link).First())
	if link == "" {
		return deal.RawListing{}, false
	}

	listing := deal.RawListing{
		Title:    title,
		Price:    pricing.Round2(price),
		BuyLink:  link,
		Retailer: a.cfg.Name,
	}

	if former, ok := pricing.Normalize(s.Find(a.cfg.Selectors.FormerPrice).First().Text()); ok {
		listing.FormerPrice = pricing.Round2(former)
	} else {
		// No advertised former price; estimate one and flag it
		listing.FormerPrice = a.estimator.Estimate(price)
		listing.FormerPriceEstimated = true
	}

	return listing, true
}

// resolveLink reads the href of an anchor selection and makes it absolute
func (a *ConfigurableAdapter) resolveLink(sel *goquery.Selection) string {
	href, exists := sel.Attr("href")
	if !exists {
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return href
	}

	base, err := url.Parse(a.cfg.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
