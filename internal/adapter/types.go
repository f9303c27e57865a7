package adapter

import (
	"context"

	"glitchfinder/internal/deal"
)

// SiteAdapter is the capability every retailer integration fulfills: given
// a search keyword, return raw candidate listings. Adapters fail closed; a
// fetch or parse problem yields an empty slice, never an error to the
// orchestrator. Adapters are independent and share no mutable state.
type SiteAdapter interface {
	// Search fetches the retailer's search-results page for a keyword and
	// extracts at most MaxPerSite raw listings
	Search(ctx context.Context, keyword string) []deal.RawListing

	// Name returns the retailer identifier
	Name() string
}

// Selectors contains CSS selectors for the pieces of a search-results page
type Selectors struct {
	// Item matches one listing block
	Item string
	// Title matches the listing title inside an item
	Title string
	// Price matches the current price text
	Price string
	// PriceFraction matches a separate cents cell (Amazon-style split
	// prices); appended to the Price text when present
	PriceFraction string
	// FormerPrice matches the advertised pre-discount price, if any
	FormerPrice string
	// Link matches the anchor carrying the buy link
	Link string
}

// SiteConfig describes one retailer: URL template, selectors as data, and
// the uplift range used to estimate missing former prices
type SiteConfig struct {
	Name string
	// SearchURL is a template with a single %s keyword slot
	SearchURL string
	// BaseURL resolves relative buy links
	BaseURL    string
	MaxPerSite int
	// UpliftMin/UpliftMax bound the multiplicative former-price estimate
	UpliftMin float64
	UpliftMax float64
	Selectors Selectors
}
