// Package verify implements the availability heuristic: a cheap fetch of a
// listing's buy link to weed out pages that already advertise themselves as
// out of stock. It is a filter, not an authority; false verdicts either way
// are acceptable.
package verify

import (
	"context"
	"io"
	"strings"
	"time"

	"glitchfinder/helpers"
	"glitchfinder/logger"
	"glitchfinder/services/cache"
)

const (
	verdictAvailable   = "available"
	verdictUnavailable = "unavailable"

	// ReasonUnreachable is reported when the page could not be fetched
	ReasonUnreachable = "page inaccessible"
	// ReasonOutOfStock is reported when an out-of-stock marker was found
	ReasonOutOfStock = "rupture de stock"
)

// Verifier checks listing availability with a bounded-timeout fetch.
// Verdicts are memoized in the cache service for a short TTL so repeated
// keyword passes do not refetch the same page.
type Verifier struct {
	fetch   helpers.FetchFunc
	markers []string
	cache   cache.CacheService
	ttl     time.Duration
	log     *logger.Logger
}

// NewVerifier creates a verifier. markers are matched case-insensitively as
// substrings of the page text. cacheSvc may be nil to disable memoization.
func NewVerifier(fetch helpers.FetchFunc, markers []string, cacheSvc cache.CacheService, ttl time.Duration) *Verifier {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		lowered = append(lowered, strings.ToLower(m))
	}
	return &Verifier{
		fetch:   fetch,
		markers: lowered,
		cache:   cacheSvc,
		ttl:     ttl,
		log:     logger.ForComponent("verifier"),
	}
}

// Verify reports whether the page behind url does not indicate out-of-stock
func (v *Verifier) Verify(ctx context.Context, url string) bool {
	available, _ := v.VerifyDetailed(ctx, url)
	return available
}

// VerifyDetailed reports availability with a reason for the negative case.
// Never returns an error: transport failures, timeouts and malformed pages
// all read as unavailable.
func (v *Verifier) VerifyDetailed(ctx context.Context, url string) (bool, string) {
	cacheKey := "verify:" + url
	if v.cache != nil {
		if cached, err := v.cache.Get(cacheKey); err == nil {
			return v.decode(cached)
		}
	}

	available, reason := v.check(ctx, url)

	if v.cache != nil {
		if err := v.cache.Set(cacheKey, v.encode(available, reason), v.ttl); err != nil {
			v.log.Debug().Err(err).Str("url", url).Msg("Failed to cache verdict")
		}
	}

	return available, reason
}

func (v *Verifier) check(ctx context.Context, url string) (bool, string) {
	body, err := v.fetch(ctx, url)
	if err != nil {
		v.log.Debug().Err(err).Str("url", url).Msg("Availability fetch failed")
		return false, ReasonUnreachable
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return false, ReasonUnreachable
	}

	text := strings.ToLower(string(data))
	for _, marker := range v.markers {
		if strings.Contains(text, marker) {
			return false, ReasonOutOfStock
		}
	}

	return true, ""
}

func (v *Verifier) encode(available bool, reason string) []byte {
	if available {
		return []byte(verdictAvailable)
	}
	return []byte(verdictUnavailable + "|" + reason)
}

func (v *Verifier) decode(cached []byte) (bool, string) {
	s := string(cached)
	if s == verdictAvailable {
		return true, ""
	}
	if reason, ok := strings.CutPrefix(s, verdictUnavailable+"|"); ok {
		return false, reason
	}
	return false, ReasonUnreachable
}
