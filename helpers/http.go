package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"glitchfinder/pkg/errors"
	"glitchfinder/services/cache"
)

// FetchFunc fetches a URL and returns its body decoded to UTF-8. Adapters,
// the verifier and the coupon enricher all take one so tests can inject
// canned pages.
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.fr/",
		"https://www.bing.com/",
		"https://www.qwant.com/",
	}
)

// Fetcher performs browser-like GET requests with a per-host rate limiter
// and a block cache for hosts that answered 429. A single failure is final;
// fetches are not retried.
type Fetcher struct {
	client    *http.Client
	cache     cache.CacheService
	blockTime time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rnd      *mathrand.Rand
}

// NewFetcher creates a fetcher with the given request timeout. cacheSvc may
// be nil, in which case 429 blocks are not remembered across requests.
func NewFetcher(timeout time.Duration, cacheSvc cache.CacheService, blockTime time.Duration) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		cache:     cacheSvc,
		blockTime: blockTime,
		limiters:  make(map[string]*rate.Limiter),
		rnd:       mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// limiter returns the rate limiter for a host, creating it on first use
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(500*time.Millisecond), 2)
		f.limiters[host] = l
	}
	return l
}

func (f *Fetcher) pick(list []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return list[f.rnd.Intn(len(list))]
}

// Fetch sends an HTTP GET request with browser-like headers, converts the
// response body to UTF-8 if needed, and returns it as an io.Reader.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (io.Reader, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewSource("", fmt.Sprintf("invalid url %q", rawURL), err)
	}
	host := u.Host
	blockKey := "block:" + host

	if f.cache != nil {
		if _, err := f.cache.Get(blockKey); err == nil {
			return nil, errors.NewSource(host, "host is blocked after rate limiting", nil)
		}
	}

	if err := f.limiter(host).Wait(ctx); err != nil {
		return nil, errors.NewSource(host, "rate limiter wait aborted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewSource(host, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", f.pick(userAgents))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", f.pick(referers))
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewSource(host, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if f.cache != nil {
			if setErr := f.cache.Set(blockKey, []byte("1"), f.blockTime); setErr != nil {
				return nil, errors.NewSource(host, "failed to set block key", setErr)
			}
		}
		return nil, errors.NewSource(host, fmt.Sprintf("rate limited; retry after %s", resp.Header.Get("Retry-After")), nil)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewSource(host, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewSource(host, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, errors.NewParse(host, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}
