package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glitchfinder/helpers"
	"glitchfinder/internal/adapter"
	"glitchfinder/internal/deal"
	"glitchfinder/internal/enrich"
	"glitchfinder/internal/pricing"
	"glitchfinder/internal/search"
	"glitchfinder/internal/server"
	"glitchfinder/internal/verify"
	"glitchfinder/services/cache"
	"glitchfinder/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Search-results page mimicking a French retailer. Three candidates: a
// strong markdown, a strong markdown whose product page is out of stock,
// and a weak markdown that the evaluator must reject.
const retailerSearchHTML = `
<!DOCTYPE html>
<html>
<body>
    <div class="listing">
        <div class="item">
            <h3 class="title">Casque Bluetooth Premium</h3>
            <span class="price">100,00 &euro;</span>
            <span class="former">250,00 &euro;</span>
            <a href="/p/ok">Voir</a>
        </div>
        <div class="item">
            <h3 class="title">SSD NVMe 2 To</h3>
            <span class="price">60,00 &euro;</span>
            <span class="former">240,00 &euro;</span>
            <a href="/p/oos">Voir</a>
        </div>
        <div class="item">
            <h3 class="title">Ecran 27 pouces</h3>
            <span class="price">900,00 &euro;</span>
            <span class="former">950,00 &euro;</span>
            <a href="/p/weak">Voir</a>
        </div>
    </div>
</body>
</html>
`

const availableProductHTML = `<html><body><h1>Produit</h1><button>Ajouter au panier</button></body></html>`

const outOfStockProductHTML = `<html><body><h1>Produit</h1><p>Article actuellement en rupture de stock</p></body></html>`

const couponPageHTML = `<html><body><div class="coupon-discount">10% de remise</div></body></html>`

func newRetailerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, retailerSearchHTML)
	})
	mux.HandleFunc("/p/ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, availableProductHTML)
	})
	mux.HandleFunc("/p/oos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, outOfStockProductHTML)
	})
	mux.HandleFunc("/p/weak", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, availableProductHTML)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newCouponServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, couponPageHTML)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOrchestrator(t *testing.T, retailer, coupons *httptest.Server) *search.Orchestrator {
	t.Helper()

	fetcher := helpers.NewFetcher(5*time.Second, cache.NewMemoryService(), time.Minute)

	site := adapter.SiteConfig{
		Name:       "TestStore",
		SearchURL:  retailer.URL + "/search?q=%s",
		BaseURL:    retailer.URL,
		MaxPerSite: 10,
		Selectors: adapter.Selectors{
			Item:        ".item",
			Title:       ".title",
			Price:       ".price",
			FormerPrice: ".former",
			Link:        "a",
		},
	}

	verifier := verify.NewVerifier(
		fetcher.Fetch,
		[]string{"indisponible", "rupture", "out of stock"},
		cache.NewMemoryService(),
		time.Minute,
	)

	enricher := enrich.NewEnricher(
		enrich.NewAggregatorCouponSource(fetcher.Fetch, []string{coupons.URL}),
		enrich.TableCashbackSource{Amounts: map[string]float64{"teststore": 5}},
	)

	return search.NewOrchestrator(search.Options{
		Adapters: []adapter.SiteAdapter{
			adapter.NewConfigurableAdapter(site, fetcher.Fetch, pricing.FixedUplift{Factor: 1.5}),
		},
		Evaluator:          deal.Evaluator{MinDiscount: 35, MinSavings: 300, MaxPrice: 1000},
		Verifier:           verifier,
		Enricher:           enricher,
		Publisher:          publisher.Noop{},
		Categories:         map[string][]string{"tech": {"casque bluetooth"}},
		DefaultCategory:    "tech",
		MaxResults:         5,
		MaxKeywordDepth:    1,
		AdapterConcurrency: 2,
	})
}

// TestPipelineEndToEnd runs a full session over httptest retailers: weak
// markdowns are rejected, out-of-stock pages are dropped by the verifier,
// and surviving deals come back enriched with the coupon and cashback.
func TestPipelineEndToEnd(t *testing.T) {
	retailer := newRetailerServer(t)
	coupons := newCouponServer(t)
	orch := newTestOrchestrator(t, retailer, coupons)

	items, scanned := orch.Search(context.Background(), "tech")

	assert.Equal(t, 3, scanned)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, "Casque Bluetooth Premium", got.Title)
	assert.Equal(t, "TestStore", got.Retailer)
	assert.Equal(t, retailer.URL+"/p/ok", got.BuyLink)
	assert.False(t, got.FormerPriceEstimated)
	assert.True(t, got.Available)

	assert.InDelta(t, 100.0, got.Price, 0.001)
	assert.InDelta(t, 250.0, got.FormerPrice, 0.001)
	assert.InDelta(t, 60.0, got.DiscountPct, 0.001)
	assert.InDelta(t, 150.0, got.SavingsAmount, 0.001)

	// 10% coupon drops the price to 90, cashback adds 5:
	// (250 - 90) + 5 = 165 effective, score 60*2 + 165/10 = 136.5
	require.NotNil(t, got.CouponPct)
	assert.InDelta(t, 10.0, *got.CouponPct, 0.001)
	assert.InDelta(t, 5.0, got.CashbackAmount, 0.001)
	assert.InDelta(t, 165.0, got.EffectiveSavings, 0.001)
	assert.InDelta(t, 136.5, got.Score, 0.001)
}

// TestStreamEndpointEndToEnd drives the same pipeline through the HTTP
// layer and reads the NDJSON stream.
func TestStreamEndpointEndToEnd(t *testing.T) {
	retailer := newRetailerServer(t)
	coupons := newCouponServer(t)
	orch := newTestOrchestrator(t, retailer, coupons)

	fetcher := helpers.NewFetcher(5*time.Second, cache.NewMemoryService(), time.Minute)
	verifier := verify.NewVerifier(
		fetcher.Fetch,
		[]string{"rupture"},
		cache.NewMemoryService(),
		time.Minute,
	)

	api := httptest.NewServer(server.New(orch, verifier).Handler())
	defer api.Close()

	resp, err := http.Get(api.URL + "/search_stream?category=tech")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var events []search.Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev search.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 2)
	require.NotNil(t, events[0].Item)
	assert.Equal(t, "Casque Bluetooth Premium", events[0].Item.Title)
	assert.Equal(t, 1, events[0].Progress)
	assert.True(t, events[1].Finished)
	assert.Equal(t, 1, events[1].TotalFound)
}

// TestVerifyEndpointEndToEnd checks the standalone verification route
// against real product pages.
func TestVerifyEndpointEndToEnd(t *testing.T) {
	retailer := newRetailerServer(t)
	coupons := newCouponServer(t)
	orch := newTestOrchestrator(t, retailer, coupons)

	fetcher := helpers.NewFetcher(5*time.Second, cache.NewMemoryService(), time.Minute)
	verifier := verify.NewVerifier(
		fetcher.Fetch,
		[]string{"rupture"},
		cache.NewMemoryService(),
		time.Minute,
	)

	api := httptest.NewServer(server.New(orch, verifier).Handler())
	defer api.Close()

	check := func(productPath, wantStatus string) {
		t.Helper()
		body := strings.NewReader(fmt.Sprintf(`{"url":%q}`, retailer.URL+productPath))
		resp, err := http.Post(api.URL+"/verify", "application/json", body)
		require.NoError(t, err)
		defer resp.Body.Close()

		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, wantStatus, out["status"], "path %s", productPath)
	}

	check("/p/ok", "available")
	check("/p/oos", "unavailable")
}
