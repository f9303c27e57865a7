// Package search drives the aggregation pipeline: keywords fan out to site
// adapters, raw listings flow through evaluation, verification and
// enrichment, and the best results stream out as ordered events.
package search

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"glitchfinder/internal/adapter"
	"glitchfinder/internal/deal"
	"glitchfinder/internal/topk"
	"glitchfinder/logger"
	"glitchfinder/services/publisher"
)

// Event is one element of the session's progress feed. Accepted deals carry
// Item, Progress and Keyword; the terminal event carries Finished and
// TotalFound and is emitted exactly once, last. TotalFound is serialized
// even at zero so an empty session's terminal line still reports the count.
type Event struct {
	Item       *deal.EnrichedDeal `json:"item,omitempty"`
	Progress   int                `json:"progress,omitempty"`
	Keyword    string             `json:"keyword,omitempty"`
	Finished   bool               `json:"finished,omitempty"`
	TotalFound int                `json:"total_found"`
}

// Verifier is the availability check applied to each deal's buy link
type Verifier interface {
	Verify(ctx context.Context, url string) bool
}

// Enricher folds coupon/cashback estimates into a deal
type Enricher interface {
	Enrich(ctx context.Context, d deal.Deal) deal.EnrichedDeal
}

// Options configures an orchestrator
type Options struct {
	Adapters  []adapter.SiteAdapter
	Evaluator deal.Evaluator
	Verifier  Verifier
	Enricher  Enricher
	Publisher publisher.Publisher

	Categories      map[string][]string
	DefaultCategory string

	MaxResults         int
	MaxKeywordDepth    int
	AdapterConcurrency int
}

// Orchestrator runs search sessions. It holds only read-only configuration;
// every session owns its own mutable state, so one orchestrator serves
// concurrent requests.
type Orchestrator struct {
	opts Options
}

// NewOrchestrator creates an orchestrator, clamping nonsensical caps
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Publisher == nil {
		opts.Publisher = publisher.Noop{}
	}
	if opts.MaxResults < 1 {
		opts.MaxResults = 1
	}
	if opts.MaxKeywordDepth < 1 {
		opts.MaxKeywordDepth = 1
	}
	if opts.AdapterConcurrency < 1 {
		opts.AdapterConcurrency = 1
	}
	return &Orchestrator{opts: opts}
}

// Keywords resolves a category to its keyword list; unknown categories fall
// back to the default category
func (o *Orchestrator) Keywords(category string) []string {
	if kws, ok := o.opts.Categories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return kws
	}
	return o.opts.Categories[o.opts.DefaultCategory]
}

// Run starts a session and returns its ordered event feed. The channel is
// closed after the terminal event, or as soon as ctx is cancelled; a
// cancelled session emits no terminal event.
func (o *Orchestrator) Run(ctx context.Context, category string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		found, _ := o.session(ctx, category, emit)
		if ctx.Err() != nil {
			return
		}
		emit(Event{Finished: true, TotalFound: len(found)})
	}()

	return events
}

// Search runs a session to completion and returns the final results and the
// number of raw listings scanned. Non-streaming variant of Run.
func (o *Orchestrator) Search(ctx context.Context, category string) ([]deal.EnrichedDeal, int) {
	return o.session(ctx, category, func(Event) bool { return true })
}

// session is the pipeline loop shared by Run and Search. emit is called for
// every accepted deal and returns false to abort the session.
func (o *Orchestrator) session(ctx context.Context, category string, emit func(Event) bool) ([]deal.EnrichedDeal, int) {
	log := logger.ForSession(uuid.NewString()).WithField("category", category)

	keywords := o.Keywords(category)
	results := topk.New(o.opts.MaxResults)
	seen := make(map[string]struct{})
	scanned := 0

	log.Info().Int("keywords", len(keywords)).Int("adapters", len(o.opts.Adapters)).Msg("Session started")

passes:
	for pass := 0; pass < o.opts.MaxKeywordDepth && !results.IsFull(); pass++ {
		for _, keyword := range keywords {
			if ctx.Err() != nil {
				log.Info().Msg("Session cancelled")
				return results.Items(), scanned
			}

			listings := o.collect(ctx, keyword)
			scanned += len(listings)

			batch := make([]deal.Deal, 0, len(listings))
			for _, l := range listings {
				// Repeat passes only add value where a prior fetch failed;
				// anything already examined in this session is skipped
				if _, dup := seen[l.BuyLink]; dup {
					continue
				}
				seen[l.BuyLink] = struct{}{}

				if d, ok := o.opts.Evaluator.Evaluate(l); ok {
					batch = append(batch, d)
				}
			}

			// Verify the strongest candidates first so hitting the cap
			// mid-batch keeps "best deals found first" semantics
			sort.SliceStable(batch, func(i, j int) bool {
				return deal.Score(batch[i].DiscountPct, batch[i].SavingsAmount) >
					deal.Score(batch[j].DiscountPct, batch[j].SavingsAmount)
			})

			for _, d := range batch {
				if ctx.Err() != nil {
					log.Info().Msg("Session cancelled")
					return results.Items(), scanned
				}
				if !o.opts.Verifier.Verify(ctx, d.BuyLink) {
					continue
				}

				enriched := o.opts.Enricher.Enrich(ctx, d)
				enriched.Available = true

				if !results.Insert(enriched) {
					continue
				}
				o.publish(enriched, log)

				item := enriched
				if !emit(Event{Item: &item, Progress: results.Len(), Keyword: keyword}) {
					return results.Items(), scanned
				}
				if results.IsFull() {
					break passes
				}
			}
		}
	}

	if err := o.opts.Publisher.TrimStreams(); err != nil {
		log.Warn().Err(err).Msg("Stream trimming failed")
	}

	log.Info().Int("found", results.Len()).Int("scanned", scanned).Msg("Session finished")
	return results.Items(), scanned
}

// collect fans one keyword out to all adapters on a bounded worker pool and
// concatenates their listings. Adapter order in the output is not
// meaningful; ordering happens per batch on preliminary score.
func (o *Orchestrator) collect(ctx context.Context, keyword string) []deal.RawListing {
	var (
		mu  sync.Mutex
		all []deal.RawListing
		wg  sync.WaitGroup
	)
	sem := make(chan struct{}, o.opts.AdapterConcurrency)

	for _, a := range o.opts.Adapters {
		wg.Add(1)
		go func(a adapter.SiteAdapter) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			listings := a.Search(ctx, keyword)

			mu.Lock()
			all = append(all, listings...)
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	return all
}

// publish pushes an accepted deal onto the downstream feed, best effort
func (o *Orchestrator) publish(d deal.EnrichedDeal, log *logger.Logger) {
	payload, err := json.Marshal(d)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal deal")
		return
	}
	if err := o.opts.Publisher.Publish(strings.ToLower(d.Retailer), payload); err != nil {
		log.Warn().Err(err).Str("retailer", d.Retailer).Msg("Publish failed")
	}
}
