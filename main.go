package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glitchfinder/config"
	"glitchfinder/helpers"
	"glitchfinder/internal/adapter"
	"glitchfinder/internal/deal"
	"glitchfinder/internal/enrich"
	"glitchfinder/internal/pricing"
	"glitchfinder/internal/search"
	"glitchfinder/internal/server"
	"glitchfinder/internal/verify"
	"glitchfinder/logger"
	"glitchfinder/services/cache"
	"glitchfinder/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.HTTPAddr).
		Int("max_results", cfg.MaxResults).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	// Assemble the pipeline
	fetcher := helpers.NewFetcher(cfg.FetchTimeout, services.Cache, cfg.BlockTime)

	adapters := adapter.BuildAdapters(cfg, fetcher.Fetch, func(min, max float64) pricing.UpliftEstimator {
		return pricing.NewRandomUplift(min, max)
	})
	if len(adapters) == 0 {
		log.Fatal().Msg("No site adapters were created")
	}

	log.Info().
		Int("adapter_count", len(adapters)).
		Msg("Created site adapters")

	verifier := verify.NewVerifier(fetcher.Fetch, cfg.OutOfStockMarkers, services.Cache, cfg.VerifyCacheTTL)
	enricher := enrich.NewEnricher(
		enrich.NewAggregatorCouponSource(fetcher.Fetch, cfg.CouponSources),
		enrich.TableCashbackSource{Amounts: cfg.CashbackTable},
	)

	orch := search.NewOrchestrator(search.Options{
		Adapters: adapters,
		Evaluator: deal.Evaluator{
			MinDiscount: cfg.MinDiscount,
			MinSavings:  cfg.MinSavings,
			MaxPrice:    cfg.MaxPrice,
		},
		Verifier:           verifier,
		Enricher:           enricher,
		Publisher:          services.Publisher,
		Categories:         cfg.Categories,
		DefaultCategory:    cfg.DefaultCategory,
		MaxResults:         cfg.MaxResults,
		MaxKeywordDepth:    cfg.MaxKeywordDepth,
		AdapterConcurrency: cfg.AdapterConcurrency,
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(orch, verifier).Handler(),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Listening for search requests")
		serverDone <- srv.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}

// Services holds the optional backing services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices wires the cache and the deal feed publisher. Both are
// optional: without a Memcache address the verifier memoizes in process
// memory, and without a Redis address found deals are not fanned out.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	log := logger.Default
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Using Memcache")
	} else {
		services.Cache = cache.NewMemoryService()
		log.Info().Msg("Using in-process cache")
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		log.Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Str("stream", cfg.RedisStream).
			Msg("Publishing deals to Redis")
	} else {
		services.Publisher = publisher.Noop{}
	}

	return services
}
