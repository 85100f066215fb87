package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jonesrussell/world-intel/internal/aggregate"
	"github.com/jonesrussell/world-intel/internal/api"
	"github.com/jonesrussell/world-intel/internal/config"
	"github.com/jonesrussell/world-intel/internal/enrich"
	"github.com/jonesrussell/world-intel/internal/feed"
	"github.com/jonesrussell/world-intel/internal/kv"
	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/metrics"
	"github.com/jonesrussell/world-intel/internal/scheduler"
	"github.com/jonesrussell/world-intel/internal/signing"
	"github.com/jonesrussell/world-intel/internal/sources"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	store := openStore(cfg, log)

	return runServer(cfg, log, store)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// openStore connects to Redis when configured, otherwise falls back to the
// in-memory store. KV is best-effort; a failed connection is not fatal.
func openStore(cfg *config.Config, log logger.Logger) kv.Store {
	if cfg.Redis.Address == "" {
		log.Info("no redis configured, using in-memory KV")
		return kv.NewMemoryStore()
	}

	store, err := kv.NewRedisStore(kv.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory KV", logger.Error(err))
		return kv.NewMemoryStore()
	}

	log.Info("redis connected", logger.String("address", cfg.Redis.Address))
	return store
}

// runServer wires the pipeline and runs the HTTP server.
func runServer(cfg *config.Config, log logger.Logger, store kv.Store) int {
	m := metrics.New()
	fetcher := feed.NewFetcher(cfg.Feeds.Timeout, cfg.Feeds.Attempts, log)

	agg := aggregate.New(fetcher, store, aggregate.Config{
		MaxPerSource: cfg.Feeds.MaxPerSource,
		FirstSeenTTL: cfg.Feeds.FirstSeenTTL,
		ClusterTTL:   cfg.Feeds.ClusterTTL,
	}, log)
	agg.SetMetrics(m)

	tokens := cfg.EnrichTokens()
	if len(tokens) == 0 {
		log.Warn("no enrichment credentials configured")
	}
	hfClient := enrich.NewClient(enrich.NewTokenPool(tokens), cfg.Enrich.UseEndpoints, cfg.Enrich.TaskTimeout, log)
	enricher := enrich.NewEnricher(hfClient, store, enrich.Options{
		MaxItems:    cfg.Enrich.MaxItems,
		CacheTTL:    time.Duration(cfg.Enrich.CacheTTLSeconds) * time.Second,
		TaskTimeout: cfg.Enrich.TaskTimeout,
		Models: enrich.Models{
			LangDetect: cfg.Enrich.Models.LangDetect,
			Translate:  cfg.Enrich.Models.Translate,
			ZeroShot:   cfg.Enrich.Models.ZeroShot,
			Summary:    cfg.Enrich.Models.Summary,
			Sentiment:  cfg.Enrich.Models.Sentiment,
			NER:        cfg.Enrich.Models.NER,
		},
	}, log)
	enricher.SetMetrics(m)

	warmer, err := scheduler.NewWarmer(agg, cfg.Feeds.WarmCron, float64(cfg.Feeds.WarmSinceHours), cfg.Feeds.WarmLimit, log)
	if err != nil {
		log.Error("invalid warm-cache schedule", logger.Error(err))
		return 1
	}
	warmer.Start()
	defer warmer.Stop()

	signer := signing.NewSigner(cfg.Service.APISecret)

	handler := api.NewHandler(agg, enricher, signer, api.StreamConfig{
		IntervalMs: cfg.Stream.IntervalMs,
		MaxAge:     cfg.Stream.MaxAge,
	}, log)
	handler.SetMetrics(m)

	server := api.NewServer(cfg.Service.Port, cfg.Service.Debug, handler, m, log)

	log.Info("world-intel starting",
		logger.Int("port", cfg.Service.Port),
		logger.Int("sources", sources.Count()),
		logger.Int("enrich_tokens", len(tokens)),
	)

	if err := server.Run(); err != nil {
		log.Error("server error", logger.Error(err))
		return 1
	}

	log.Info("world-intel exited cleanly")
	return 0
}
