package commands

import (
	"context"
	"fmt"
	"time"

	"qualsight/internal/ai"
	"qualsight/internal/analysis"
	"qualsight/internal/fetch"
	"qualsight/internal/ticker"
	"qualsight/internal/validate"
	"qualsight/pkg/config"
	"qualsight/pkg/httputil"
	"qualsight/pkg/logger"
	"qualsight/pkg/redis"
)

// deps bundles the collaborators every command wires the same way.
// Database and AI are attached separately by the commands that need them.
type deps struct {
	cfg       *config.Config
	log       *logger.Logger
	redis     *redis.Client
	resolver  *ticker.Resolver
	fetcher   *fetch.MultiSource
	validator *validate.Validator
	analyzer  *analysis.Analyzer
}

// buildDeps loads config and assembles the fetch/validate/analyze stack
func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// Provider requests share one outbound rate limit. Redis-backed so
	// multiple processes stay under it together; without Redis a local
	// token bucket keeps a single process polite.
	httpClient := httputil.New(log)
	if redisClient.Enabled() {
		httpClient.WithRateLimiter(
			redis.NewRateLimiter(redisClient, "qualsight"),
			redis.RateLimitConfig{Key: "providers", Limit: 10, Window: time.Second},
		)
	} else {
		httpClient.WithLocalRateLimit(5, 5)
	}

	resolver := ticker.NewResolver()

	fetcher := fetch.NewMultiSource(cfg, httpClient, resolver, log)

	yahoo := fetch.NewYahooAdapter(cfg.Yahoo.BaseURL, httpClient, resolver, log)

	// FMP is credential-gated; without a key the validator simply skips it
	var fundSearch validate.Searcher
	var profiles validate.ProfileLookup
	if cfg.FMP.APIKey != "" {
		fmp, err := fetch.NewFMPAdapter(cfg.FMP.BaseURL, cfg.FMP.APIKey, httpClient, log)
		if err != nil {
			return nil, fmt.Errorf("create fmp adapter: %w", err)
		}
		fundSearch = fmp
		profiles = fmp
	}

	validator := validate.NewValidator(resolver, fundSearch, yahoo, profiles, log)
	analyzer := analysis.NewAnalyzer(log)

	return &deps{
		cfg:       cfg,
		log:       log,
		redis:     redisClient,
		resolver:  resolver,
		fetcher:   fetcher,
		validator: validator,
		analyzer:  analyzer,
	}, nil
}

// close releases shared connections held by the command stack
func (d *deps) close() {
	if err := d.redis.Close(); err != nil {
		d.log.WithError(err).Warn("Failed to close redis client")
	}
}

// buildAI returns the narrative and forensic collaborators, or nils when
// Gemini is not configured
func (d *deps) buildAI(ctx context.Context) (*ai.Narrator, *ai.ForensicAnalyst) {
	if d.cfg.Gemini.APIKey == "" {
		return nil, nil
	}

	gen, err := ai.NewGeminiClient(ctx, d.cfg.Gemini)
	if err != nil {
		d.log.WithError(err).Warn("Gemini unavailable, narrative enhancement disabled")
		return nil, nil
	}

	return ai.NewNarrator(gen, d.log), ai.NewForensicAnalyst(gen, d.log)
}
