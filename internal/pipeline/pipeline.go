// Package pipeline wires configuration into a ready-to-use fact-check service
// and runs the page scan flow on top of it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/authority"
	"github.com/JoseCortezz25/fact-checking-app/internal/cache"
	"github.com/JoseCortezz25/fact-checking-app/internal/extract"
	"github.com/JoseCortezz25/fact-checking-app/internal/fetch"
	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/research"
	"github.com/JoseCortezz25/fact-checking-app/internal/search"
	"github.com/JoseCortezz25/fact-checking-app/internal/store"
	"github.com/JoseCortezz25/fact-checking-app/internal/worker"
	"go.uber.org/zap"
)

// Pipeline owns the long-lived components shared by every fact-check
type Pipeline struct {
	service   *research.Service
	fetcher   *fetch.Fetcher
	extractor *extract.ClaimExtractor
	store     *store.Store
	config    *model.Config
	logger    *zap.Logger
}

// New builds the pipeline. Missing credentials do not fail construction:
// they surface as failed results from every fact-check, naming the missing key.
// Only an unusable history store is returned as an error.
func New(ctx context.Context, cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cache.New(cfg.Cache)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	fetcher := fetch.NewFetcher(cfg.HTTP,
		fetch.WithLimiter(limiter),
		fetch.WithCache(c, cfg.Cache.DiskTTL),
		fetch.WithLogger(logger.Named("fetch")),
	)

	var setupErrs []error

	provider, err := newProvider(ctx, cfg, c, logger)
	if err != nil {
		setupErrs = append(setupErrs, err)
	}
	source, err := newSource(cfg, limiter, fetcher, logger)
	if err != nil {
		setupErrs = append(setupErrs, err)
	}

	opts := []research.ServiceOption{
		research.WithLogger(logger.Named("research")),
		research.WithClassifier(authority.NewClassifier(&cfg.Authority)),
	}
	if len(setupErrs) > 0 {
		opts = append(opts, research.WithSetupError(errors.Join(setupErrs...)))
	}

	p := &Pipeline{
		fetcher:   fetcher,
		extractor: extract.NewClaimExtractor(),
		config:    cfg,
		logger:    logger,
	}

	if cfg.Store.Enabled {
		st, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		p.store = st
		opts = append(opts, research.WithRecorder(st))
	}

	p.service = research.NewService(provider, source, cfg.Research, opts...)
	return p, nil
}

func newProvider(ctx context.Context, cfg *model.Config, c cache.Cache, logger *zap.Logger) (llm.Provider, error) {
	llmCfg := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
	if llmCfg.APIKey == "" {
		llmCfg.APIKey = llm.APIKeyFromEnv(llmCfg.Provider)
	}
	if llmCfg.BaseURL == "" && strings.EqualFold(llmCfg.Provider, "ollama") {
		llmCfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	provider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		return nil, err
	}
	provider = llm.NewRetryingProvider(provider, cfg.LLM.MaxRetries, logger.Named("llm"))
	return llm.NewCachingProvider(provider, c, llmCfg.Model, cfg.Cache.MemoryTTL), nil
}

func newSource(cfg *model.Config, limiter *worker.Limiter, fetcher *fetch.Fetcher, logger *zap.Logger) (search.Source, error) {
	searchCfg := search.ConfigFromModel(cfg.Search, cfg.HTTP)
	if searchCfg.APIKey == "" {
		searchCfg.APIKey = search.APIKeyFromEnv(searchCfg.Provider)
	}
	searchCfg.Limiter = limiter
	searchCfg.Fetcher = fetcher
	searchCfg.Logger = logger.Named("search")
	return search.NewSource(searchCfg)
}

// Service returns the fact-check service
func (p *Pipeline) Service() *research.Service {
	return p.service
}

// Store returns the history store, or nil when history is disabled
func (p *Pipeline) Store() *store.Store {
	return p.store
}

// FactCheck checks one claim with the configured depth and breadth
func (p *Pipeline) FactCheck(ctx context.Context, claim model.Claim) model.Result {
	return p.service.FactCheck(ctx, claim, research.DefaultOptions(p.config.Research))
}

// ScanResult is the outcome of checking every claim found on a page
type ScanResult struct {
	URL     string
	Title   string
	Claims  []model.ExtractedClaim
	Results []model.Result
}

// ScanURL fetches a page, extracts up to maxClaims check-worthy sentences and
// fact-checks them with the configured number of workers.
func (p *Pipeline) ScanURL(ctx context.Context, rawURL string, maxClaims int) (*ScanResult, error) {
	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	extracted := p.extractor.Extract(page.Text, maxClaims)
	p.logger.Info("claims extracted", zap.String("url", page.FinalURL), zap.Int("claims", len(extracted)))

	processor := worker.NewBatchProcessor(p, p.config.Concurrency.Workers)
	results := processor.ProcessClaims(ctx, extract.ToClaims(extracted, model.ClaimContext{}))

	return &ScanResult{
		URL:     page.FinalURL,
		Title:   page.Title,
		Claims:  extracted,
		Results: results,
	}, nil
}

// Close releases the history store
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}
