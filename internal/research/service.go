// Package research implements the recursive research loop behind a fact-check:
// query generation, evidence collection, learning extraction, and synthesis.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/authority"
	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User-facing messages for failed results
const (
	msgNetwork  = "Network error: please check your connection and try again."
	msgContract = "The fact-check could not be completed because the model returned an invalid answer. Please try again."
)

// Recorder persists finished results
type Recorder interface {
	Save(ctx context.Context, res model.Result) error
}

// Options are the per-request research parameters
type Options struct {
	Depth     int
	Breadth   int
	Language  string
	RequestID string
}

// DefaultOptions reads depth, breadth, and language from configuration
func DefaultOptions(cfg model.ResearchConfig) Options {
	return Options{Depth: cfg.Depth, Breadth: cfg.Breadth, Language: cfg.Language}
}

// Service runs fact-checks
type Service struct {
	provider   llm.Provider
	source     search.Source
	classifier *authority.Classifier
	recorder   Recorder
	cfg        model.ResearchConfig
	setupErr   error
	logger     *zap.Logger
	now        func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithRecorder persists every result
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithClassifier labels verdict sources with their authority tier
func WithClassifier(c *authority.Classifier) ServiceOption {
	return func(s *Service) { s.classifier = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSetupError makes every fact-check fail with err, typically a missing
// credential found while building the provider or the source.
func WithSetupError(err error) ServiceOption {
	return func(s *Service) { s.setupErr = err }
}

// NewService creates a fact-check service
func NewService(provider llm.Provider, source search.Source, cfg model.ResearchConfig, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		source:   source,
		cfg:      cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FactCheck researches claim and returns its outcome. It never returns an
// error: failures are reported through Result.Status and Result.Error.
func (s *Service) FactCheck(ctx context.Context, claim model.Claim, opts Options) (res model.Result) {
	res = model.Result{
		RequestID: opts.RequestID,
		Claim:     claim,
		StartedAt: s.now().UTC(),
	}
	if res.RequestID == "" {
		res.RequestID = uuid.NewString()
	}
	log := s.logger.With(zap.String("request_id", res.RequestID), zap.String("claim", claim.Text))

	defer func() {
		if r := recover(); r != nil {
			log.Error("fact-check panicked", zap.Any("panic", r))
			res.Status = model.StatusFailed
			res.Verdict = nil
			res.Error = "internal error"
		}
		res.FinishedAt = s.now().UTC()
		s.finish(ctx, log, &res)
	}()

	verdict, err := s.run(ctx, log, claim, opts, &res.Stats)
	s.resolve(log, &res, verdict, err)
	return res
}

func (s *Service) run(ctx context.Context, log *zap.Logger, claim model.Claim, opts Options, stats *model.ResearchStats) (*model.Verdict, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claim.Text) == "" {
		return nil, errors.New("claim text is empty")
	}
	if opts.Depth < 0 {
		return nil, fmt.Errorf("depth must be >= 0, got %d", opts.Depth)
	}
	if opts.Breadth < 1 {
		return nil, fmt.Errorf("breadth must be >= 1, got %d", opts.Breadth)
	}
	if opts.Language != "" {
		claim.Context.Language = opts.Language
	}

	stats.Depth = opts.Depth
	stats.Breadth = opts.Breadth

	meter := NewMeter(BudgetFromConfig(s.cfg))
	provider := meter.Provider(s.provider)
	prompts := NewPrompts(claim, s.cfg.Language, s.now())
	rec := NewRecord(claim.Text)
	defer fillStats(stats, meter, rec)

	orch := NewOrchestrator(Components{
		Queries:   NewQueryGenerator(provider, prompts),
		Collector: NewCollector(provider, meter.Source(s.source), NewRelevanceFilter(provider, prompts, s.cfg.MaxDocumentChars), prompts, s.cfg.MaxSteps, log),
		Learnings: NewLearningExtractor(provider, prompts, s.cfg.MaxDocumentChars),
		Meter:     meter,
	}, s.cfg.Parallelism, log)

	researchCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		researchCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	err := orch.Research(researchCtx, rec, claim.Text, opts.Depth, opts.Breadth)
	switch {
	case err == nil:
	case errors.Is(err, ErrBudgetExhausted):
		log.Info("research budget exhausted, synthesizing what was found", zap.Error(err))
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		log.Warn("research deadline reached, synthesizing what was found")
	default:
		return nil, err
	}

	// the research deadline may already have passed; synthesis gets its own
	synthCtx := ctx
	if s.cfg.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, s.cfg.SynthesisTimeout)
		defer cancel()
	}
	synth := NewSynthesizer(meter.Counting(s.provider), prompts, s.classifier, s.cfg.MaxDocumentChars)
	return synth.Synthesize(synthCtx, claim, rec)
}

// Ready reports whether fact-checks can run: credentials are configured and
// the language model provider answers.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.provider.IsAvailable(ctx) {
		return fmt.Errorf("language model provider %s is not reachable", s.provider.Name())
	}
	return nil
}

func (s *Service) ready() error {
	if s.setupErr != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, s.setupErr)
	}
	if s.provider == nil {
		return fmt.Errorf("%w: no language model provider configured", ErrConfiguration)
	}
	if s.source == nil {
		return fmt.Errorf("%w: no search provider configured", ErrConfiguration)
	}
	return nil
}

// resolve applies the outcome policy: quota becomes the fallback verdict,
// everything else that failed becomes a failed result.
func (s *Service) resolve(log *zap.Logger, res *model.Result, verdict *model.Verdict, err error) {
	kind := Classify(err)
	switch kind {
	case KindNone:
		res.Status = model.StatusVerified
		res.Verdict = verdict
		return
	case KindQuota:
		log.Warn("provider quota exhausted, returning fallback verdict", zap.Error(err))
		res.Status = model.StatusFallback
		res.Verdict = model.FallbackVerdict(res.Claim.Text)
		return
	}

	res.Status = model.StatusFailed
	switch kind {
	case KindConfiguration:
		res.Error = err.Error()
	case KindContract:
		res.Error = msgContract
	case KindNetwork:
		res.Error = msgNetwork
	default:
		res.Error = err.Error()
	}
	log.Error("fact-check failed",
		zap.String("kind", kind.String()),
		zap.Int("nodes", res.Stats.Nodes),
		zap.Int("llm_calls", res.Stats.LLMCalls),
		zap.Int("search_calls", res.Stats.SearchCalls),
		zap.Error(err))
}

func (s *Service) finish(ctx context.Context, log *zap.Logger, res *model.Result) {
	metrics.FactChecks.WithLabelValues(string(res.Status)).Inc()
	metrics.FactCheckDuration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	metrics.ResearchNodes.Observe(float64(res.Stats.Nodes))

	log.Info("fact-check finished",
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
		zap.Int("documents", res.Stats.Documents),
		zap.Int("learnings", res.Stats.Learnings))

	if s.recorder == nil {
		return
	}
	// the request context may already be done; the record should still land
	if err := s.recorder.Save(context.WithoutCancel(ctx), *res); err != nil {
		log.Warn("failed to save result", zap.Error(err))
	}
}

func fillStats(stats *model.ResearchStats, meter *Meter, rec *Record) {
	stats.Nodes = meter.Nodes()
	stats.LLMCalls = meter.LLMCalls()
	stats.SearchCalls = meter.SearchCalls()
	stats.Queries = len(rec.Queries())
	stats.Documents = len(rec.Documents())
	stats.Learnings = len(rec.Learnings())
}
