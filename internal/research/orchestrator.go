package research

import (
	"context"
	"errors"

	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator expands the research tree: queries, evidence, learnings, and
// recursion on follow-up questions with shrinking breadth.
type Orchestrator struct {
	queries     *QueryGenerator
	collector   *Collector
	learnings   *LearningExtractor
	meter       *Meter
	parallelism int
	logger      *zap.Logger
}

// Components are the collaborators of an Orchestrator
type Components struct {
	Queries   *QueryGenerator
	Collector *Collector
	Learnings *LearningExtractor

	// Meter enforces the node budget; nil means unlimited
	Meter *Meter
}

// NewOrchestrator creates an orchestrator. parallelism > 1 researches sibling
// queries concurrently.
func NewOrchestrator(c Components, parallelism int, logger *zap.Logger) *Orchestrator {
	if c.Meter == nil {
		c.Meter = NewMeter(Budget{})
	}
	if parallelism < 1 {
		parallelism = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		queries:     c.Queries,
		collector:   c.Collector,
		learnings:   c.Learnings,
		meter:       c.Meter,
		parallelism: parallelism,
		logger:      logger,
	}
}

// ChildBreadth is the breadth handed to the next level: ceil(b/2), never below 1
func ChildBreadth(breadth int) int {
	if breadth <= 1 {
		return 1
	}
	return (breadth + 1) / 2
}

// Research grows rec by researching prompt to the given depth. Errors that
// must end the whole request (quota, configuration, cancellation, budget)
// are returned; anything else abandons only the failing branch.
func (o *Orchestrator) Research(ctx context.Context, rec *Record, prompt string, depth, breadth int) error {
	if depth <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.meter.EnterNode(); err != nil {
		return err
	}

	log := o.logger.With(zap.Int("depth", depth), zap.Int("breadth", breadth))

	queries, err := o.queries.Generate(ctx, prompt, breadth)
	if err != nil {
		if errors.Is(err, ErrContractViolation) || (Classify(err) == KindCanceled && !stopsTree(ctx, err)) {
			log.Warn("abandoning branch", zap.Error(err))
			metrics.BranchesAbandoned.WithLabelValues("query_generator").Inc()
			return nil
		}
		return err
	}
	rec.AddQueries(queries...)
	log.Debug("queries generated", zap.Strings("queries", queries))

	child := ChildBreadth(breadth)

	if o.parallelism == 1 || len(queries) == 1 {
		for _, q := range queries {
			if err := o.researchQuery(ctx, rec, q, depth, child); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for _, q := range queries {
		g.Go(func() error {
			return o.researchQuery(gctx, rec, q, depth, child)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) researchQuery(ctx context.Context, rec *Record, query string, depth, childBreadth int) error {
	log := o.logger.With(zap.String("query", query), zap.Int("depth", depth))

	docs, err := o.collector.Collect(ctx, query, rec)
	if err != nil {
		if stopsTree(ctx, err) {
			return err
		}
		log.Warn("collector failed, skipping query", zap.Error(err))
		metrics.BranchesAbandoned.WithLabelValues("collector").Inc()
	}

	for _, doc := range docs {
		learning, err := o.learnings.Extract(ctx, query, doc)
		if err != nil {
			if stopsTree(ctx, err) {
				return err
			}
			log.Warn("abandoning document", zap.String("url", doc.URL), zap.Error(err))
			metrics.BranchesAbandoned.WithLabelValues("learning_extractor").Inc()
			continue
		}
		rec.AddLearning(learning)
		rec.CompleteQuery(query)

		next := followUpPrompt(rec.RootQuery(), rec.Completed(), learning.FollowUpQuestions)
		if err := o.Research(ctx, rec, next, depth-1, childBreadth); err != nil {
			if stopsTree(ctx, err) {
				return err
			}
			log.Warn("follow-up research failed", zap.Error(err))
			metrics.BranchesAbandoned.WithLabelValues("orchestrator").Inc()
		}
	}
	return nil
}
