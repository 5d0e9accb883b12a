package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/search"
	"go.uber.org/zap"
)

// Messages returned to the model by the evaluate tool
const (
	msgRelevant   = "Search results are relevant. End research for this query."
	msgIrrelevant = "Search results are irrelevant. Please search again with a more specific query."
	msgNothing    = "There are no pending search results to evaluate. Call searchWeb first."
	msgNoResults  = "No results found. Try a different query."
	msgEmptyQuery = "The query must not be empty."

	toolSearchWeb = "searchWeb"
	toolEvaluate  = "evaluate"

	excerptChars = 300
)

// Collector runs the bounded search-then-evaluate tool loop for one query
type Collector struct {
	provider llm.Provider
	source   search.Source
	filter   *RelevanceFilter
	prompts  Prompts
	maxSteps int
	logger   *zap.Logger
}

// NewCollector creates an evidence collector. maxSteps bounds the number of
// model turns per query.
func NewCollector(provider llm.Provider, source search.Source, filter *RelevanceFilter, prompts Prompts, maxSteps int, logger *zap.Logger) *Collector {
	if maxSteps <= 0 {
		maxSteps = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		provider: provider,
		source:   source,
		filter:   filter,
		prompts:  prompts,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

// branch is the per-query state of one collection
type branch struct {
	mu       sync.Mutex
	pending  []model.Document
	accepted []model.Document
}

func (b *branch) push(docs []model.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, docs...)
}

// pop removes the most recently pushed document
func (b *branch) pop() (model.Document, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return model.Document{}, false
	}
	last := len(b.pending) - 1
	doc := b.pending[last]
	b.pending = b.pending[:last]
	return doc, true
}

func (b *branch) accept(doc model.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accepted = append(b.accepted, doc)
}

func (b *branch) results() []model.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Document(nil), b.accepted...)
}

// Collect searches for query and returns the documents this branch accepted.
// Accepted documents are already committed to rec; none of them was in rec
// before the call. On error the documents accepted so far are still returned.
func (c *Collector) Collect(ctx context.Context, query string, rec *Record) ([]model.Document, error) {
	b := &branch{}

	_, err := c.provider.RunTools(ctx, llm.ToolRequest{
		System:   c.prompts.system(collectorRole),
		Prompt:   collectorPrompt(query),
		MaxSteps: c.maxSteps,
		Tools: []llm.Tool{
			{
				Name:        toolSearchWeb,
				Description: "Search the web for information about a given query",
				Parameters:  searchWebSchema(),
				Handler:     c.searchWeb(b),
			},
			{
				Name:        toolEvaluate,
				Description: "Evaluate the most recent search result",
				Parameters:  evaluateSchema(),
				Handler:     c.evaluate(b, query, rec),
			},
		},
	})
	if err != nil {
		return b.results(), fmt.Errorf("collect %q: %w", query, err)
	}
	return b.results(), nil
}

type searchArgs struct {
	Query string `json:"query"`
}

type searchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt,omitempty"`
}

func (c *Collector) searchWeb(b *branch) llm.ToolHandler {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var args searchArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return fmt.Sprintf("Invalid arguments: %v", err), nil
		}
		q := strings.TrimSpace(args.Query)
		if q == "" {
			return msgEmptyQuery, nil
		}

		docs, err := c.source.Search(ctx, q)
		if err != nil {
			if stopsTree(ctx, err) {
				return "", err
			}
			c.logger.Warn("search failed", zap.String("query", q), zap.Error(err))
			return fmt.Sprintf("Search failed: %v", err), nil
		}
		if len(docs) == 0 {
			return msgNoResults, nil
		}
		b.push(docs)

		hits := make([]searchHit, len(docs))
		for i, d := range docs {
			hits[i] = searchHit{Title: d.Title, URL: d.URL, Excerpt: truncate(d.Content, excerptChars)}
		}
		out, err := json.Marshal(hits)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func (c *Collector) evaluate(b *branch, query string, rec *Record) llm.ToolHandler {
	return func(ctx context.Context, _ json.RawMessage) (string, error) {
		doc, ok := b.pop()
		if !ok {
			return msgNothing, nil
		}

		rel, err := c.filter.Judge(ctx, doc, query, rec.AcceptedURLs())
		if err != nil {
			if !errors.Is(err, ErrContractViolation) {
				return "", err
			}
			c.logger.Debug("relevance answer rejected", zap.String("url", doc.URL), zap.Error(err))
			rel = Irrelevant
		}
		if rel != Relevant {
			return msgIrrelevant, nil
		}

		// the atomic insert settles races between concurrent branches
		if !rec.AddDocument(doc) {
			metrics.DocumentsRejected.WithLabelValues("duplicate").Inc()
			return msgIrrelevant, nil
		}
		b.accept(doc)
		metrics.DocumentsAccepted.Inc()
		c.logger.Debug("document accepted", zap.String("query", query), zap.String("url", doc.URL))
		return msgRelevant, nil
	}
}
