package research

import (
	"context"
	"fmt"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// RelevanceFilter decides whether a candidate document is both on topic and new
type RelevanceFilter struct {
	provider llm.Provider
	prompts  Prompts
	maxChars int
}

// NewRelevanceFilter creates a relevance filter; maxChars caps the document
// text sent to the model.
func NewRelevanceFilter(provider llm.Provider, prompts Prompts, maxChars int) *RelevanceFilter {
	return &RelevanceFilter{provider: provider, prompts: prompts, maxChars: maxChars}
}

// Judge classifies doc against query. A URL already in accepted is
// irrelevant without consulting the model, whatever its content.
func (f *RelevanceFilter) Judge(ctx context.Context, doc model.Document, query string, accepted []string) (Relevance, error) {
	key := urlKey(doc.URL)
	for _, u := range accepted {
		if urlKey(u) == key {
			metrics.DocumentsRejected.WithLabelValues("duplicate").Inc()
			return Irrelevant, nil
		}
	}

	resp, err := f.provider.GenerateObject(ctx, llm.ObjectRequest{
		System:     f.prompts.system(relevanceRole),
		Prompt:     relevancePrompt(doc, query, f.maxChars),
		SchemaName: schemaRelevant,
		Schema:     relevanceSchema(),
	})
	if err != nil {
		return "", generationError("relevance filter", err)
	}

	var verdict RelevanceVerdict
	if err := resp.Decode(&verdict); err != nil {
		return "", generationError("relevance filter", err)
	}
	rel, err := verdict.Relevance()
	if err != nil {
		return "", fmt.Errorf("relevance filter: %w", err)
	}
	if rel == Irrelevant {
		metrics.DocumentsRejected.WithLabelValues("off_topic").Inc()
	}
	return rel, nil
}
