package research

import (
	"context"
	"fmt"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
)

// QueryGenerator turns a topic into web search queries
type QueryGenerator struct {
	provider llm.Provider
	prompts  Prompts
}

// NewQueryGenerator creates a query generator
func NewQueryGenerator(provider llm.Provider, prompts Prompts) *QueryGenerator {
	return &QueryGenerator{provider: provider, prompts: prompts}
}

// Generate asks for n queries (clamped to 1..5) about topic
func (g *QueryGenerator) Generate(ctx context.Context, topic string, n int) ([]string, error) {
	n = clamp(n, minQueries, maxQueries)

	resp, err := g.provider.GenerateObject(ctx, llm.ObjectRequest{
		System:            g.prompts.system(queryRole),
		Prompt:            queryPrompt(topic, n),
		SchemaName:        schemaQueries,
		SchemaDescription: "Search queries for researching a claim",
		Schema:            queryListSchema(),
	})
	if err != nil {
		return nil, generationError("query generator", err)
	}

	var list QueryList
	if err := resp.Decode(&list); err != nil {
		return nil, generationError("query generator", err)
	}
	queries, err := list.Normalize(n)
	if err != nil {
		return nil, fmt.Errorf("query generator: %w", err)
	}
	return queries, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
