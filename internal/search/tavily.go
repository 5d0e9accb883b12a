package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// Tavily calls the Tavily search API
type Tavily struct {
	client
	apiKey     string
	baseURL    string
	numResults int
	// depth is Tavily's search_depth (basic or advanced)
	depth string
}

type tavilyResponse struct {
	Results []struct {
		Title      string `json:"title"`
		URL        string `json:"url"`
		Content    string `json:"content"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// NewTavily constructs a Tavily source
func NewTavily(cfg Config) (*Tavily, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("tavily: %w (set TAVILY_API_KEY)", ErrMissingAPIKey)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	depth := "basic"
	if cfg.LiveCrawl {
		depth = "advanced"
	}
	return &Tavily{
		client:     client{name: "tavily", http: cfg.httpClient(), limiter: cfg.Limiter},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		numResults: numResults(cfg.NumResults),
		depth:      depth,
	}, nil
}

// Name returns the source name
func (t *Tavily) Name() string { return "tavily" }

// Search posts a query to Tavily, asking for raw page content
func (t *Tavily) Search(ctx context.Context, query string) ([]model.Document, error) {
	body := map[string]any{
		"query":               query,
		"api_key":             t.apiKey,
		"search_depth":        t.depth,
		"max_results":         t.numResults,
		"include_raw_content": true,
	}

	var resp tavilyResponse
	if err := t.postJSON(ctx, t.baseURL+"/search", nil, body, &resp); err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		content := r.RawContent
		if strings.TrimSpace(content) == "" {
			content = r.Content
		}
		docs = append(docs, model.Document{Title: r.Title, URL: r.URL, Content: content})
	}
	return docs, nil
}
