package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// Exa searches with the Exa API and returns page text crawled by Exa
type Exa struct {
	client
	apiKey     string
	baseURL    string
	numResults int
	liveCrawl  bool
}

type exaRequest struct {
	Query      string      `json:"query"`
	NumResults int         `json:"numResults"`
	Type       string      `json:"type"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text      bool   `json:"text"`
	LiveCrawl string `json:"livecrawl,omitempty"`
}

type exaResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Text  string `json:"text"`
	} `json:"results"`
}

// NewExa constructs an Exa source
func NewExa(cfg Config) (*Exa, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("exa: %w (set EXA_API_KEY)", ErrMissingAPIKey)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.exa.ai"
	}
	return &Exa{
		client:     client{name: "exa", http: cfg.httpClient(), limiter: cfg.Limiter},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		numResults: numResults(cfg.NumResults),
		liveCrawl:  cfg.LiveCrawl,
	}, nil
}

// Name returns the source name
func (e *Exa) Name() string { return "exa" }

// Search runs a search-and-contents query
func (e *Exa) Search(ctx context.Context, query string) ([]model.Document, error) {
	req := exaRequest{
		Query:      query,
		NumResults: e.numResults,
		Type:       "auto",
		Contents:   exaContents{Text: true},
	}
	if e.liveCrawl {
		req.Contents.LiveCrawl = "always"
	}

	var resp exaResponse
	if err := e.postJSON(ctx, e.baseURL+"/search", map[string]string{"x-api-key": e.apiKey}, req, &resp); err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		docs = append(docs, model.Document{Title: r.Title, URL: r.URL, Content: r.Text})
	}
	return docs, nil
}
