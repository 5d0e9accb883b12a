package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/fetch"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"go.uber.org/zap"
)

// PageFetcher retrieves full page text for snippet-only sources
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// Brave uses the Brave Search API. Brave returns snippets only, so each hit
// is expanded to full text through the page fetcher when one is configured.
type Brave struct {
	client
	apiKey     string
	baseURL    string
	numResults int
	fetcher    PageFetcher
	logger     *zap.Logger
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave constructs a Brave source
func NewBrave(cfg Config) (*Brave, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("brave: %w (set BRAVE_API_KEY)", ErrMissingAPIKey)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.search.brave.com"
	}
	return &Brave{
		client:     client{name: "brave", http: cfg.httpClient(), limiter: cfg.Limiter},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		numResults: numResults(cfg.NumResults),
		fetcher:    cfg.Fetcher,
		logger:     cfg.logger(),
	}, nil
}

// Name returns the source name
func (b *Brave) Name() string { return "brave" }

// Search executes a Brave query
func (b *Brave) Search(ctx context.Context, query string) ([]model.Document, error) {
	endpoint := fmt.Sprintf("%s/res/v1/web/search?q=%s&count=%s",
		b.baseURL, url.QueryEscape(query), strconv.Itoa(b.numResults))

	var resp braveResponse
	err := b.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.apiKey)
		return req, nil
	}, &resp)
	if err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		if r.URL == "" {
			continue
		}
		doc := model.Document{Title: r.Title, URL: r.URL, Content: r.Description}
		if b.fetcher != nil {
			page, err := b.fetcher.Fetch(ctx, r.URL)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				b.logger.Debug("keeping snippet, page fetch failed", zap.String("url", r.URL), zap.Error(err))
			case strings.TrimSpace(page.Text) != "":
				doc.Content = page.Text
			}
		}
		docs = append(docs, doc)
		if len(docs) >= b.numResults {
			break
		}
	}
	return docs, nil
}
