// Package fetch retrieves evidence pages and reduces them to readable text.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/cache"
	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/util"
	"github.com/JoseCortezz25/fact-checking-app/internal/worker"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrDisallowed is returned when robots.txt forbids the fetch
var ErrDisallowed = errors.New("disallowed by robots.txt")

// maxFetchRetries bounds retries of transient failures (3 attempts total)
const maxFetchRetries = 2

// newRetryBackOff is swapped in tests to avoid real sleeps
var newRetryBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

// StatusError is a non-2xx page response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Page is a fetched and parsed web page
type Page struct {
	URL         string `json:"url"`
	FinalURL    string `json:"final_url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Text        string `json:"text"`
}

// Document converts the page into research evidence
func (p *Page) Document() model.Document {
	title := p.Title
	if title == "" {
		title = subjectFromURL(p.FinalURL)
	}
	return model.Document{Title: title, URL: p.URL, Content: p.Text}
}

// Fetcher fetches pages with robots.txt compliance, pacing and caching
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLimiter paces requests per host
func WithLimiter(l *worker.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithCache stores parsed pages
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a new Fetcher from HTTP configuration
func NewFetcher(cfg model.HTTPConfig, opts ...Option) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	client := util.NewHTTPClient(timeout, util.ProxySettings{
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	})
	if cfg.InsecureTLS {
		if t, ok := client.Transport.(*http.Transport); ok {
			t.TLSClientConfig = insecureTLSConfig()
		}
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return fmt.Errorf("stopped after 5 redirects")
		}
		return nil
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		logger:     zap.NewNop(),
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, client)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and parses the page at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q", rawURL)
	}
	rawURL = parsed.String()

	key := cache.Key("page", rawURL)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			var page Page
			if err := json.Unmarshal(data, &page); err == nil {
				metrics.PageFetches.WithLabelValues("cached").Inc()
				return &page, nil
			}
		}
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			metrics.PageFetches.WithLabelValues("disallowed").Inc()
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if delay > 0 && f.limiter != nil {
			f.limiter.SetKeyRate(parsed.Host, 1/delay.Seconds(), 1)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	page, err := f.fetchWithRetry(ctx, rawURL)
	metrics.PageFetches.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if data, err := json.Marshal(page); err == nil {
			_ = f.cache.Set(key, data, f.cacheTTL)
		}
	}
	return page, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string) (*Page, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), maxFetchRetries), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (*Page, error) {
		attempt++
		page, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		if !isRetryableFetchError(err) {
			return nil, backoff.Permanent(err)
		}
		f.logger.Debug("retrying page fetch", zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}, b)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if isHTML(page.ContentType, body) {
		page.Title, page.Text, err = ExtractText(string(body))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
	} else {
		page.Text = strings.TrimSpace(string(body))
	}
	return page, nil
}

// isRetryableFetchError reports whether a failed fetch is worth another attempt:
// 429, 5xx and connection-level failures are; everything else is not.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isHTML(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	if ct == "" {
		return strings.Contains(strings.ToLower(http.DetectContentType(body)), "html")
	}
	return false
}

// subjectFromURL derives a readable title from the last path segment
func subjectFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	last = strings.NewReplacer("_", " ", "-", " ").Replace(last)
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	return last
}
