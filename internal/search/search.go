// Package search provides the web evidence sources used by the collector.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/worker"
	"github.com/cenkalti/backoff/v4"
)

// ErrMissingAPIKey is returned when a source is selected without its key
var ErrMissingAPIKey = errors.New("missing API key")

// Source is a web evidence source. Results are returned in the source's
// ranking order; Content may be empty when the source has no page text.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]model.Document, error)
}

// StatusError is a non-2xx answer from a search API
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s http %d: %s", e.Source, e.StatusCode, body)
}

// HTTPStatusCode exposes the status for error classification
func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

const maxSearchRetries = 2

var newRetryBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	return b
}

// client is the shared HTTP plumbing of the API-backed sources
type client struct {
	name    string
	http    *http.Client
	limiter *worker.Limiter
}

// do sends the request built by build, retrying 429, 5xx and network errors
// a bounded number of times, and decodes a 200 JSON body into out.
func (c *client) do(ctx context.Context, build func() (*http.Request, error), out any) error {
	b := backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), maxSearchRetries), ctx)

	err := backoff.Retry(func() error {
		if c.limiter != nil {
			if err := c.limiter.WaitKey(ctx, c.name); err != nil {
				return backoff.Permanent(err)
			}
		}

		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			var netErr net.Error
			if ctx.Err() == nil && errors.As(err, &netErr) {
				return err
			}
			return backoff.Permanent(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			statusErr := &StatusError{Source: c.name, StatusCode: resp.StatusCode, Body: string(body)}
			if resp.StatusCode == http.StatusTooManyRequests {
				if c.limiter != nil {
					c.limiter.Hold(c.name, retryAfter(resp.Header))
				}
				return statusErr
			}
			if resp.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("%s: decode response: %w", c.name, err))
		}
		return nil
	}, b)

	metrics.SearchCalls.WithLabelValues(c.name, metrics.Status(err)).Inc()
	return err
}

func (c *client) postJSON(ctx context.Context, endpoint string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.name, err)
	}
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, out)
}

// retryAfter reads Retry-After or X-RateLimit-Reset (smallest value), defaulting to one second
func retryAfter(h http.Header) time.Duration {
	for _, name := range []string{"Retry-After", "X-RateLimit-Reset"} {
		raw := h.Get(name)
		if raw == "" {
			continue
		}
		minSecs := -1
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 {
				continue
			}
			if minSecs < 0 || n < minSecs {
				minSecs = n
			}
		}
		if minSecs > 0 {
			return time.Duration(minSecs) * time.Second
		}
	}
	return time.Second
}

func numResults(n int) int {
	if n <= 0 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
