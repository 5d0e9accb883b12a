package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

var newRetryBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 15 * time.Second
	return b
}

// RetryingProvider retries GenerateObject on 5xx and network
// failures. 429 is never retried here: it is a quota signal for the caller.
// Tool sessions run handlers with side effects and always pass through.
type RetryingProvider struct {
	Provider
	maxRetries int
	logger     *zap.Logger
}

// NewRetryingProvider wraps p; maxRetries <= 0 returns p unchanged
func NewRetryingProvider(p Provider, maxRetries int, logger *zap.Logger) Provider {
	if maxRetries <= 0 || p == nil {
		return p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingProvider{Provider: p, maxRetries: maxRetries, logger: logger}
}

// GenerateObject retries transient failures a bounded number of times
func (r *RetryingProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	return retry(ctx, r, "generate_object", func() (*ObjectResponse, error) {
		return r.Provider.GenerateObject(ctx, req)
	})
}

func retry[T any](ctx context.Context, r *RetryingProvider, op string, call func() (T, error)) (T, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), uint64(r.maxRetries)), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		resp, err := call()
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) {
			return resp, backoff.Permanent(err)
		}
		r.logger.Debug("retrying model call",
			zap.String("provider", r.Name()),
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return resp, err
	}, b)
}

// IsTransient reports whether err is a server-side or connection failure
// worth another attempt. Rate limits and client errors are not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
