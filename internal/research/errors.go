package research

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/search"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

var (
	// ErrConfiguration means a required credential or setting is missing
	ErrConfiguration = errors.New("configuration error")

	// ErrQuota means a provider reported quota or rate-limit exhaustion
	ErrQuota = errors.New("quota exceeded")

	// ErrContractViolation means a model returned output outside its schema
	ErrContractViolation = errors.New("generation contract violation")

	// ErrBudgetExhausted stops expansion once a per-request cap is reached
	ErrBudgetExhausted = errors.New("research budget exhausted")

	// ErrNothingToEvaluate is reported to the model when the pending stack is empty
	ErrNothingToEvaluate = errors.New("nothing to evaluate")
)

// ErrorKind is the coarse classification used by the fact-check boundary
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindConfiguration
	KindQuota
	KindContract
	KindBudget
	KindCanceled
	KindNetwork
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindQuota:
		return "quota"
	case KindContract:
		return "contract"
	case KindBudget:
		return "budget"
	case KindCanceled:
		return "canceled"
	case KindNetwork:
		return "network"
	default:
		return "other"
	}
}

var quotaPhrases = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"resource exhausted",
	"resource_exhausted",
	"resource has been exhausted",
	"too many requests",
}

type statusCoder interface {
	HTTPStatusCode() int
}

// IsQuotaError reports whether err means a provider is out of quota or rate limited
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuota) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusTooManyRequests {
		return true
	}
	var coded statusCoder
	if errors.As(err, &coded) && coded.HTTPStatusCode() == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range quotaPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// IsNetworkError reports transport-level failures
func IsNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable")
}

// IsConfigurationError reports missing credentials or settings
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, llm.ErrMissingAPIKey) ||
		errors.Is(err, search.ErrMissingAPIKey)
}

// Classify maps err onto an ErrorKind. Quota is checked before network so a
// 429 wrapped in a transport error still triggers the fallback.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case IsConfigurationError(err):
		return KindConfiguration
	case IsQuotaError(err):
		return KindQuota
	case errors.Is(err, ErrContractViolation), errors.Is(err, llm.ErrInvalidOutput):
		return KindContract
	case errors.Is(err, ErrBudgetExhausted):
		return KindBudget
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case IsNetworkError(err):
		return KindNetwork
	default:
		return KindOther
	}
}

// stopsTree reports errors that must abort the whole research tree. A
// context error counts only when ctx itself is done: a per-call timeout
// inside a provider abandons just the failing branch.
func stopsTree(ctx context.Context, err error) bool {
	switch Classify(err) {
	case KindConfiguration, KindQuota, KindBudget:
		return true
	case KindCanceled:
		return ctx.Err() != nil
	}
	return false
}

// generationError wraps a failed model call made by component. An unusable
// answer is a contract violation and abandons only the calling branch.
func generationError(component string, err error) error {
	if errors.Is(err, llm.ErrInvalidOutput) {
		return fmt.Errorf("%s: %w: %w", component, ErrContractViolation, err)
	}
	return fmt.Errorf("%s: %w", component, err)
}
