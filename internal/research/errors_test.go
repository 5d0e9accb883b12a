package research

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/search"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", fmt.Errorf("wrapped: %w", ErrQuota), true},
		{"openai 429", fmt.Errorf("openai generate: %w", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}), true},
		{"openai 500", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError, Message: "boom"}, false},
		{"provider status", &llm.StatusError{Provider: "anthropic", StatusCode: http.StatusTooManyRequests}, true},
		{"search status", &search.StatusError{Source: "exa", StatusCode: http.StatusTooManyRequests}, true},
		{"gemini wording", errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)."), true},
		{"rate limit wording", errors.New("Rate limit reached for requests"), true},
		{"plain failure", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQuotaError(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
	assert.Equal(t, KindConfiguration, Classify(fmt.Errorf("openai: %w", llm.ErrMissingAPIKey)))
	assert.Equal(t, KindConfiguration, Classify(fmt.Errorf("exa: %w", search.ErrMissingAPIKey)))
	assert.Equal(t, KindQuota, Classify(errQuotaMessage))
	assert.Equal(t, KindContract, Classify(fmt.Errorf("synthesizer: %w", ErrContractViolation)))
	assert.Equal(t, KindContract, Classify(fmt.Errorf("openai refused: %w", llm.ErrInvalidOutput)))
	assert.Equal(t, KindBudget, Classify(fmt.Errorf("%w: nodes", ErrBudgetExhausted)))
	assert.Equal(t, KindCanceled, Classify(context.Canceled))
	assert.Equal(t, KindCanceled, Classify(context.DeadlineExceeded))
	assert.Equal(t, KindNetwork, Classify(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}))
	assert.Equal(t, KindOther, Classify(errors.New("something else")))
}

func TestStopsTree(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancel(context.Background())
	cancel()
	callTimeout := fmt.Errorf("learning extractor: %w", context.DeadlineExceeded)

	assert.False(t, stopsTree(live, callTimeout), "a provider timeout under a live request abandons one branch")
	assert.True(t, stopsTree(done, callTimeout))
	assert.True(t, stopsTree(done, context.Canceled))
	assert.True(t, stopsTree(live, errQuotaMessage))
	assert.True(t, stopsTree(live, fmt.Errorf("%w: nodes", ErrBudgetExhausted)))
	assert.True(t, stopsTree(live, fmt.Errorf("openai: %w", llm.ErrMissingAPIKey)))
	assert.False(t, stopsTree(live, fmt.Errorf("x: %w", ErrContractViolation)))
	assert.False(t, stopsTree(live, errors.New("boom")))
}

func TestGenerationError(t *testing.T) {
	err := generationError("relevance filter", fmt.Errorf("%w: no JSON value in model output", llm.ErrInvalidOutput))
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.ErrorIs(t, err, llm.ErrInvalidOutput)
	assert.Contains(t, err.Error(), "relevance filter")

	err = generationError("query generator", errQuotaMessage)
	assert.NotErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, KindQuota, Classify(err))
}
