package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicTestProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-sonnet-20241022",
		Timeout: 5,
	})
	require.NoError(t, err)
	return provider
}

func TestAnthropicProvider_GenerateObject_ForcesRespondTool(t *testing.T) {
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ToolChoice == nil || req.ToolChoice.Name != respondTool {
			t.Errorf("Expected forced respond tool, got %+v", req.ToolChoice)
		}
		if len(req.Tools) != 1 || req.Tools[0].InputSchema["type"] != "object" {
			t.Errorf("Expected object input schema, got %+v", req.Tools)
		}

		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Model: "claude-3-5-sonnet-20241022",
			Content: []anthropicBlock{{
				Type:  "tool_use",
				ID:    "toolu_1",
				Name:  respondTool,
				Input: json.RawMessage(`{"relevance":"relevant"}`),
			}},
		})
	})

	resp, err := provider.GenerateObject(context.Background(), ObjectRequest{
		Prompt: "judge",
		Schema: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{"relevance": {Type: jsonschema.String, Enum: []string{"relevant", "irrelevant"}}},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"relevance":"relevant"}`, string(resp.Raw))
}

func TestAnthropicProvider_GenerateObject_NoRespondTool(t *testing.T) {
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Model:   "claude-3-5-sonnet-20241022",
			Content: []anthropicBlock{{Type: "text", Text: "I'd rather not answer that."}},
		})
	})

	_, err := provider.GenerateObject(context.Background(), ObjectRequest{Prompt: "judge"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestAnthropicProvider_RunTools(t *testing.T) {
	var calls atomic.Int32
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(anthropicResponse{
				Content: []anthropicBlock{{Type: "tool_use", ID: "toolu_1", Name: "evaluate", Input: json.RawMessage(`{}`)}},
			})
			return
		}

		if len(req.Messages) != 3 {
			t.Errorf("Expected user, assistant, tool_result messages, got %d", len(req.Messages))
		} else if req.Messages[2].Content[0].ToolUseID != "toolu_1" {
			t.Errorf("Expected tool_result for toolu_1, got %+v", req.Messages[2].Content[0])
		}
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicBlock{{Type: "text", Text: "finished"}},
		})
	})

	resp, err := provider.RunTools(context.Background(), ToolRequest{
		Prompt:   "go",
		MaxSteps: 5,
		Tools: []Tool{{
			Name:       "evaluate",
			Parameters: jsonschema.Definition{Type: jsonschema.Object},
			Handler:    func(context.Context, json.RawMessage) (string, error) { return "relevant", nil },
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Steps)
	assert.Equal(t, "finished", resp.Text)
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, "relevant", resp.Calls[0].Result)
}

func TestAnthropicProvider_StatusError(t *testing.T) {
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Number of requests has exceeded your rate limit"}}`))
	})

	_, err := provider.GenerateObject(context.Background(), ObjectRequest{Prompt: "hi"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "rate_limit_error", statusErr.Type)
	assert.Contains(t, err.Error(), "rate limit")
}
