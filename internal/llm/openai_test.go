package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-2024-08-06",
		Timeout: 5,
	})
	require.NoError(t, err)
	return provider
}

func chatResponse(msg openai.ChatCompletionMessage) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Model:   "gpt-4o-2024-08-06",
		Choices: []openai.ChatCompletionChoice{{Index: 0, Message: msg, FinishReason: "stop"}},
		Usage:   openai.Usage{TotalTokens: 42},
	}
}

func TestOpenAIProvider_GenerateObject(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		format, _ := body["response_format"].(map[string]any)
		if format["type"] != "json_schema" {
			t.Errorf("Expected json_schema response format, got %v", format["type"])
		}

		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: `{"queries":["moon landing 1969 evidence"]}`,
		}))
	})

	resp, err := provider.GenerateObject(context.Background(), ObjectRequest{
		Prompt:     "queries please",
		SchemaName: "queries",
		Schema: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{"queries": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}}},
			Required:   []string{"queries"},
		},
	})
	require.NoError(t, err)

	var out struct {
		Queries []string `json:"queries"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, []string{"moon landing 1969 evidence"}, out.Queries)
	assert.Equal(t, 42, resp.TokensUsed)
}

func TestOpenAIProvider_RunTools(t *testing.T) {
	var calls atomic.Int32
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if n == 1 {
			if len(req.Tools) != 1 || req.Tools[0].Function.Name != "searchWeb" {
				t.Errorf("Expected searchWeb tool, got %+v", req.Tools)
			}
			_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "searchWeb", Arguments: `{"query":"eiffel tower height"}`},
				}},
			}))
			return
		}

		last := req.Messages[len(req.Messages)-1]
		if last.Role != openai.ChatMessageRoleTool || last.ToolCallID != "call_1" || last.Content != "3 results" {
			t.Errorf("Expected tool result message, got %+v", last)
		}
		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: "done",
		}))
	})

	var gotQuery string
	resp, err := provider.RunTools(context.Background(), ToolRequest{
		Prompt:   "research",
		MaxSteps: 5,
		Tools: []Tool{{
			Name:       "searchWeb",
			Parameters: jsonschema.Definition{Type: jsonschema.Object, Properties: map[string]jsonschema.Definition{"query": {Type: jsonschema.String}}},
			Handler: func(_ context.Context, args json.RawMessage) (string, error) {
				var in struct {
					Query string `json:"query"`
				}
				_ = json.Unmarshal(args, &in)
				gotQuery = in.Query
				return "3 results", nil
			},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "eiffel tower height", gotQuery)
	assert.Equal(t, 2, resp.Steps)
	assert.Equal(t, "done", resp.Text)
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, "searchWeb", resp.Calls[0].Name)
}

func TestOpenAIProvider_RunTools_StopsAtMaxSteps(t *testing.T) {
	var calls atomic.Int32
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "evaluate", Arguments: `{}`},
			}},
		}))
	})

	resp, err := provider.RunTools(context.Background(), ToolRequest{
		Prompt:   "loop forever",
		MaxSteps: 3,
		Tools: []Tool{{
			Name:       "evaluate",
			Parameters: jsonschema.Definition{Type: jsonschema.Object},
			Handler:    func(context.Context, json.RawMessage) (string, error) { return "ok", nil },
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Steps)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIProvider_HandlerErrorAborts(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "searchWeb", Arguments: `{"query":"x"}`},
			}},
		}))
	})

	sentinel := errors.New("quota exceeded")
	_, err := provider.RunTools(context.Background(), ToolRequest{
		Prompt:   "x",
		MaxSteps: 5,
		Tools: []Tool{{
			Name:    "searchWeb",
			Handler: func(context.Context, json.RawMessage) (string, error) { return "", sentinel },
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestOpenAIProvider_RateLimitError(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	})

	_, err := provider.GenerateObject(context.Background(), ObjectRequest{Prompt: "hi"})
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
}

func TestOpenAIProvider_UnusableAnswers(t *testing.T) {
	tests := []struct {
		name string
		msg  openai.ChatCompletionMessage
	}{
		{"prose", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Sorry, I cannot help with that."}},
		{"refusal", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Refusal: "I can't assist with that request."}},
		{"empty", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(chatResponse(tt.msg))
			})

			_, err := provider.GenerateObject(context.Background(), ObjectRequest{Prompt: "judge", SchemaName: "relevance"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOutput)
			assert.False(t, IsTransient(err))
		})
	}
}

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
