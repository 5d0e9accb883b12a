package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	// ErrMissingAPIKey is returned when a hosted provider is selected without a key
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidOutput means the model answered but the answer is unusable:
	// a refusal, an empty or blocked response, or text that is not the requested JSON.
	ErrInvalidOutput = errors.New("invalid model output")
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GenerateObject produces a JSON value conforming to req.Schema
	GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error)

	// RunTools drives a bounded tool-calling loop. Each step is one model call;
	// the loop ends when the model answers without tool calls or MaxSteps is reached.
	RunTools(ctx context.Context, req ToolRequest) (*ToolResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ObjectRequest asks for structured output
type ObjectRequest struct {
	System string
	Prompt string

	// SchemaName identifies the schema to providers that require a name
	SchemaName        string
	SchemaDescription string
	Schema            jsonschema.Definition

	MaxTokens int
}

// ObjectResponse carries the raw JSON object returned by the model
type ObjectResponse struct {
	Raw        json.RawMessage
	Model      string
	TokensUsed int
}

// Decode unmarshals the object into v
func (r *ObjectResponse) Decode(v any) error {
	if r == nil || len(r.Raw) == 0 {
		return fmt.Errorf("%w: empty object response", ErrInvalidOutput)
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("%w: decode object: %v", ErrInvalidOutput, err)
	}
	return nil
}

// ToolHandler executes one tool call. A returned error aborts the loop.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a function the model may call
type Tool struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
	Handler     ToolHandler
}

// ToolRequest describes one tool-calling session
type ToolRequest struct {
	System    string
	Prompt    string
	Tools     []Tool
	MaxSteps  int
	MaxTokens int
}

// ToolCall records one executed call
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
	Result    string
}

// ToolResponse summarizes a finished tool session
type ToolResponse struct {
	Text       string
	Steps      int
	Calls      []ToolCall
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "gemini", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens   int
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts model configuration to llm.Config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:    llmCfg.Provider,
		Model:       llmCfg.Model,
		APIKey:      llmCfg.APIKey,
		BaseURL:     llmCfg.BaseURL,
		Timeout:     llmCfg.Timeout,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}
}

// StatusError is a non-2xx answer from a provider API
type StatusError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s API error (%d): %s - %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatusCode exposes the status for error classification
func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

func (c Config) maxTokens(override int) int {
	switch {
	case override > 0:
		return override
	case c.MaxTokens > 0:
		return c.MaxTokens
	default:
		return 1024
	}
}

func maxSteps(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// schemaMap renders a schema definition as a plain JSON object for raw HTTP providers
func schemaMap(def jsonschema.Definition) (map[string]any, error) {
	raw, err := json.Marshal(&def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return out, nil
}

// extractJSON pulls the first JSON object out of text that may be wrapped in a code fence
func extractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON value in model output", ErrInvalidOutput)
	}
	s = s[start:]
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: model output is not valid JSON", ErrInvalidOutput)
	}
	return json.RawMessage(s), nil
}

func rawArgs(s string) json.RawMessage {
	if strings.TrimSpace(s) == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// runHandler executes one tool call; unknown tools are reported to the model, not to the caller
func runHandler(ctx context.Context, tools []Tool, name string, args json.RawMessage) (string, error) {
	tool, ok := findTool(tools, name)
	if !ok || tool.Handler == nil {
		return fmt.Sprintf("unknown tool %q", name), nil
	}
	result, err := tool.Handler(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return result, nil
}
