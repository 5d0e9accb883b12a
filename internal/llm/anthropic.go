package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/util"
)

// respondTool is the single forced tool used to obtain structured output
const respondTool = "respond"

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  *anthropicChoice   `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock covers the text, tool_use and tool_result content block shapes
type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Role       string           `json:"role"`
	Content    []anthropicBlock `json:"content"`
	Model      string           `json:"model"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w (set ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &AnthropicProvider{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, util.ProxySettings{
			HTTPProxy:  config.HTTPProxy,
			HTTPSProxy: config.HTTPSProxy,
			NoProxy:    config.NoProxy,
		}),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.makeRequest(ctx, anthropicRequest{
		Model:     p.config.Model,
		MaxTokens: 10,
		Messages:  []anthropicMessage{userText("Hi")},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Anthropic API check failed: %v\n", err)
		return false
	}
	return true
}

// GenerateObject forces a single respond tool whose input schema is the requested schema
func (p *AnthropicProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	schema, err := schemaMap(req.Schema)
	if err != nil {
		return nil, err
	}

	resp, err := p.makeRequest(ctx, anthropicRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.maxTokens(req.MaxTokens),
		System:      req.System,
		Messages:    []anthropicMessage{userText(req.Prompt)},
		Temperature: p.config.Temperature,
		Tools: []anthropicTool{{
			Name:        respondTool,
			Description: req.SchemaDescription,
			InputSchema: schema,
		}},
		ToolChoice: &anthropicChoice{Type: "tool", Name: respondTool},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic generate object: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == respondTool {
			return &ObjectResponse{
				Raw:        block.Input,
				Model:      resp.Model,
				TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: anthropic response has no %s tool call", ErrInvalidOutput, respondTool)
}

// RunTools drives tool use until the model ends its turn
func (p *AnthropicProvider) RunTools(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	tools := make([]anthropicTool, 0, len(req.Tools))
	for _, t := range req.Tools {
		schema, err := schemaMap(t.Parameters)
		if err != nil {
			return nil, err
		}
		tools = append(tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: schema})
	}

	messages := []anthropicMessage{userText(req.Prompt)}
	out := &ToolResponse{}

	for step := 0; step < maxSteps(req.MaxSteps); step++ {
		resp, err := p.makeRequest(ctx, anthropicRequest{
			Model:       p.config.Model,
			MaxTokens:   p.config.maxTokens(req.MaxTokens),
			System:      req.System,
			Messages:    messages,
			Temperature: p.config.Temperature,
			Tools:       tools,
		})
		if err != nil {
			return out, fmt.Errorf("anthropic tool step %d: %w", step+1, err)
		}
		out.Steps++
		out.TokensUsed += resp.Usage.InputTokens + resp.Usage.OutputTokens

		var results []anthropicBlock
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			args := block.Input
			if len(args) == 0 {
				args = rawArgs("")
			}
			result, err := runHandler(ctx, req.Tools, block.Name, args)
			if err != nil {
				return out, err
			}
			out.Calls = append(out.Calls, ToolCall{Name: block.Name, Arguments: args, Result: result})
			results = append(results, anthropicBlock{Type: "tool_result", ToolUseID: block.ID, Content: result})
		}

		if len(results) == 0 {
			out.Text = resp.text()
			return out, nil
		}
		messages = append(messages,
			anthropicMessage{Role: "assistant", Content: resp.Content},
			anthropicMessage{Role: "user", Content: results},
		)
	}

	return out, nil
}

// makeRequest makes an HTTP request to the Anthropic API
func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Provider: "anthropic", StatusCode: httpResp.StatusCode, Message: string(respBody)}
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			statusErr.Type = apiErr.Error.Type
			statusErr.Message = apiErr.Error.Message
		}
		return nil, statusErr
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

func (r *anthropicResponse) text() string {
	var parts []string
	for _, block := range r.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func userText(text string) anthropicMessage {
	return anthropicMessage{Role: "user", Content: []anthropicBlock{{Type: "text", Text: text}}}
}
