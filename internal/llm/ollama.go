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

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama /api/chat structures
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   map[string]any  `json:"format,omitempty"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model     string        `json:"model"`
	CreatedAt string        `json:"created_at"`
	Message   ollamaMessage `json:"message"`
	Done      bool          `json:"done"`

	// Token counts (only present when done=true)
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, qwen2.5)")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second // local models are slower
	}

	return &OllamaProvider{
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
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks if Ollama is running by listing local models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/tags", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (request creation): %v\n", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (connection to %s): %v\n", p.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (HTTP %d from %s)\n", resp.StatusCode, p.baseURL)
		return false
	}

	return true
}

// GenerateObject passes the schema as the structured output format
func (p *OllamaProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	schema, err := schemaMap(req.Schema)
	if err != nil {
		return nil, err
	}

	resp, err := p.makeRequest(ctx, ollamaRequest{
		Model:    p.config.Model,
		Messages: ollamaMessages(req.System, req.Prompt),
		Format:   schema,
		Options:  p.options(req.MaxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate object: %w", err)
	}

	raw, err := extractJSON(resp.Message.Content)
	if err != nil {
		return nil, err
	}
	return &ObjectResponse{
		Raw:        raw,
		Model:      resp.Model,
		TokensUsed: resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

// RunTools drives tool calling through /api/chat
func (p *OllamaProvider) RunTools(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	tools := make([]ollamaTool, 0, len(req.Tools))
	for _, t := range req.Tools {
		params, err := schemaMap(t.Parameters)
		if err != nil {
			return nil, err
		}
		tools = append(tools, ollamaTool{
			Type:     "function",
			Function: ollamaToolFunction{Name: t.Name, Description: t.Description, Parameters: params},
		})
	}

	messages := ollamaMessages(req.System, req.Prompt)
	out := &ToolResponse{}

	for step := 0; step < maxSteps(req.MaxSteps); step++ {
		resp, err := p.makeRequest(ctx, ollamaRequest{
			Model:    p.config.Model,
			Messages: messages,
			Tools:    tools,
			Options:  p.options(req.MaxTokens),
		})
		if err != nil {
			return out, fmt.Errorf("ollama tool step %d: %w", step+1, err)
		}
		out.Steps++
		out.TokensUsed += resp.PromptEvalCount + resp.EvalCount

		if len(resp.Message.ToolCalls) == 0 {
			out.Text = strings.TrimSpace(resp.Message.Content)
			return out, nil
		}

		messages = append(messages, resp.Message)
		for _, call := range resp.Message.ToolCalls {
			args := call.Function.Arguments
			if len(args) == 0 || string(args) == "null" {
				args = rawArgs("")
			}
			result, err := runHandler(ctx, req.Tools, call.Function.Name, args)
			if err != nil {
				return out, err
			}
			out.Calls = append(out.Calls, ToolCall{Name: call.Function.Name, Arguments: args, Result: result})
			messages = append(messages, ollamaMessage{Role: "tool", Content: result, ToolName: call.Function.Name})
		}
	}

	return out, nil
}

func (p *OllamaProvider) options(maxTokens int) ollamaOptions {
	return ollamaOptions{
		Temperature: p.config.Temperature,
		NumPredict:  p.config.maxTokens(maxTokens),
	}
}

// makeRequest makes an HTTP request to the Ollama API
func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		statusErr := &StatusError{Provider: "ollama", StatusCode: httpResp.StatusCode, Message: string(respBody)}
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			statusErr.Message = apiErr.Error
		}
		return nil, statusErr
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

func ollamaMessages(system, prompt string) []ollamaMessage {
	var messages []ollamaMessage
	if system != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: system})
	}
	return append(messages, ollamaMessage{Role: "user", Content: prompt})
}
