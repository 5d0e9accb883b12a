package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", ErrMissingAPIKey)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(0, util.ProxySettings{
		HTTPProxy:  config.HTTPProxy,
		HTTPSProxy: config.HTTPSProxy,
		NoProxy:    config.NoProxy,
	})

	if config.Model == "" {
		config.Model = openai.GPT4o20240806
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// GenerateObject uses the strict json_schema response format
func (p *OpenAIProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	schema := req.Schema

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    openAIMessages(req.System, req.Prompt),
		MaxTokens:   p.config.maxTokens(req.MaxTokens),
		Temperature: p.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        name,
				Description: req.SchemaDescription,
				Schema:      &schema,
				Strict:      true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai generate object: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from OpenAI", ErrInvalidOutput)
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%w: openai refused: %s", ErrInvalidOutput, msg.Refusal)
	}
	raw, err := extractJSON(msg.Content)
	if err != nil {
		return nil, err
	}

	return &ObjectResponse{
		Raw:        raw,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// RunTools drives function calling until the model stops calling tools
func (p *OpenAIProvider) RunTools(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		params := t.Parameters
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  &params,
			},
		})
	}

	messages := openAIMessages(req.System, req.Prompt)
	out := &ToolResponse{}

	for step := 0; step < maxSteps(req.MaxSteps); step++ {
		resp, err := p.chatStep(ctx, openai.ChatCompletionRequest{
			Model:       p.config.Model,
			Messages:    messages,
			Tools:       tools,
			MaxTokens:   p.config.maxTokens(req.MaxTokens),
			Temperature: p.config.Temperature,
		})
		if err != nil {
			return out, fmt.Errorf("openai tool step %d: %w", step+1, err)
		}
		out.Steps++
		out.TokensUsed += resp.Usage.TotalTokens
		if len(resp.Choices) == 0 {
			return out, fmt.Errorf("no response from OpenAI")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			out.Text = strings.TrimSpace(msg.Content)
			return out, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			args := rawArgs(call.Function.Arguments)
			result, err := runHandler(ctx, req.Tools, call.Function.Name, args)
			if err != nil {
				return out, err
			}
			out.Calls = append(out.Calls, ToolCall{Name: call.Function.Name, Arguments: args, Result: result})
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return out, nil
}

func (p *OpenAIProvider) chatStep(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.CreateChatCompletion(ctx, req)
}

func (p *OpenAIProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func openAIMessages(system, prompt string) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}
