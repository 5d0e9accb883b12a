package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w (set GEMINI_API_KEY or GOOGLE_GENERATIVE_AI_API_KEY)", ErrMissingAPIKey)
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-pro"
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// IsAvailable lists one model to verify the key
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx).Next()
	if err != nil && err != iterator.Done {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}
	return true
}

// GenerateObject uses a response schema with the application/json MIME type
func (p *GeminiProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	m := p.model(req.System, req.MaxTokens)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toGenaiSchema(req.Schema)

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, fmt.Errorf("%w: gemini %v", ErrInvalidOutput, blocked)
		}
		return nil, fmt.Errorf("gemini generate object: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned no candidates", ErrInvalidOutput)
	}
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	return &ObjectResponse{
		Raw:        raw,
		Model:      p.config.Model,
		TokensUsed: usage(resp),
	}, nil
}

// RunTools drives function calling through a chat session
func (p *GeminiProvider) RunTools(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
	for _, t := range req.Tools {
		decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
		// Gemini rejects object schemas without properties
		if len(t.Parameters.Properties) > 0 {
			decl.Parameters = toGenaiSchema(t.Parameters)
		}
		decls = append(decls, decl)
	}

	m := p.model(req.System, req.MaxTokens)
	m.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	chat := m.StartChat()

	out := &ToolResponse{}
	parts := []genai.Part{genai.Text(req.Prompt)}

	for step := 0; step < maxSteps(req.MaxSteps); step++ {
		resp, err := p.send(ctx, chat, parts)
		if err != nil {
			return out, fmt.Errorf("gemini tool step %d: %w", step+1, err)
		}
		out.Steps++
		out.TokensUsed += usage(resp)

		var calls []genai.FunctionCall
		if len(resp.Candidates) > 0 {
			calls = resp.Candidates[0].FunctionCalls()
		}
		if len(calls) == 0 {
			out.Text = responseText(resp)
			return out, nil
		}

		parts = parts[:0]
		for _, call := range calls {
			args, err := json.Marshal(call.Args)
			if err != nil || len(call.Args) == 0 {
				args = rawArgs("")
			}
			result, err := runHandler(ctx, req.Tools, call.Name, args)
			if err != nil {
				return out, err
			}
			out.Calls = append(out.Calls, ToolCall{Name: call.Name, Arguments: args, Result: result})
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"result": result},
			})
		}
	}

	return out, nil
}

func (p *GeminiProvider) send(ctx context.Context, chat *genai.ChatSession, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return chat.SendMessage(ctx, parts...)
}

func (p *GeminiProvider) model(system string, maxTokens int) *genai.GenerativeModel {
	m := p.client.GenerativeModel(p.config.Model)
	m.SetTemperature(p.config.Temperature)
	m.SetMaxOutputTokens(int32(p.config.maxTokens(maxTokens)))
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return m
}

func (p *GeminiProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// toGenaiSchema converts the neutral schema into Gemini's OpenAPI subset.
// additionalProperties has no Gemini equivalent and is dropped.
func toGenaiSchema(def jsonschema.Definition) *genai.Schema {
	s := &genai.Schema{
		Type:        genaiType(def.Type),
		Description: def.Description,
		Enum:        def.Enum,
		Nullable:    def.Nullable,
		Required:    def.Required,
	}
	if len(def.Enum) > 0 {
		s.Format = "enum"
	}
	if def.Items != nil {
		s.Items = toGenaiSchema(*def.Items)
	}
	if len(def.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			s.Properties[name] = toGenaiSchema(prop)
		}
	}
	return s
}

func genaiType(t jsonschema.DataType) genai.Type {
	switch t {
	case jsonschema.String:
		return genai.TypeString
	case jsonschema.Number:
		return genai.TypeNumber
	case jsonschema.Integer:
		return genai.TypeInteger
	case jsonschema.Boolean:
		return genai.TypeBoolean
	case jsonschema.Array:
		return genai.TypeArray
	case jsonschema.Object:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

func usage(resp *genai.GenerateContentResponse) int {
	if resp == nil || resp.UsageMetadata == nil {
		return 0
	}
	return int(resp.UsageMetadata.TotalTokenCount)
}
