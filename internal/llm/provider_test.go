package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/cache"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "preamble", input: `Here you go: {"a":1}`, want: `{"a":1}`},
		{name: "no json", input: "nothing here", wantErr: true},
		{name: "truncated", input: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOutput)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestSchemaMap(t *testing.T) {
	m, err := schemaMap(jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           map[string]jsonschema.Definition{"q": {Type: jsonschema.String}},
		Required:             []string{"q"},
		AdditionalProperties: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
	assert.Equal(t, false, m["additionalProperties"])
	assert.Contains(t, m["properties"], "q")
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"veracity":   {Type: jsonschema.String, Enum: []string{"True", "False", "Mixed"}},
			"confidence": {Type: jsonschema.Number},
			"sources":    {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		},
		Required:             []string{"veracity"},
		AdditionalProperties: false,
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"veracity"}, s.Required)
	assert.Equal(t, genai.TypeString, s.Properties["veracity"].Type)
	assert.Equal(t, "enum", s.Properties["veracity"].Format)
	assert.Equal(t, genai.TypeNumber, s.Properties["confidence"].Type)
	require.NotNil(t, s.Properties["sources"].Items)
	assert.Equal(t, genai.TypeString, s.Properties["sources"].Items.Type)
}

type countingProvider struct {
	Provider
	objects int
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) GenerateObject(context.Context, ObjectRequest) (*ObjectResponse, error) {
	c.objects++
	return &ObjectResponse{Raw: json.RawMessage(`{"relevance":"relevant"}`)}, nil
}

func TestCachingProvider_MemoizesExactInput(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachingProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), "m", time.Minute)

	req := ObjectRequest{Prompt: "judge doc A", Schema: jsonschema.Definition{Type: jsonschema.Object}}
	first, err := p.GenerateObject(context.Background(), req)
	require.NoError(t, err)
	second, err := p.GenerateObject(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.objects)
	assert.JSONEq(t, string(first.Raw), string(second.Raw))

	_, err = p.GenerateObject(context.Background(), ObjectRequest{Prompt: "judge doc B", Schema: jsonschema.Definition{Type: jsonschema.Object}})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.objects)
}

func TestNewCachingProvider_NilCache(t *testing.T) {
	inner := &countingProvider{}
	assert.Same(t, Provider(inner), NewCachingProvider(inner, nil, "m", time.Minute))
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewProvider(context.Background(), Config{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewProvider(context.Background(), Config{Provider: "bogus"})
	assert.Error(t, err)

	p, err := NewProvider(context.Background(), Config{Provider: "ollama", Model: "llama3.1:8b"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}
