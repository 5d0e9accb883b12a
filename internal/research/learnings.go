package research

import (
	"context"
	"fmt"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// LearningExtractor compresses one document into a learning plus follow-up questions
type LearningExtractor struct {
	provider llm.Provider
	prompts  Prompts
	maxChars int
}

// NewLearningExtractor creates a learning extractor
func NewLearningExtractor(provider llm.Provider, prompts Prompts, maxChars int) *LearningExtractor {
	return &LearningExtractor{provider: provider, prompts: prompts, maxChars: maxChars}
}

// Extract derives a learning about topic from doc
func (e *LearningExtractor) Extract(ctx context.Context, topic string, doc model.Document) (model.Learning, error) {
	resp, err := e.provider.GenerateObject(ctx, llm.ObjectRequest{
		System:     e.prompts.system(learningRole),
		Prompt:     learningPrompt(topic, doc, e.maxChars),
		SchemaName: schemaLearning,
		Schema:     learningSchema(),
	})
	if err != nil {
		return model.Learning{}, generationError("learning extractor", err)
	}

	var result LearningResult
	if err := resp.Decode(&result); err != nil {
		return model.Learning{}, generationError("learning extractor", err)
	}
	learning, err := result.ToLearning(doc.URL)
	if err != nil {
		return model.Learning{}, fmt.Errorf("learning extractor: %w", err)
	}
	return learning, nil
}
