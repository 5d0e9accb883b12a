package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/authority"
	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

const sourceExcerptChars = 500

// Synthesizer folds a research record into one verdict
type Synthesizer struct {
	provider   llm.Provider
	prompts    Prompts
	classifier *authority.Classifier
	maxChars   int
}

// NewSynthesizer creates a synthesizer. A nil classifier labels every source Unknown.
func NewSynthesizer(provider llm.Provider, prompts Prompts, classifier *authority.Classifier, maxChars int) *Synthesizer {
	return &Synthesizer{provider: provider, prompts: prompts, classifier: classifier, maxChars: maxChars}
}

// Synthesize produces the verdict for claim. Cited sources are restricted to
// documents in rec; an empty record still yields a complete verdict.
func (s *Synthesizer) Synthesize(ctx context.Context, claim model.Claim, rec *Record) (*model.Verdict, error) {
	docs := rec.Documents()
	learnings := rec.Learnings()

	resp, err := s.provider.GenerateObject(ctx, llm.ObjectRequest{
		System:            s.prompts.system(synthesisRole),
		Prompt:            synthesisPrompt(claim.Text, docs, learnings, s.maxChars),
		SchemaName:        schemaVerdict,
		SchemaDescription: "Fact-check verdict",
		Schema:            verdictSchema(),
	})
	if err != nil {
		return nil, generationError("synthesizer", err)
	}

	var fv FinalVerdict
	if err := resp.Decode(&fv); err != nil {
		return nil, generationError("synthesizer", err)
	}
	veracity, err := model.ParseVeracity(fv.Veracity)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: %w: %v", ErrContractViolation, err)
	}

	restated := strings.TrimSpace(fv.Claim)
	if restated == "" {
		restated = claim.Text
	}
	verdict := &model.Verdict{
		Claim:      restated,
		Veracity:   veracity,
		Confidence: fv.Confidence,
		Analysis:   strings.TrimSpace(fv.Analysis),
		Sources:    s.reconcile(fv.Sources, rec, docs),
		Grounding:  grounding(rec, docs, learnings),
	}
	if err := verdict.Validate(); err != nil {
		return nil, fmt.Errorf("synthesizer: %w: %v", ErrContractViolation, err)
	}
	return verdict, nil
}

// reconcile keeps cited URLs that were actually accepted, taking titles and
// content from the record. Without usable citations every accepted document is listed.
func (s *Synthesizer) reconcile(cited []CitedSource, rec *Record, docs []model.Document) []model.Source {
	sources := make([]model.Source, 0, len(cited))
	seen := make(map[string]struct{}, len(cited))
	for _, c := range cited {
		doc, ok := rec.Document(c.URL)
		if !ok {
			continue
		}
		if _, dup := seen[doc.URL]; dup {
			continue
		}
		seen[doc.URL] = struct{}{}
		sources = append(sources, s.source(doc))
	}
	if len(sources) > 0 {
		return sources
	}
	for _, doc := range docs {
		sources = append(sources, s.source(doc))
	}
	return sources
}

func (s *Synthesizer) source(doc model.Document) model.Source {
	doc.Content = truncate(strings.TrimSpace(doc.Content), sourceExcerptChars)
	if s.classifier == nil {
		return model.Source{URL: doc.URL, Title: doc.Title, Content: doc.Content, Reliability: model.TierUnknown.Reliability()}
	}
	return s.classifier.Source(doc)
}

func grounding(rec *Record, docs []model.Document, learnings []model.Learning) *model.GroundingMetadata {
	g := &model.GroundingMetadata{
		WebSearchQueries: rec.Queries(),
		RetrievalQueries: rec.Completed(),
	}
	for _, d := range docs {
		g.GroundingChunks = append(g.GroundingChunks, model.GroundingChunk{Web: &model.WebChunk{URI: d.URL, Title: d.Title}})
	}
	for _, l := range learnings {
		g.Learnings = append(g.Learnings, l.Learning)
	}
	return g
}
