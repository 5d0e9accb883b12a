package research

import (
	"context"
	"testing"

	"github.com/JoseCortezz25/fact-checking-app/internal/authority"
	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynthesizer(p llm.Provider) *Synthesizer {
	return NewSynthesizer(p, testPrompts(), authority.NewClassifier(&model.DefaultConfig().Authority), 4000)
}

func TestSynthesizer_SourcesSubsetOfAccepted(t *testing.T) {
	fake := newFakeProvider()
	fake.objects[schemaVerdict] = func(llm.ObjectRequest) (any, error) {
		return FinalVerdict{
			Claim:      "claim",
			Veracity:   "True",
			Confidence: 0.8,
			Analysis:   "supported",
			Sources: []CitedSource{
				{URL: "https://www.nasa.gov/earth", Title: "model title"},
				{URL: "https://invented.example", Title: "made up"},
				{URL: "https://www.nasa.gov/earth", Title: "repeat"},
			},
		}, nil
	}
	rec := NewRecord("claim")
	rec.AddDocument(model.Document{URL: "https://www.nasa.gov/earth", Title: "Record title", Content: "Earth facts"})
	rec.AddDocument(model.Document{URL: "https://blog.example/post", Title: "Blog"})

	v, err := newTestSynthesizer(fake).Synthesize(context.Background(), model.Claim{Text: "claim"}, rec)
	require.NoError(t, err)
	require.Len(t, v.Sources, 1)
	assert.Equal(t, "https://www.nasa.gov/earth", v.Sources[0].URL)
	assert.Equal(t, "Record title", v.Sources[0].Title)
	assert.Equal(t, "High", v.Sources[0].Reliability)

	for _, s := range v.Sources {
		assert.True(t, rec.HasURL(s.URL))
	}
	require.NotNil(t, v.Grounding)
	assert.Len(t, v.Grounding.GroundingChunks, 2)
}

func TestSynthesizer_NoCitationsListsAllAccepted(t *testing.T) {
	fake := newFakeProvider()
	rec := NewRecord("claim")
	rec.AddDocument(model.Document{URL: "https://a.example", Title: "A"})
	rec.AddDocument(model.Document{URL: "https://b.example", Title: "B"})

	v, err := newTestSynthesizer(fake).Synthesize(context.Background(), model.Claim{Text: "claim"}, rec)
	require.NoError(t, err)
	require.Len(t, v.Sources, 2)
	assert.Equal(t, "https://a.example", v.Sources[0].URL)
	assert.Equal(t, "https://b.example", v.Sources[1].URL)
}

func TestSynthesizer_EmptyRecord(t *testing.T) {
	fake := newFakeProvider()

	v, err := newTestSynthesizer(fake).Synthesize(context.Background(), model.Claim{Text: "claim"}, NewRecord("claim"))
	require.NoError(t, err)
	require.NoError(t, v.Validate())
	assert.Empty(t, v.Sources)
	assert.NotEmpty(t, v.Analysis)
	assert.False(t, v.Fallback)
}

func TestSynthesizer_ContractViolations(t *testing.T) {
	tests := map[string]FinalVerdict{
		"confidence above one": {Claim: "c", Veracity: "True", Confidence: 1.5, Analysis: "a"},
		"negative confidence":  {Claim: "c", Veracity: "False", Confidence: -0.1, Analysis: "a"},
		"unknown veracity":     {Claim: "c", Veracity: "Unknown", Confidence: 0.5, Analysis: "a"},
		"empty analysis":       {Claim: "c", Veracity: "Mixed", Confidence: 0.5, Analysis: "  "},
	}
	for name, fv := range tests {
		t.Run(name, func(t *testing.T) {
			fake := newFakeProvider()
			fake.objects[schemaVerdict] = func(llm.ObjectRequest) (any, error) { return fv, nil }

			_, err := newTestSynthesizer(fake).Synthesize(context.Background(), model.Claim{Text: "claim"}, NewRecord("claim"))
			assert.ErrorIs(t, err, ErrContractViolation)
		})
	}
}

func TestSynthesizer_EmptyRestatementUsesClaim(t *testing.T) {
	fake := newFakeProvider()
	fake.objects[schemaVerdict] = func(llm.ObjectRequest) (any, error) {
		return FinalVerdict{Veracity: "false", Confidence: 0.7, Analysis: "no"}, nil
	}

	v, err := newTestSynthesizer(fake).Synthesize(context.Background(), model.Claim{Text: "Cats can fly"}, NewRecord("Cats can fly"))
	require.NoError(t, err)
	assert.Equal(t, "Cats can fly", v.Claim)
	assert.Equal(t, model.VeracityFalse, v.Veracity)
}
