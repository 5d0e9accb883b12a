package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedResult() *model.Result {
	return &model.Result{
		RequestID: "req-1",
		Claim:     model.Claim{Text: "The Earth is flat."},
		Status:    model.StatusVerified,
		Verdict: &model.Verdict{
			Claim:      "The Earth is flat.",
			Veracity:   model.VeracityFalse,
			Confidence: 0.93,
			Analysis:   "Satellite measurements show an oblate spheroid.",
			Sources: []model.Source{
				{URL: "https://www.nasa.gov/earth", Title: "NASA", Reliability: "High"},
			},
			Grounding: &model.GroundingMetadata{
				WebSearchQueries: []string{"earth shape"},
				Learnings:        []string{"Earth bulges at the equator"},
			},
		},
		Stats: model.ResearchStats{Nodes: 1, Queries: 1, Documents: 1},
	}
}

func TestMarkdown_Verified(t *testing.T) {
	md := NewRenderer(true).Markdown(verifiedResult())

	assert.Contains(t, md, "# Fact-check: The Earth is flat.")
	assert.Contains(t, md, "## Verdict: False (93% confidence)")
	assert.Contains(t, md, "1. [NASA](https://www.nasa.gov/earth) (reliability: High)")
	assert.Contains(t, md, "- earth shape")
	assert.Contains(t, md, "- Earth bulges at the equator")
	assert.Contains(t, md, footer)
}

func TestMarkdown_FailedWithoutFooter(t *testing.T) {
	res := &model.Result{RequestID: "r", Claim: model.Claim{Text: "x"}, Status: model.StatusFailed, Error: "Network error"}
	md := NewRenderer(false).Markdown(res)

	assert.Contains(t, md, "## Error\n\nNetwork error")
	assert.NotContains(t, md, footer)
}

func TestMarkdown_Fallback(t *testing.T) {
	res := &model.Result{Claim: model.Claim{Text: "x"}, Status: model.StatusFallback, Verdict: model.FallbackVerdict("x")}
	md := NewRenderer(false).Markdown(res)

	assert.Contains(t, md, "## Verdict: Unknown (50% confidence)")
	assert.Contains(t, md, "fallback answer")
	assert.Contains(t, md, "API Quota Exceeded")
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(true)
	res := verifiedResult()

	jsonPath := filepath.Join(dir, "out", "result.json")
	mdPath := filepath.Join(dir, "result.md")
	require.NoError(t, r.RenderJSON(res, jsonPath))
	require.NoError(t, r.RenderMarkdown(res, mdPath))

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded model.Result
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "req-1", decoded.RequestID)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "NASA")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, verifiedResult())
	out := buf.String()

	assert.Contains(t, out, "✓ The Earth is flat.")
	assert.Contains(t, out, "Verdict:    False (confidence 0.93)")
	assert.Contains(t, out, "https://www.nasa.gov/earth [High]")

	buf.Reset()
	Summary(&buf, &model.Result{Claim: model.Claim{Text: "x"}, Status: model.StatusFailed, Error: "boom"})
	assert.Contains(t, buf.String(), "✗ x\n  boom")
}
