// Package render writes fact-check results as JSON, Markdown, or a terminal summary.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

const footer = "_Generated by factly. Verdicts are produced by a language model from the sources listed above; check them before relying on this result._"

// Renderer renders fact-check results
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes res as indented JSON to path
func (r *Renderer) RenderJSON(res *model.Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, res) })
}

// RenderMarkdown writes res as Markdown to path
func (r *Renderer) RenderMarkdown(res *model.Result, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(res))
		return err
	})
}

// WriteJSON encodes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Markdown renders res as a Markdown report
func (r *Renderer) Markdown(res *model.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fact-check: %s\n\n", oneLine(res.Claim.Text))
	fmt.Fprintf(&b, "- **Request:** `%s`\n", res.RequestID)
	fmt.Fprintf(&b, "- **Status:** %s\n", res.Status)
	if !res.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Checked:** %s\n", res.StartedAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	if res.Verdict == nil {
		fmt.Fprintf(&b, "\n## Error\n\n%s\n", res.Error)
		r.writeFooter(&b)
		return b.String()
	}

	v := res.Verdict
	fmt.Fprintf(&b, "\n## Verdict: %s (%.0f%% confidence)\n\n", v.Veracity, v.Confidence*100)
	if v.Fallback {
		b.WriteString("> This is a fallback answer; the claim was not researched.\n\n")
	}
	b.WriteString(strings.TrimSpace(v.Analysis))
	b.WriteString("\n")

	b.WriteString("\n## Sources\n\n")
	if len(v.Sources) == 0 {
		b.WriteString("No sources were found.\n")
	}
	for i, s := range v.Sources {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		fmt.Fprintf(&b, "%d. [%s](%s)", i+1, oneLine(title), s.URL)
		if s.Reliability != "" {
			fmt.Fprintf(&b, " (reliability: %s)", s.Reliability)
		}
		b.WriteString("\n")
	}

	if g := v.Grounding; g != nil && len(g.WebSearchQueries) > 0 {
		b.WriteString("\n## Research\n\n")
		fmt.Fprintf(&b, "Queries issued: %d, documents accepted: %d, learnings: %d.\n\n",
			len(g.WebSearchQueries), len(g.GroundingChunks), len(g.Learnings))
		for _, q := range g.WebSearchQueries {
			fmt.Fprintf(&b, "- %s\n", oneLine(q))
		}
		if len(g.Learnings) > 0 {
			b.WriteString("\n### Learnings\n\n")
			for _, l := range g.Learnings {
				fmt.Fprintf(&b, "- %s\n", oneLine(l))
			}
		}
	}

	r.writeFooter(&b)
	return b.String()
}

func (r *Renderer) writeFooter(b *strings.Builder) {
	if !r.includeFooter {
		return
	}
	b.WriteString("\n---\n\n")
	b.WriteString(footer)
	b.WriteString("\n")
}

// Summary writes a short human-readable result for the terminal
func Summary(w io.Writer, res *model.Result) {
	switch res.Status {
	case model.StatusFailed:
		fmt.Fprintf(w, "✗ %s\n  %s\n", oneLine(res.Claim.Text), res.Error)
		return
	case model.StatusFallback:
		fmt.Fprintf(w, "⚠ %s\n", oneLine(res.Claim.Text))
	default:
		fmt.Fprintf(w, "✓ %s\n", oneLine(res.Claim.Text))
	}

	v := res.Verdict
	fmt.Fprintf(w, "  Verdict:    %s (confidence %.2f)\n", v.Veracity, v.Confidence)
	fmt.Fprintf(w, "  Analysis:   %s\n", oneLine(v.Analysis))
	for _, s := range v.Sources {
		fmt.Fprintf(w, "  Source:     %s [%s]\n", s.URL, s.Reliability)
	}
	fmt.Fprintf(w, "  Research:   %d nodes, %d queries, %d documents, %d model calls\n",
		res.Stats.Nodes, res.Stats.Queries, res.Stats.Documents, res.Stats.LLMCalls)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return write(f)
}
