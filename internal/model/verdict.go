package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Veracity is the closed classification of a claim's truth
type Veracity string

const (
	VeracityTrue  Veracity = "True"
	VeracityFalse Veracity = "False"
	VeracityMixed Veracity = "Mixed"

	// VeracityUnknown only ever appears in a fallback verdict
	VeracityUnknown Veracity = "Unknown"
)

// Veracities lists the values a synthesized verdict may carry
var Veracities = []Veracity{VeracityTrue, VeracityFalse, VeracityMixed}

// Valid reports whether v is one of the three synthesized values
func (v Veracity) Valid() bool {
	for _, allowed := range Veracities {
		if v == allowed {
			return true
		}
	}
	return false
}

// ParseVeracity matches s case-insensitively against the synthesized values
func ParseVeracity(s string) (Veracity, error) {
	trimmed := strings.TrimSpace(s)
	for _, v := range Veracities {
		if strings.EqualFold(trimmed, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid veracity %q (allowed: True, False, Mixed)", s)
}

// Source is one piece of evidence cited by a verdict
type Source struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	Reliability string `json:"reliability,omitempty"` // High, Medium, Low, Unknown
}

// GroundingMetadata describes how the evidence-backed answer was produced.
// Callers should treat it as opaque provenance data.
type GroundingMetadata struct {
	WebSearchQueries []string         `json:"web_search_queries,omitempty"`
	RetrievalQueries []string         `json:"retrieval_queries,omitempty"`
	GroundingChunks  []GroundingChunk `json:"grounding_chunks,omitempty"`
	Learnings        []string         `json:"learnings,omitempty"`
}

// GroundingChunk is one retrieved piece of context
type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

// WebChunk identifies a retrieved web page
type WebChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Verdict is the terminal output of a fact-check
type Verdict struct {
	Claim      string             `json:"claim"`
	Veracity   Veracity           `json:"veracity"`
	Confidence float64            `json:"confidence"`
	Analysis   string             `json:"analysis"`
	Sources    []Source           `json:"sources"`
	Grounding  *GroundingMetadata `json:"grounding_metadata,omitempty"`
	Fallback   bool               `json:"fallback"`
}

// Validate rejects verdicts that break the output contract
func (v *Verdict) Validate() error {
	if v == nil {
		return errors.New("verdict is nil")
	}
	if strings.TrimSpace(v.Claim) == "" {
		return errors.New("verdict claim is empty")
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return fmt.Errorf("confidence %.3f outside [0,1]", v.Confidence)
	}
	if v.Fallback {
		if v.Veracity != VeracityUnknown && !v.Veracity.Valid() {
			return fmt.Errorf("invalid fallback veracity %q", v.Veracity)
		}
	} else if !v.Veracity.Valid() {
		return fmt.Errorf("invalid veracity %q", v.Veracity)
	}
	if strings.TrimSpace(v.Analysis) == "" {
		return errors.New("verdict analysis is empty")
	}
	return nil
}

// FallbackAnalysis is the fixed explanation used when a provider is out of quota
const FallbackAnalysis = "We couldn't verify this claim due to API limitations. Please try again later or check reliable sources manually to verify this information."

// FallbackVerdict builds the fixed verdict returned when quota is exhausted.
// It has the same shape as a synthesized verdict.
func FallbackVerdict(claim string) *Verdict {
	return &Verdict{
		Claim:      claim,
		Veracity:   VeracityUnknown,
		Confidence: 0.5,
		Analysis:   FallbackAnalysis,
		Sources: []Source{
			{
				Title:       "API Quota Exceeded",
				URL:         "https://factcheck.org",
				Content:     "The fact-checking service is currently unavailable due to API quota limitations. We recommend checking trusted news sources or fact-checking websites to verify this claim.",
				Reliability: "Medium",
			},
		},
		Fallback: true,
	}
}

// ResultStatus discriminates the outcome of a fact-check
type ResultStatus string

const (
	StatusVerified ResultStatus = "verified"
	StatusFallback ResultStatus = "fallback"
	StatusFailed   ResultStatus = "failed"
)

// ResearchStats summarizes the work done for one fact-check
type ResearchStats struct {
	Depth       int `json:"depth"`
	Breadth     int `json:"breadth"`
	Nodes       int `json:"nodes"`
	LLMCalls    int `json:"llm_calls"`
	SearchCalls int `json:"search_calls"`
	Queries     int `json:"queries"`
	Documents   int `json:"documents"`
	Learnings   int `json:"learnings"`
}

// Result is the outcome of one fact-check request. Verdict is set for the
// verified and fallback statuses, Error for failed.
type Result struct {
	RequestID  string        `json:"request_id"`
	Claim      Claim         `json:"claim"`
	Status     ResultStatus  `json:"status"`
	Verdict    *Verdict      `json:"verdict,omitempty"`
	Error      string        `json:"error,omitempty"`
	Stats      ResearchStats `json:"stats"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Succeeded reports whether the result carries a verdict
func (r *Result) Succeeded() bool {
	return r.Status == StatusVerified || r.Status == StatusFallback
}
