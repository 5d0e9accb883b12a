// Package extract finds check-worthy sentences in page text.
package extract

import (
	"strings"
	"unicode"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

const (
	minSentenceLen = 30
	maxSentenceLen = 500
)

// ClaimExtractor picks sentences that state something verifiable
type ClaimExtractor struct {
	keywords []string
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		keywords: []string{
			"according to", "study", "studies show", "researchers", "scientists",
			"percent", "per cent", "million", "billion", "majority",
			"announced", "confirmed", "reported", "revealed", "found that",
			"the first", "the largest", "the highest", "the lowest", "record",
			"caused", "causes", "leads to", "increased", "decreased",
			"invented", "discovered", "founded", "originated",
			"is legally", "under the law", "banned", "approved",
		},
	}
}

// Extract returns up to max check-worthy sentences from plain text, in page
// order. max <= 0 means no limit.
func (e *ClaimExtractor) Extract(text string, max int) []model.ExtractedClaim {
	var claims []model.ExtractedClaim
	seen := make(map[string]bool)

	for i, sentence := range splitSentences(text) {
		heuristic := e.match(sentence)
		if heuristic == "" {
			continue
		}

		key := strings.ToLower(sentence)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, model.ExtractedClaim{
			Text:      sentence,
			Heuristic: heuristic,
			Sentence:  i,
		})
		if max > 0 && len(claims) == max {
			break
		}
	}

	return claims
}

// match returns the rule a sentence satisfies, or "" when none does
func (e *ClaimExtractor) match(sentence string) string {
	lower := strings.ToLower(sentence)
	if strings.HasSuffix(lower, "?") {
		return ""
	}
	for _, keyword := range e.keywords {
		if strings.Contains(lower, keyword) {
			return "keyword:" + keyword
		}
	}
	if hasNumber(sentence) {
		return "number"
	}
	return ""
}

// ToClaims turns extracted sentences into claims ready to check
func ToClaims(extracted []model.ExtractedClaim, ctx model.ClaimContext) []model.Claim {
	claims := make([]model.Claim, len(extracted))
	for i, ec := range extracted {
		claims[i] = model.Claim{Text: ec.Text, Context: ctx}
	}
	return claims
}

func hasNumber(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= minSentenceLen && len(sentence) <= maxSentenceLen {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when followed by a space and a capital, to survive "U.S." and "3.5"
			next := i + 1
			if next+1 < len(text) && text[next] == ' ' && isSentenceStart(text[next+1:]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func isSentenceStart(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '“'
	}
	return false
}
