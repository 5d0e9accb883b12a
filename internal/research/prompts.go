package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// Prompts carries the per-request data rendered into every system prompt.
type Prompts struct {
	now      time.Time
	language string
	claim    model.ClaimContext
}

// NewPrompts resolves the answer language, falling back to defaultLanguage
func NewPrompts(claim model.Claim, defaultLanguage string, now time.Time) Prompts {
	lang := claim.Context.Language
	if strings.TrimSpace(lang) == "" {
		lang = defaultLanguage
	}
	if lang == "" {
		lang = "English"
	}
	return Prompts{now: now, language: lang, claim: claim.Context}
}

// system builds the shared researcher preamble followed by role-specific instructions
func (p Prompts) system(role string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert fact-checking researcher. Today is %s.\n", p.now.Format("January 2, 2006"))
	b.WriteString("Be precise, prefer primary sources, and never invent facts or URLs.\n")
	fmt.Fprintf(&b, "Write every free-text field in %s.\n", p.language)

	if loc := p.claim.Location.String(); loc != "" {
		b.WriteString("\n<LOCATION>\n")
		b.WriteString(loc)
		b.WriteString("\n</LOCATION>\n")
	}
	if !p.claim.ReferenceDate.IsZero() {
		b.WriteString("\n<DATE>\n")
		b.WriteString(p.claim.ReferenceDate.Format(time.RFC3339))
		b.WriteString("\n</DATE>\n")
	}

	if role != "" {
		b.WriteString("\n")
		b.WriteString(role)
	}
	return b.String()
}

const (
	queryRole = "Generate web search queries that would surface evidence to confirm or refute the topic. " +
		"Each query must be short, specific, and different from the others."

	collectorRole = "You are a research assistant. For the given query, search the web for relevant " +
		"information, then evaluate each result. Keep searching with better queries until a relevant " +
		"result is found or you run out of attempts."

	relevanceRole = "Decide whether a search result is relevant to the query and helps answer it. " +
		"Answer relevant or irrelevant."

	learningRole = "Extract the single most important learning from the document with respect to the topic, " +
		"and list follow-up questions that would deepen the research."

	synthesisRole = "You are a fact checker. Using only the research provided, decide whether the claim is " +
		"True, False, or Mixed, give a confidence between 0 and 1, explain your reasoning, and cite the " +
		"source URLs you relied on."
)

func queryPrompt(topic string, n int) string {
	return fmt.Sprintf("Generate %d search queries for the following topic:\n\n%s", n, topic)
}

func collectorPrompt(query string) string {
	return "Search the web for information about: " + query
}

func relevancePrompt(doc model.Document, query string, maxChars int) string {
	return fmt.Sprintf("<QUERY>\n%s\n</QUERY>\n\n<SEARCH_RESULT>\nTitle: %s\nURL: %s\n\n%s\n</SEARCH_RESULT>",
		query, doc.Title, doc.URL, truncate(doc.Content, maxChars))
}

func learningPrompt(topic string, doc model.Document, maxChars int) string {
	return fmt.Sprintf("<TOPIC>\n%s\n</TOPIC>\n\n<DOCUMENT>\nTitle: %s\nURL: %s\n\n%s\n</DOCUMENT>",
		topic, doc.Title, doc.URL, truncate(doc.Content, maxChars))
}

// followUpPrompt is the composite prompt handed to a child research node
func followUpPrompt(goal string, completed []string, followUps []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall research goal: %s\n", goal)
	if len(completed) > 0 {
		fmt.Fprintf(&b, "Previous search queries: %s\n", strings.Join(completed, ", "))
	}
	if len(followUps) > 0 {
		fmt.Fprintf(&b, "Follow-up questions: %s\n", strings.Join(followUps, ", "))
	}
	return b.String()
}

func synthesisPrompt(claim string, docs []model.Document, learnings []model.Learning, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<CLAIM>\n%s\n</CLAIM>\n\n<LEARNINGS>\n", claim)
	for _, l := range learnings {
		fmt.Fprintf(&b, "- %s\n", l.Learning)
	}
	b.WriteString("</LEARNINGS>\n\n<SOURCES>\n")
	if len(docs) == 0 {
		b.WriteString("No relevant sources were found.\n")
	}
	perDoc := maxChars
	if len(docs) > 1 && maxChars > 0 {
		perDoc = maxChars / len(docs)
	}
	for _, d := range docs {
		fmt.Fprintf(&b, "<SOURCE url=%q title=%q>\n%s\n</SOURCE>\n", d.URL, d.Title, truncate(d.Content, perDoc))
	}
	b.WriteString("</SOURCES>")
	return b.String()
}

// truncate cuts s to at most n runes; n <= 0 disables the cap
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
