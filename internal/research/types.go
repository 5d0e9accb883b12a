package research

import (
	"fmt"
	"strings"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Each structured-output call decodes into one of the types below. The
// schema sent to the provider and the Go type describe the same fields.

const (
	minQueries     = 1
	maxQueries     = 5
	maxQueryWords  = 10
	schemaQueries  = "search_queries"
	schemaRelevant = "relevance_evaluation"
	schemaLearning = "learning"
	schemaVerdict  = "fact_check_verdict"
)

// QueryList is the query generator's output
type QueryList struct {
	Queries []string `json:"queries"`
}

func queryListSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"queries": {
				Type:        jsonschema.Array,
				Description: "Web search queries, most useful first",
				Items:       &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required:             []string{"queries"},
		AdditionalProperties: false,
	}
}

// Normalize trims, drops empty and duplicate queries, caps each query at ten
// words and keeps at most n. It fails when nothing usable remains.
func (q QueryList) Normalize(n int) ([]string, error) {
	seen := make(map[string]struct{}, len(q.Queries))
	out := make([]string, 0, n)
	for _, raw := range q.Queries {
		words := strings.Fields(raw)
		if len(words) == 0 {
			continue
		}
		if len(words) > maxQueryWords {
			words = words[:maxQueryWords]
		}
		query := strings.Join(words, " ")
		key := strings.ToLower(query)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, query)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: query generator returned no usable queries", ErrContractViolation)
	}
	return out, nil
}

// Relevance is the closed classification produced by the relevance filter
type Relevance string

const (
	Relevant   Relevance = "relevant"
	Irrelevant Relevance = "irrelevant"
)

// RelevanceVerdict is the relevance filter's output
type RelevanceVerdict struct {
	Evaluation string `json:"evaluation"`
}

func relevanceSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"evaluation": {
				Type: jsonschema.String,
				Enum: []string{string(Relevant), string(Irrelevant)},
			},
		},
		Required:             []string{"evaluation"},
		AdditionalProperties: false,
	}
}

// Relevance parses the evaluation, rejecting anything outside the two values
func (v RelevanceVerdict) Relevance() (Relevance, error) {
	switch Relevance(strings.ToLower(strings.TrimSpace(v.Evaluation))) {
	case Relevant:
		return Relevant, nil
	case Irrelevant:
		return Irrelevant, nil
	default:
		return "", fmt.Errorf("%w: relevance %q", ErrContractViolation, v.Evaluation)
	}
}

// LearningResult is the learning extractor's output
type LearningResult struct {
	Learning          string   `json:"learning"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

func learningSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"learning": {
				Type:        jsonschema.String,
				Description: "One concise, information-dense takeaway from the document",
			},
			"followUpQuestions": {
				Type:        jsonschema.Array,
				Description: "Questions that would deepen the research",
				Items:       &jsonschema.Definition{Type: jsonschema.String},
			},
		},
		Required:             []string{"learning", "followUpQuestions"},
		AdditionalProperties: false,
	}
}

// ToLearning validates the result and binds it to the source document
func (l LearningResult) ToLearning(sourceURL string) (model.Learning, error) {
	text := strings.TrimSpace(l.Learning)
	if text == "" {
		return model.Learning{}, fmt.Errorf("%w: empty learning", ErrContractViolation)
	}
	var followUps []string
	for _, q := range l.FollowUpQuestions {
		if q = strings.TrimSpace(q); q != "" {
			followUps = append(followUps, q)
		}
	}
	if len(followUps) == 0 {
		return model.Learning{}, fmt.Errorf("%w: learning without follow-up questions", ErrContractViolation)
	}
	return model.Learning{Learning: text, FollowUpQuestions: followUps, SourceURL: sourceURL}, nil
}

// FinalVerdict is the synthesizer's output
type FinalVerdict struct {
	Claim      string        `json:"claim"`
	Veracity   string        `json:"veracity"`
	Confidence float64       `json:"confidence"`
	Analysis   string        `json:"analysis"`
	Sources    []CitedSource `json:"sources"`
}

// CitedSource is a source named by the synthesizer
type CitedSource struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func verdictSchema() jsonschema.Definition {
	veracities := make([]string, len(model.Veracities))
	for i, v := range model.Veracities {
		veracities[i] = string(v)
	}
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"claim": {
				Type:        jsonschema.String,
				Description: "The claim being checked, restated",
			},
			"veracity": {
				Type: jsonschema.String,
				Enum: veracities,
			},
			"confidence": {
				Type:        jsonschema.Number,
				Description: "Confidence in the veracity label, between 0 and 1",
			},
			"analysis": {
				Type:        jsonschema.String,
				Description: "Explanation of the verdict grounded in the sources",
			},
			"sources": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"url":   {Type: jsonschema.String},
						"title": {Type: jsonschema.String},
					},
					Required:             []string{"url", "title"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"claim", "veracity", "confidence", "analysis", "sources"},
		AdditionalProperties: false,
	}
}

func searchWebSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "The search query",
			},
		},
		Required:             []string{"query"},
		AdditionalProperties: false,
	}
}

func evaluateSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           map[string]jsonschema.Definition{},
		AdditionalProperties: false,
	}
}
