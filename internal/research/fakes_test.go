package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// fakeProvider answers structured-output calls by schema name and drives
// tool sessions with a fixed script.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	queryCounter atomic.Int64

	// err, when set, fails every call
	err error

	unavailable bool

	// overrides by schema name; return value is marshalled as the object
	objects map[string]func(req llm.ObjectRequest) (any, error)

	// script is run for each tool session; defaults to search then evaluate
	script []scriptCall
}

type scriptCall struct {
	tool string
	args string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int), objects: make(map[string]func(llm.ObjectRequest) (any, error))}
}

func (f *fakeProvider) count(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
}

func (f *fakeProvider) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(context.Context) bool { return !f.unavailable }

func (f *fakeProvider) GenerateObject(_ context.Context, req llm.ObjectRequest) (*llm.ObjectResponse, error) {
	f.count(req.SchemaName)
	if f.err != nil {
		return nil, f.err
	}

	var value any
	var err error
	if fn, ok := f.objects[req.SchemaName]; ok {
		value, err = fn(req)
	} else {
		value, err = f.defaultObject(req)
	}
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return &llm.ObjectResponse{Raw: raw, Model: "fake-model", TokensUsed: 10}, nil
}

func (f *fakeProvider) defaultObject(req llm.ObjectRequest) (any, error) {
	switch req.SchemaName {
	case schemaQueries:
		queries := make([]string, maxQueries)
		for i := range queries {
			queries[i] = fmt.Sprintf("query %d", f.queryCounter.Add(1))
		}
		return QueryList{Queries: queries}, nil
	case schemaRelevant:
		return RelevanceVerdict{Evaluation: "relevant"}, nil
	case schemaLearning:
		return LearningResult{Learning: "a learning", FollowUpQuestions: []string{"what next?"}}, nil
	case schemaVerdict:
		return FinalVerdict{Claim: "the claim", Veracity: "Mixed", Confidence: 0.4, Analysis: "evidence is thin"}, nil
	default:
		return nil, fmt.Errorf("unexpected schema %q", req.SchemaName)
	}
}

func (f *fakeProvider) RunTools(ctx context.Context, req llm.ToolRequest) (*llm.ToolResponse, error) {
	f.count("tools")
	if f.err != nil {
		return nil, f.err
	}

	script := f.script
	if script == nil {
		query := strings.TrimPrefix(req.Prompt, collectorPrompt(""))
		args, _ := json.Marshal(searchArgs{Query: query})
		script = []scriptCall{{tool: toolSearchWeb, args: string(args)}, {tool: toolEvaluate, args: "{}"}}
	}

	out := &llm.ToolResponse{}
	for _, call := range script {
		if req.MaxSteps > 0 && out.Steps >= req.MaxSteps {
			return out, nil
		}
		out.Steps++
		var handler llm.ToolHandler
		for _, t := range req.Tools {
			if t.Name == call.tool {
				handler = t.Handler
			}
		}
		if handler == nil {
			return out, fmt.Errorf("unknown tool %q", call.tool)
		}
		result, err := handler(ctx, json.RawMessage(call.args))
		if err != nil {
			return out, fmt.Errorf("tool %s: %w", call.tool, err)
		}
		out.Calls = append(out.Calls, llm.ToolCall{Name: call.tool, Arguments: json.RawMessage(call.args), Result: result})
	}
	if req.MaxSteps <= 0 || out.Steps < req.MaxSteps {
		out.Steps++
		out.Text = "done"
	}
	return out, nil
}

// fakeSource returns one document per query unless results are scripted
type fakeSource struct {
	mu      sync.Mutex
	queries []string

	err     error
	results map[string][]model.Document
	// empty makes every search return nothing
	empty bool
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Search(_ context.Context, query string) ([]model.Document, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.empty {
		return nil, nil
	}
	if docs, ok := s.results[query]; ok {
		return docs, nil
	}
	slug := strings.ReplaceAll(query, " ", "-")
	return []model.Document{{
		Title:   "About " + query,
		URL:     "https://example.com/" + slug,
		Content: "Content for " + query,
	}}, nil
}

func (s *fakeSource) searched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type memoryRecorder struct {
	mu      sync.Mutex
	results []model.Result
}

func (r *memoryRecorder) Save(_ context.Context, res model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

var errQuotaMessage = errors.New("You exceeded your current quota, please check your plan and billing details")
