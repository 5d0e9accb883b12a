package research

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/JoseCortezz25/fact-checking-app/internal/llm"
	"github.com/JoseCortezz25/fact-checking-app/internal/metrics"
	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/search"
)

// Budget caps the work of one fact-check. Zero means unlimited.
type Budget struct {
	MaxNodes       int
	MaxLLMCalls    int
	MaxSearchCalls int
}

// BudgetFromConfig reads the caps from research configuration
func BudgetFromConfig(cfg model.ResearchConfig) Budget {
	return Budget{
		MaxNodes:       cfg.MaxNodes,
		MaxLLMCalls:    cfg.MaxLLMCalls,
		MaxSearchCalls: cfg.MaxSearchCalls,
	}
}

// Meter counts nodes and calls against a Budget
type Meter struct {
	budget Budget

	nodes       atomic.Int64
	llmCalls    atomic.Int64
	searchCalls atomic.Int64
}

// NewMeter creates a meter for b
func NewMeter(b Budget) *Meter {
	return &Meter{budget: b}
}

// EnterNode reserves one research node
func (m *Meter) EnterNode() error {
	return reserve(&m.nodes, m.budget.MaxNodes, "nodes")
}

func (m *Meter) llmCall() error {
	return reserve(&m.llmCalls, m.budget.MaxLLMCalls, "llm calls")
}

func (m *Meter) searchCall() error {
	return reserve(&m.searchCalls, m.budget.MaxSearchCalls, "search calls")
}

func reserve(counter *atomic.Int64, limit int, what string) error {
	n := counter.Add(1)
	if limit > 0 && n > int64(limit) {
		counter.Add(-1)
		return fmt.Errorf("%w: %s limit %d reached", ErrBudgetExhausted, what, limit)
	}
	return nil
}

// Nodes returns the number of nodes expanded so far
func (m *Meter) Nodes() int { return int(m.nodes.Load()) }

// LLMCalls returns the number of model calls made so far
func (m *Meter) LLMCalls() int { return int(m.llmCalls.Load()) }

// SearchCalls returns the number of searches made so far
func (m *Meter) SearchCalls() int { return int(m.searchCalls.Load()) }

// Provider wraps p so every model call is counted and capped
func (m *Meter) Provider(p llm.Provider) llm.Provider {
	return &meteredProvider{Provider: p, meter: m}
}

// Counting wraps p so model calls are counted but never refused. The
// synthesizer uses it so an exhausted research budget still yields a verdict.
func (m *Meter) Counting(p llm.Provider) llm.Provider {
	return &meteredProvider{Provider: p, meter: m, uncapped: true}
}

// Source wraps s so every search is counted and capped
func (m *Meter) Source(s search.Source) search.Source {
	return &meteredSource{Source: s, meter: m}
}

type meteredProvider struct {
	llm.Provider
	meter    *Meter
	uncapped bool
}

func (p *meteredProvider) reserve() error {
	if p.uncapped {
		p.meter.llmCalls.Add(1)
		return nil
	}
	return p.meter.llmCall()
}

func (p *meteredProvider) GenerateObject(ctx context.Context, req llm.ObjectRequest) (*llm.ObjectResponse, error) {
	if err := p.reserve(); err != nil {
		return nil, err
	}
	resp, err := p.Provider.GenerateObject(ctx, req)
	used := 0
	if resp != nil {
		used = resp.TokensUsed
	}
	p.observe("generate_object", err, used)
	return resp, err
}

// RunTools reserves one call up front and accounts for the remaining steps
// after the session ends.
func (p *meteredProvider) RunTools(ctx context.Context, req llm.ToolRequest) (*llm.ToolResponse, error) {
	if err := p.reserve(); err != nil {
		return nil, err
	}
	resp, err := p.Provider.RunTools(ctx, req)
	used := 0
	if resp != nil {
		if resp.Steps > 1 {
			p.meter.llmCalls.Add(int64(resp.Steps - 1))
		}
		used = resp.TokensUsed
	}
	p.observe("run_tools", err, used)
	return resp, err
}

func (p *meteredProvider) observe(op string, err error, used int) {
	metrics.LLMCalls.WithLabelValues(p.Name(), op, metrics.Status(err)).Inc()
	if used > 0 {
		metrics.LLMTokens.WithLabelValues(p.Name()).Add(float64(used))
	}
}

type meteredSource struct {
	search.Source
	meter *Meter
}

func (s *meteredSource) Search(ctx context.Context, query string) ([]model.Document, error) {
	if err := s.meter.searchCall(); err != nil {
		return nil, err
	}
	return s.Source.Search(ctx, query)
}
