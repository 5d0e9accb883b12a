// Package metrics holds the Prometheus collectors for fact-check activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fact-check metrics
	FactChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_factchecks_total",
			Help: "Total number of fact-checks by outcome",
		},
		[]string{"status"},
	)

	FactCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factly_factcheck_duration_seconds",
			Help:    "Fact-check wall-clock duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// Research metrics
	ResearchNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factly_research_nodes",
			Help:    "Research tree nodes expanded per fact-check",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	DocumentsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factly_documents_accepted_total",
			Help: "Total number of evidence documents accepted as relevant and novel",
		},
	)

	DocumentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_documents_rejected_total",
			Help: "Total number of evidence documents rejected",
		},
		[]string{"reason"},
	)

	BranchesAbandoned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_branches_abandoned_total",
			Help: "Research branches abandoned by cause",
		},
		[]string{"component"},
	)

	// Provider metrics
	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_llm_calls_total",
			Help: "Total number of language-model calls",
		},
		[]string{"provider", "operation", "status"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_llm_tokens_total",
			Help: "Tokens consumed by language-model calls",
		},
		[]string{"provider"},
	)

	SearchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_search_calls_total",
			Help: "Total number of evidence source searches",
		},
		[]string{"source", "status"},
	)

	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factly_page_fetches_total",
			Help: "Total number of page fetches",
		},
		[]string{"status"},
	)
)

// Status returns the label value for an error outcome
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// WriteTextfile writes the default registry to path for the node-exporter textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
