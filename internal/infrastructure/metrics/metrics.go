// Package metrics defines the Prometheus collectors for the graph engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kin"

// Proposal results.
const (
	ResultCommitted = "committed"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

var (
	// edgeProposals counts edge proposals.
	// Labels: kind (partnership, parent_child), result (committed, rejected, error)
	edgeProposals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "edge_proposals_total",
		Help:      "Edge proposals by kind and result",
	}, []string{"kind", "result"})

	// validationFailures counts individual validator errors by code.
	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "validation_failures_total",
		Help:      "Validator errors by code",
	}, []string{"code"})

	edgeRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "edge_removals_total",
		Help:      "Edge removals by result",
	}, []string{"result"})

	// projections counts tree projections.
	// Labels: view (descendant, pedigree, fan), result (ok, truncated, error)
	projections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "projector",
		Name:      "projections_total",
		Help:      "Tree projections by view and result",
	}, []string{"view", "result"})

	projectionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "projector",
		Name:      "latency_seconds",
		Help:      "Tree projection latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"view"})

	suggestionsScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "suggestions",
		Name:      "scored_total",
		Help:      "Suggestion candidates produced by the scorer",
	})

	scoringLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "suggestions",
		Name:      "scoring_seconds",
		Help:      "Time to score all candidate pairs",
		Buckets:   prometheus.DefBuckets,
	})

	// suggestionResponses counts reviewer decisions.
	// Labels: decision (accepted, rejected), result (committed, rejected, error)
	suggestionResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "suggestions",
		Name:      "responses_total",
		Help:      "Suggestion responses by decision and result",
	}, []string{"decision", "result"})

	// graphEdges tracks the committed edges held in memory.
	// Labels: kind (partnership, parent_child)
	graphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "edges",
		Help:      "Committed edges in the loaded graph by kind",
	}, []string{"kind"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
)

// RecordProposal records the outcome of an edge proposal.
func RecordProposal(kind, result string) {
	edgeProposals.WithLabelValues(kind, result).Inc()
}

// RecordValidationFailure records one validator error code.
func RecordValidationFailure(code string) {
	validationFailures.WithLabelValues(code).Inc()
}

// RecordRemoval records an edge removal attempt.
func RecordRemoval(result string) {
	edgeRemovals.WithLabelValues(result).Inc()
}

// RecordProjection records a projection and its latency.
func RecordProjection(view, result string, durationSec float64) {
	projections.WithLabelValues(view, result).Inc()
	projectionLatency.WithLabelValues(view).Observe(durationSec)
}

// RecordScoring records a scoring pass.
func RecordScoring(candidates int, durationSec float64) {
	suggestionsScored.Add(float64(candidates))
	scoringLatency.Observe(durationSec)
}

// RecordSuggestionResponse records a reviewer decision.
func RecordSuggestionResponse(accepted bool, result string) {
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	suggestionResponses.WithLabelValues(decision, result).Inc()
}

// SetGraphEdges records the current edge counts of the loaded graph.
func SetGraphEdges(partnerships, parentChild int) {
	graphEdges.WithLabelValues("partnership").Set(float64(partnerships))
	graphEdges.WithLabelValues("parent_child").Set(float64(parentChild))
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
