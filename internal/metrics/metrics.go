// Package metrics provides Prometheus metrics for the hiring pipeline service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talent-pipeline/internal/storage"
)

const namespace = "pipeline"

// Ingestion outcomes.
const (
	OutcomeScored = "scored"
	OutcomeFailed = "failed"
)

// Recorder owns the service's collectors and the registry they live in.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	candidatesIngested  *prometheus.CounterVec
	candidateScore      prometheus.Histogram
	stageTransitions    *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a Recorder on a dedicated registry so the default Go collectors stay out.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		candidatesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_ingested_total",
			Help:      "Candidates created by ingestion, by outcome.",
		}, []string{"outcome"}),
		candidateScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_score",
			Help:      "Fit scores assigned at ingestion.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		stageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Successful stage transitions, by target stage.",
		}, []string{"stage"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by endpoint, method and status code.",
		}, []string{"endpoint", "method", "code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	r.registry.MustRegister(
		r.candidatesIngested,
		r.candidateScore,
		r.stageTransitions,
		r.httpRequests,
		r.httpRequestDuration,
	)
	return r
}

// CandidateIngested counts a created candidate and, when scored, its score.
func (r *Recorder) CandidateIngested(outcome string, score float64) {
	if r == nil {
		return
	}
	r.candidatesIngested.WithLabelValues(outcome).Inc()
	if outcome == OutcomeScored {
		r.candidateScore.Observe(score)
	}
}

// StageTransition counts a successful move into stage.
func (r *Recorder) StageTransition(stage storage.Stage) {
	if r == nil {
		return
	}
	r.stageTransitions.WithLabelValues(stage.String()).Inc()
}

// HTTPRequest records one served request.
func (r *Recorder) HTTPRequest(endpoint, method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
	r.httpRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
