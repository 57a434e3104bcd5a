package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/model"
)

// Metrics holds the Prometheus collectors for classification traffic and
// artifact loading. Each Metrics owns its registry.
type Metrics struct {
	registry      *prometheus.Registry
	predictions   *prometheus.CounterVec
	emptyInputs   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	artifactLoads *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	requests      *prometheus.CounterVec
}

// NewMetrics creates and registers every collector, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teller",
			Name:      "predictions_total",
			Help:      "Complaints classified, by dataset, model variant and decoded category.",
		}, []string{"dataset", "variant", "category"}),
		emptyInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teller",
			Name:      "empty_inputs_total",
			Help:      "Complaints that normalized to no usable content.",
		}, []string{"dataset"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teller",
			Name:      "classify_errors_total",
			Help:      "Classification requests that failed, by error code.",
		}, []string{"code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teller",
			Name:      "classify_duration_seconds",
			Help:      "Time spent classifying one complaint, artifact loading included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"dataset", "variant"}),
		artifactLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teller",
			Name:      "artifact_loads_total",
			Help:      "Artifact loads from storage, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teller",
			Name:      "artifact_load_duration_seconds",
			Help:      "Time spent loading one artifact from storage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teller",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"route", "status"}),
	}
	m.registry.MustRegister(
		m.predictions, m.emptyInputs, m.failures, m.latency,
		m.artifactLoads, m.loadDuration, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveLoad records one artifact load. Its signature matches
// artifact.Observer so it can be passed to artifact.WithObserver.
func (m *Metrics) ObserveLoad(key artifact.Key, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.artifactLoads.WithLabelValues(string(key.Kind), outcome).Inc()
	m.loadDuration.WithLabelValues(string(key.Kind)).Observe(d.Seconds())
}

func (m *Metrics) observePrediction(p model.Prediction, d time.Duration) {
	ds := strconv.Itoa(int(p.Dataset))
	m.predictions.WithLabelValues(ds, string(p.ModelUsed), p.Category).Inc()
	m.latency.WithLabelValues(ds, string(p.ModelUsed)).Observe(d.Seconds())
}

func (m *Metrics) observeEmpty(ds model.Dataset) {
	m.emptyInputs.WithLabelValues(strconv.Itoa(int(ds))).Inc()
}

func (m *Metrics) observeFailure(code string) {
	m.failures.WithLabelValues(code).Inc()
}

func (m *Metrics) observeRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
