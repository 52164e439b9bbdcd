package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Round-trip kinds
const (
	KindUpload = "upload"
	KindQuery  = "query"
)

// Round-trip outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)

// Recorder collects round-trip metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	settled   *prometheus.CounterVec
}

// New creates a recorder backed by its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfinsight_remote_requests_total",
			Help: "Remote service calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfinsight_remote_request_duration_seconds",
			Help:    "Remote service call latency.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfinsight_round_trips_total",
			Help: "Round-trips settled against the conversation log by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(r.requests, r.durations, r.settled)
	return r
}

// ObserveRequest records one remote call
func (r *Recorder) ObserveRequest(kind string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.requests.WithLabelValues(kind, outcome).Inc()
	r.durations.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveSettled records how a round-trip was applied to the conversation
func (r *Recorder) ObserveSettled(kind, outcome string) {
	if r == nil {
		return
	}
	r.settled.WithLabelValues(kind, outcome).Inc()
}

// RegisterGauge exposes a value computed at scrape time
func (r *Recorder) RegisterGauge(name, help string, fn func() float64) {
	if r == nil {
		return
	}
	r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, fn))
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
