package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sharedlist"

// Fetch outcomes
const (
	FetchApplied   = "applied"
	FetchDiscarded = "discarded"
	FetchFailed    = "failed"
)

// Metrics holds the client's counters on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	fetches    *prometheus.CounterVec
	feedEvents prometheus.Counter
	mutations  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "List fetches by outcome.",
		}, []string{"outcome"}),
		feedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Change feed notifications received.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutations by operation and result.",
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(m.fetches, m.feedEvents, m.mutations)
	return m
}

func (m *Metrics) FetchApplied()   { m.fetch(FetchApplied) }
func (m *Metrics) FetchDiscarded() { m.fetch(FetchDiscarded) }
func (m *Metrics) FetchFailed()    { m.fetch(FetchFailed) }

func (m *Metrics) fetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FeedEvent() {
	if m == nil {
		return
	}
	m.feedEvents.Inc()
}

// Mutation records one gateway call; result is "ok", "invalid", "unauthorized" or "error".
func (m *Metrics) Mutation(op, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

// Fetches returns the counter for outcome, for tests and status output.
func (m *Metrics) Fetches(outcome string) prometheus.Counter {
	return m.fetches.WithLabelValues(outcome)
}

func (m *Metrics) FeedEvents() prometheus.Counter {
	return m.feedEvents
}

func (m *Metrics) Mutations(op, result string) prometheus.Counter {
	return m.mutations.WithLabelValues(op, result)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
