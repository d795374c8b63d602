// Package metrics exposes gateway counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "download_gateway"

// Metrics holds the collectors of one gateway instance. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	bytesRelayed  prometheus.Counter
	aborts        *prometheus.CounterVec
	selected      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Gateway operations by outcome code.",
		}, []string{"op", "code"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_lookups_total",
			Help:      "Metadata lookups sent to the provider.",
		}, []string{"provider", "result"}),
		bytesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_relayed_total",
			Help:      "Media bytes written to clients.",
		}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_failures_total",
			Help:      "Failed downloads by the phase they failed in.",
		}, []string{"phase"}),
		selected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selected_formats_total",
			Help:      "Formats picked for download by quality label.",
		}, []string{"quality"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.providerCalls,
		m.bytesRelayed,
		m.aborts,
		m.selected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Request counts one finished operation.
func (m *Metrics) Request(op, code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, code).Inc()
}

// ProviderLookup counts one metadata call to the named provider.
func (m *Metrics) ProviderLookup(provider string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.providerCalls.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) Relayed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesRelayed.Add(float64(n))
}

// StreamFailure counts a failed download. Phase is "before_body" or
// "after_body".
func (m *Metrics) StreamFailure(phase string) {
	if m == nil {
		return
	}
	m.aborts.WithLabelValues(phase).Inc()
}

func (m *Metrics) Selected(quality string) {
	if m == nil {
		return
	}
	m.selected.WithLabelValues(quality).Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
