package profiling

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	WebhooksReceived prometheus.Counter
	FieldsDefaulted  *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	PollTicks        *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry. historyLen and
// streamClients back gauges read at scrape time; either may be nil.
func NewMetrics(historyLen, streamClients func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhooksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eisplot_webhooks_received_total",
			Help: "Total number of spectra accepted on /webhook",
		}),
		FieldsDefaulted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eisplot_webhook_fields_defaulted_total",
			Help: "Mistyped webhook fields replaced by their default",
		}, []string{"field"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eisplot_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler", "code"}),
		PollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eisplot_poll_ticks_total",
			Help: "Poller ticks by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.WebhooksReceived,
		m.FieldsDefaulted,
		m.RequestDuration,
		m.PollTicks,
		collectors.NewGoCollector(),
	)
	if historyLen != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "eisplot_history_records",
			Help: "Number of records held in the ingest history",
		}, func() float64 { return float64(historyLen()) }))
	}
	if streamClients != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "eisplot_stream_clients",
			Help: "Number of connected websocket stream clients",
		}, func() float64 { return float64(streamClients()) }))
	}
	return m
}

// Handler returns an HTTP handler that exposes the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
