// Package metrics exposes Prometheus instrumentation for the flow engine.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the engine collectors. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	NodeVisits      *prometheus.CounterVec
	ActionDuration  *prometheus.HistogramVec
	ActionErrors    *prometheus.CounterVec
	Turns           *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
	Transfers       *prometheus.CounterVec
	EventDeliveries *prometheus.CounterVec
	SSEConnections  prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibot_node_visits_total",
			Help: "Nodes entered by the engine",
		}, []string{"kind"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "omnibot_action_duration_seconds",
			Help:    "External action call latency",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"action"}),
		ActionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibot_action_errors_total",
			Help: "External action calls that failed",
		}, []string{"action"}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibot_turns_total",
			Help: "Inbound messages processed, by response type",
		}, []string{"response"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "omnibot_turn_duration_seconds",
			Help:    "Time to process one inbound message",
			Buckets: prometheus.DefBuckets,
		}),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibot_transfers_total",
			Help: "Conversations handed to a human queue",
		}, []string{"queue"}),
		EventDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibot_event_deliveries_total",
			Help: "Event deliveries per sink and outcome",
		}, []string{"sink", "status"}),
		SSEConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "omnibot_sse_connections_active",
			Help: "Open SSE event streams",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "omnibot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.NodeVisits, m.ActionDuration, m.ActionErrors, m.Turns, m.TurnDuration,
		m.Transfers, m.EventDeliveries, m.SSEConnections, m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns engine lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(string(e.Kind)).Inc()
		},
		OnActionReturn: func(_ context.Context, e *domain.ActionEvent) {
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
			if e.IsError {
				m.ActionErrors.WithLabelValues(e.Action).Inc()
			}
		},
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			response := string(e.Response)
			if response == "" {
				response = "none"
			}
			m.Turns.WithLabelValues(response).Inc()
			m.TurnDuration.Observe(e.Duration.Seconds())
		},
		OnTransfer: func(_ context.Context, _ string, queue string) {
			m.Transfers.WithLabelValues(queue).Inc()
		},
	}
}

// ObserveDelivery records one dispatcher delivery outcome.
func (m *Metrics) ObserveDelivery(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventDeliveries.WithLabelValues(sink, status).Inc()
}
