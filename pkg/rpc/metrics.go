package rpc

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// RequestsTotal is the total number of inbound RPC requests carrying a
	// method name.
	RequestsTotal prometheus.Counter

	// ResponsesTotal is the total number of published RPC responses.
	ResponsesTotal prometheus.Counter

	// DroppedTotal is the total number of dispatches that did not produce
	// a published response, labelled by reason.
	DroppedTotal *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "edgelink",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total number of inbound RPC requests",
			},
		),
		ResponsesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "edgelink",
				Subsystem: "rpc",
				Name:      "responses_total",
				Help:      "Total number of published RPC responses",
			},
		),
		DroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edgelink",
				Subsystem: "rpc",
				Name:      "dropped_total",
				Help:      "Total number of dispatches without a published response",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.RequestsTotal,
		m.ResponsesTotal,
		m.DroppedTotal,
	)
}
