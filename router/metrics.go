package router

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	operationDuration *prometheus.HistogramVec
	operations        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "amm",
				Subsystem: "router",
				Name:      "operation_duration_seconds",
				Help:      "Time spent executing one router operation.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "amm",
				Subsystem: "router",
				Name:      "operations_total",
				Help:      "Router operations by name and outcome.",
			},
			[]string{"op", "outcome"},
		),
	}
	reg.MustRegister(m.operationDuration, m.operations)
	return m
}

// observe starts timing an operation and returns the completion callback.
func (m *metrics) observe(op string) func(error) {
	timer := prometheus.NewTimer(m.operationDuration.WithLabelValues(op))
	return func(err error) {
		timer.ObserveDuration()
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.operations.WithLabelValues(op, outcome).Inc()
	}
}
