package collection

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Mutations       *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_mutations_total",
				Help: "Collection mutations by operation and whether they changed state",
			},
			[]string{"op", "changed"},
		),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_persist_failures_total",
				Help: "Collection writes that failed to reach the store",
			},
			[]string{"record"},
		),
	}
	reg.MustRegister(m.Mutations, m.PersistFailures)
	return m
}

func (m *Metrics) observe(op string, changed bool) {
	if m == nil {
		return
	}
	c := "false"
	if changed {
		c = "true"
	}
	m.Mutations.WithLabelValues(op, c).Inc()
}

func (m *Metrics) persistFailed(record string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(record).Inc()
}
