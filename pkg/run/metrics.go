package run

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/facet/pkg/spec"
)

// Registerer is the subset of prometheus.Registerer the coordinator
// needs; it keeps the option testable without a full registry.
type Registerer interface {
	MustRegister(...prometheus.Collector)
}

var _ Registerer = prometheus.Registerer(nil)

type metrics struct {
	runs      *prometheus.CounterVec
	emissions prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facet",
			Name:      "command_runs_total",
			Help:      "Command invocations by execution mode and outcome.",
		}, []string{"mode", "status"}),
		emissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facet",
			Name:      "emissions_total",
			Help:      "Emitted items resolved and routed to a view.",
		}),
	}
}

func (m *metrics) register(reg Registerer) {
	reg.MustRegister(m.runs, m.emissions)
}

func (m *metrics) observeRun(mode spec.Mode, status string) {
	m.runs.WithLabelValues(mode.String(), status).Inc()
}

func (m *metrics) observeEmission() {
	m.emissions.Inc()
}
