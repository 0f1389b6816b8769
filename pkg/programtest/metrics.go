package programtest

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	transactions *prometheus.CounterVec
	instructions *prometheus.CounterVec
	computeUnits prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "programtest",
			Name:      "transactions_total",
			Help:      "number of processed transactions by result",
		}, []string{"result"}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "programtest",
			Name:      "instructions_total",
			Help:      "number of dispatched instructions by program",
		}, []string{"program"}),
		computeUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "programtest",
			Name:      "compute_units_consumed_total",
			Help:      "compute units consumed by processed transactions",
		}),
	}
	err := errors.Join(
		registerer.Register(m.transactions),
		registerer.Register(m.instructions),
		registerer.Register(m.computeUnits),
	)
	return m, err
}

func (m *metrics) recordTransaction(err error, computeUnits uint64) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.transactions.WithLabelValues(result).Inc()
	m.computeUnits.Add(float64(computeUnits))
}
