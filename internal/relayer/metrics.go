package relayer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks relayer queueing, submission outcomes and time to finality.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	QueueDepth       prometheus.Gauge
	Submissions      *prometheus.CounterVec
	FinalityDuration *prometheus.HistogramVec
	CircuitOpen      prometheus.Gauge
}

// NewMetrics registers relayer metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "presence_relayer_queue_depth",
			Help: "Transactions waiting for the relayer worker",
		}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_relayer_submissions_total",
			Help: "Relayed transactions by type and outcome",
		}, []string{"type", "outcome"}),
		FinalityDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "presence_relayer_finality_seconds",
			Help:    "Time from broadcast to inclusion in a committed block",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34, 60, 120},
		}, []string{"type"}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "presence_relayer_circuit_open",
			Help: "1 while the ledger circuit breaker is open",
		}),
	}
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) incOutcome(txType, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(txType, outcome).Inc()
}

func (m *Metrics) observeFinality(txType string, start time.Time) {
	if m == nil {
		return
	}
	m.FinalityDuration.WithLabelValues(txType).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
