package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the claim pipeline.
// Tracks claim outcomes, registration latency and integrity alerts.
type Metrics struct {
	ClaimOutcomes        *prometheus.CounterVec
	ClaimDuration        prometheus.Histogram
	RegisterDuration     prometheus.Histogram
	EventsRegistered     prometheus.Counter
	OrphanedLedgerEvents prometheus.Counter
	UncommittedMints     prometheus.Counter
	StaleReservations    prometheus.Gauge
}

// New registers the claims metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ClaimOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_claim_outcomes_total",
			Help: "Claims by terminal outcome (recorded, pending or error code)",
		}, []string{"outcome"}),
		ClaimDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "presence_claim_duration_seconds",
			Help:    "Duration of claim requests including the bounded finality wait",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "presence_register_event_duration_seconds",
			Help:    "Duration of event registration including ledger finality",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		EventsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "presence_events_registered_total",
			Help: "Total number of events registered",
		}),
		OrphanedLedgerEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "presence_orphaned_ledger_events_total",
			Help: "Ledger events that were registered but could not be stored locally",
		}),
		UncommittedMints: f.NewCounter(prometheus.CounterOpts{
			Name: "presence_uncommitted_mints_total",
			Help: "Badges minted on the ledger whose claim record could not be committed",
		}),
		StaleReservations: f.NewGauge(prometheus.GaugeOpts{
			Name: "presence_stale_reservations",
			Help: "Pending claim reservations past their expiry",
		}),
	}
}

func (m *Metrics) ObserveClaim(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.ClaimOutcomes.WithLabelValues(outcome).Inc()
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementEventsRegistered() {
	if m != nil {
		m.EventsRegistered.Inc()
	}
}

func (m *Metrics) IncrementOrphanedLedgerEvents() {
	if m != nil {
		m.OrphanedLedgerEvents.Inc()
	}
}

func (m *Metrics) IncrementUncommittedMints() {
	if m != nil {
		m.UncommittedMints.Inc()
	}
}

func (m *Metrics) SetStaleReservations(n int) {
	if m != nil {
		m.StaleReservations.Set(float64(n))
	}
}
