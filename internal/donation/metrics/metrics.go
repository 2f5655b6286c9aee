package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation module.
type Metrics struct {
	DonationsInitiated prometheus.Counter
	DonationsSettled   *prometheus.CounterVec
	SettleDuration     prometheus.Histogram
}

// New creates a new Metrics instance with all donation module metrics registered.
func New() *Metrics {
	return &Metrics{
		DonationsInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givebridge_donations_initiated_total",
			Help: "Total number of donation orders created",
		}),
		DonationsSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "givebridge_donations_settled_total",
			Help: "Total number of settlement callbacks applied, by outcome",
		}, []string{"outcome"}),
		SettleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "givebridge_settle_duration_seconds",
			Help:    "Time spent applying a settlement callback",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementInitiated() {
	m.DonationsInitiated.Inc()
}

func (m *Metrics) IncrementSettled(outcome string) {
	m.DonationsSettled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSettleDuration(d time.Duration) {
	m.SettleDuration.Observe(d.Seconds())
}
