package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gate module: admissions, completed
// registrations, timeouts, and how long a registration dialogue takes.
type Metrics struct {
	JoinsAdmitted        prometheus.Counter
	Registrations        prometheus.Counter
	Evictions            prometheus.Counter
	Cancellations        prometheus.Counter
	ValidationFailures   prometheus.Counter
	RegistrationDuration prometheus.Histogram
}

// New creates and registers all gate metrics.
func New() *Metrics {
	return &Metrics{
		JoinsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_joins_admitted_total",
			Help: "Total number of users placed behind the gate on join",
		}),
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_registrations_total",
			Help: "Total number of registrations completed",
		}),
		Evictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_evictions_total",
			Help: "Total number of users evicted for registration timeout",
		}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_cancellations_total",
			Help: "Total number of registrations cancelled explicitly",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_validation_failures_total",
			Help: "Total number of rejected step answers",
		}),
		RegistrationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatekeeper_registration_duration_seconds",
			Help:    "Time from dialogue start to completed registration",
			Buckets: []float64{5, 10, 20, 30, 60, 90, 120, 180},
		}),
	}
}

// ObserveRegistration records a completed registration and its duration.
func (m *Metrics) ObserveRegistration(start, end time.Time) {
	m.Registrations.Inc()
	m.RegistrationDuration.Observe(end.Sub(start).Seconds())
}
