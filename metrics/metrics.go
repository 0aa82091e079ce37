package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes recorded by ObserveBooking.
const (
	OutcomeBooked               = "booked"
	OutcomeInvalid              = "invalid"
	OutcomePractitionerConflict = "practitioner_conflict"
	OutcomePatientConflict      = "patient_conflict"
	OutcomeError                = "error"
)

// Notification dispatch statuses recorded by ObserveNotification.
const (
	NotificationPersisted = "persisted"
	NotificationDropped   = "dropped"
	NotificationFailed    = "failed"
	NotificationScheduled = "reminder_scheduled"
)

// BookingMetrics exposes counters/histograms for scheduling and notification flows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	bookingLatency     *prometheus.HistogramVec
	cancellationsTotal prometheus.Counter
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ayursutra",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Session booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ayursutra",
			Subsystem: "scheduling",
			Name:      "booking_duration_seconds",
			Help:      "Latency of session booking including lock wait",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ayursutra",
			Subsystem: "scheduling",
			Name:      "cancellations_total",
			Help:      "Sessions cancelled",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ayursutra",
			Subsystem: "notifications",
			Name:      "enqueued_total",
			Help:      "Booking notifications by dispatch status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.bookingLatency, m.cancellationsTotal, m.notificationsTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
	m.bookingLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

// ObserveNotification counts notification dispatches: persisted, dropped, failed.
func (m *BookingMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(status).Inc()
}
