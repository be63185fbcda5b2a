package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus_marketplace",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by service type.",
		},
		[]string{"service_type"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus_marketplace",
			Name:      "booking_transition_total",
			Help:      "Count of applied booking status transitions by target status.",
		},
		[]string{"status"},
	)

	transitionConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campus_marketplace",
			Name:      "booking_transition_conflict_total",
			Help:      "Count of status or payment updates that lost a concurrent race.",
		},
	)

	paymentRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus_marketplace",
			Name:      "payment_recorded_total",
			Help:      "Count of bookings marked paid by source.",
		},
		[]string{"source"},
	)

	revenueDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "campus_marketplace",
			Name:      "revenue_summary_duration_seconds",
			Help:      "Time spent computing an owner revenue summary.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingTransition, transitionConflict, paymentRecorded, revenueDuration)
	})
}

func IncBookingCreated(serviceType string) {
	bookingCreated.WithLabelValues(serviceType).Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func IncTransitionConflict() {
	transitionConflict.Inc()
}

func IncPaymentRecorded(source string) {
	paymentRecorded.WithLabelValues(source).Inc()
}

func ObserveRevenueSummary(d time.Duration) {
	revenueDuration.Observe(d.Seconds())
}
