package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rfbooking/rfbooking/internal/health"
)

var (
	// Booking metrics

	BookingsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "bookings_created_total",
		Help:      "Total bookings created.",
	})

	BookingConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "booking_conflicts_total",
		Help:      "Total booking attempts rejected for overlapping an existing booking.",
	})

	BookingsCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "bookings_cancelled_total",
		Help:      "Total bookings cancelled.",
	})

	// Notification metrics

	NotificationsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "notifications_processed_total",
		Help:      "Notification sweep outcomes, by status.",
	}, []string{"status"})

	NotificationSweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rfbooking",
		Name:      "notification_sweep_duration_seconds",
		Help:      "Time taken for one notification sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	// Cron metrics

	CronRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "cron_runs_total",
		Help:      "Cron job runs, by job and outcome.",
	}, []string{"job", "status"})

	CronRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rfbooking",
		Name:      "cron_run_duration_seconds",
		Help:      "Duration of cron job runs.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"job"})

	// AI metrics

	AIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "ai_requests_total",
		Help:      "AI recommender requests, by outcome.",
	}, []string{"outcome"})

	AIRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rfbooking",
		Name:      "ai_request_duration_seconds",
		Help:      "Latency of language model calls.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rfbooking",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rfbooking",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		BookingsCreatedTotal,
		BookingConflictsTotal,
		BookingsCancelledTotal,
		NotificationsProcessedTotal,
		NotificationSweepDuration,
		CronRunsTotal,
		CronRunDuration,
		AIRequestsTotal,
		AIRequestDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
