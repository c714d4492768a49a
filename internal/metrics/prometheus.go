package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ViewDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safety_view_prepare_duration_seconds",
			Help:    "View preparation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"view"},
	)

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_dashboard_events_total",
			Help: "Total dashboard interaction events processed",
		},
		[]string{"type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_view_cache_requests_total",
			Help: "View cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "safety_dashboard_sessions_active",
			Help: "Currently connected dashboard sessions",
		},
	)

	DatasetRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "safety_dataset_records",
			Help: "Incident records in the loaded dataset",
		},
	)
)

func Init() {
	prometheus.MustRegister(ViewDuration)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(DatasetRecords)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
