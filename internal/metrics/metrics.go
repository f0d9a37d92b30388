package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventify/internal/reservation"
)

// Metrics holds the service collectors. It also observes reservation
// sessions, so it can be passed to reservation.WithObserver.
type Metrics struct {
	registry *prometheus.Registry

	SeatRejections   *prometheus.CounterVec
	DiscardedResults *prometheus.CounterVec
	Bookings         *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SeatRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "seat_rejections_total",
			Help:      "Seat selection operations ignored, by operation and reason.",
		}, []string{"op", "reason"}),
		DiscardedResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "discarded_results_total",
			Help:      "Asynchronous results dropped because a newer request superseded them.",
		}, []string{"op"}),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "bookings_total",
			Help:      "Booking lifecycle transitions, by resulting status.",
		}, []string{"status"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventify",
			Name:      "active_sessions",
			Help:      "Reservation sessions currently held in memory.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eventify",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		m.SeatRejections,
		m.DiscardedResults,
		m.Bookings,
		m.ActiveSessions,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SeatRejected implements reservation.Observer.
func (m *Metrics) SeatRejected(r reservation.Rejection) {
	m.SeatRejections.WithLabelValues(r.Op, string(r.Reason)).Inc()
}

// ResultDiscarded implements reservation.Observer.
func (m *Metrics) ResultDiscarded(_ string, op reservation.OpKind) {
	m.DiscardedResults.WithLabelValues(op.String()).Inc()
}

func (m *Metrics) BookingTransition(status string) {
	m.Bookings.WithLabelValues(status).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
