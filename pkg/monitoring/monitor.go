package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	ObservationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_observations_total",
			Help: "Performance observations applied to learner profiles",
		},
		[]string{"skill"},
	)

	ObservationRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_observation_rejected_total",
			Help: "Performance observations rejected by validation",
		},
	)

	RecommendationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_recommendations_total",
			Help: "Ranked recommendation lists produced, by content kind",
		},
		[]string{"kind"},
	)

	RecommendationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_recommendation_duration_seconds",
			Help:    "Time spent scoring and ranking a catalog",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	BackendFallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_backend_fallback_total",
			Help: "Position store operations served from the local fallback",
		},
		[]string{"op"},
	)
)

func Init() {
	prometheus.MustRegister(
		RequestCounter,
		RequestDuration,
		ObservationCounter,
		ObservationRejected,
		RecommendationCounter,
		RecommendationDuration,
		BackendFallbackCounter,
	)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
