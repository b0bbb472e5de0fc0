package monitoring

import (
	"strconv"
	"sync"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"method", "endpoint"},
	)

	QuizzesEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forex_quizzes_evaluated_total",
			Help: "Quiz evaluations recorded, by level",
		},
		[]string{"level"},
	)

	LevelUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forex_level_ups_total",
			Help: "User level advancements, by new level",
		},
		[]string{"level"},
	)

	SkillXPAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forex_skill_xp_awarded_total",
			Help: "Total skill XP credited to users",
		},
	)

	MissionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forex_missions_completed_total",
			Help: "Daily missions reaching completed status, by type",
		},
		[]string{"mission_type"},
	)

	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forex_ai_requests_total",
			Help: "Calls to the text-generation backend",
		},
		[]string{"kind", "outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuizzesEvaluated,
			LevelUps,
			SkillXPAwarded,
			MissionsCompleted,
			AIRequests,
		)
	})
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
