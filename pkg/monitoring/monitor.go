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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of model API calls",
		},
		[]string{"kind", "status"},
	)

	LLMTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total tokens consumed across generation calls",
		},
	)

	AgentInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_invocations_total",
			Help: "Agent invocations by kind and outcome",
		},
		[]string{"agent", "status"},
	)

	AgentIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_iterations",
			Help:    "Tool-calling loop iterations per agent invocation",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 40},
		},
		[]string{"agent"},
	)

	ToolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Tool invocations by tool name and outcome",
		},
		[]string{"tool", "status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(LLMRequests)
	prometheus.MustRegister(LLMTokens)
	prometheus.MustRegister(AgentInvocations)
	prometheus.MustRegister(AgentIterations)
	prometheus.MustRegister(ToolInvocations)
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
