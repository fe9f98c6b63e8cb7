package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	catalogSourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "source_failures_total",
			Help:      "Catalog source queries that failed or timed out and were excluded from the result.",
		},
		[]string{"source"},
	)

	catalogCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cache_lookups_total",
			Help:      "Catalog cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	moderationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "transitions_total",
			Help:      "Moderation actions by entity and outcome.",
		},
		[]string{"entity", "action", "outcome"},
	)

	credentialCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seller",
			Name:      "credential_collisions_total",
			Help:      "Credential sets rejected by the unique indexes and regenerated.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		catalogSourceFailures,
		catalogCacheLookups,
		moderationTransitions,
		credentialCollisions,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency keyed by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func CatalogSourceFailed(source string) {
	catalogSourceFailures.WithLabelValues(source).Inc()
}

func CatalogCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	catalogCacheLookups.WithLabelValues(outcome).Inc()
}

// ModerationTransition counts an admin action; outcome is "applied" or "conflict".
func ModerationTransition(entity, action, outcome string) {
	moderationTransitions.WithLabelValues(entity, action, outcome).Inc()
}

func CredentialCollision() {
	credentialCollisions.Inc()
}
