package middleware

import (
	"context"
	"time"

	aws_pkg "marketplace-service/pkg/aws"

	"github.com/gin-gonic/gin"
)

// MetricsRecorder is the subset of aws_pkg.MetricsClient used here.
type MetricsRecorder interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// CloudWatchMetrics pushes request count, latency and error counts to
// CloudWatch. Publishing happens off the request path.
func CloudWatchMetrics(recorder MetricsRecorder, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil || !recorder.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Route":   route,
			"Status":  statusCodeToRange(statusCode),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = recorder.RecordCount(ctx, aws_pkg.MetricHTTPRequests, dimensions)
			_ = recorder.RecordLatency(ctx, aws_pkg.MetricHTTPLatency, duration, dimensions)

			switch {
			case statusCode >= 500:
				_ = recorder.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dimensions)
				_ = recorder.RecordCount(ctx, aws_pkg.MetricHTTP5xx, dimensions)
			case statusCode >= 400:
				_ = recorder.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dimensions)
				_ = recorder.RecordCount(ctx, aws_pkg.MetricHTTP4xx, dimensions)
			}
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
