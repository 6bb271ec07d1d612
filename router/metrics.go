package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/txnanalyzer/metrics"
)

const (
	MetricHTTPRequests = "http_requests_total"
	MetricHTTPDuration = "http_request_duration_seconds"
)

// unmatchedRoute labels requests that matched no registered route, keeping
// label cardinality bounded.
const unmatchedRoute = "unmatched"

// RegisterHTTPMetrics registers the metrics recorded by RequestMetrics.
func RegisterHTTPMetrics(m metrics.Metrics) {
	m.RegisterWithLabels(MetricHTTPRequests, metrics.Counter, "HTTP requests by method, route and status", []string{"method", "route", "status"})
	m.RegisterWithLabels(MetricHTTPDuration, metrics.Histogram, "HTTP request duration in seconds", []string{"method", "route"})
}

// RequestMetrics records a request counter and duration per route. The
// metrics must have been registered with RegisterHTTPMetrics.
func RequestMetrics(m metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.RecordWithLabels(MetricHTTPRequests, 1, c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
		m.RecordWithLabels(MetricHTTPDuration, time.Since(start).Seconds(), c.Request.Method, route)
	}
}
