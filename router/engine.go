package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/logharbour/logharbour"
	"github.com/remiges-tech/txnanalyzer/metrics"
)

// NewEngine returns a gin engine with the middleware chain in the order the
// timeout middleware relies on: logging, metrics, recovery, timeout. m may be
// nil, in which case no HTTP metrics are recorded.
func NewEngine(logger *logharbour.Logger, m metrics.Metrics, timeout time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(LogRequest(NewLogHarbourAdapter(logger)))
	if m != nil {
		RegisterHTTPMetrics(m)
		r.Use(RequestMetrics(m))
	}
	r.Use(gin.Recovery())
	if timeout > 0 {
		r.Use(TimeoutMiddleware(timeout))
	}
	return r
}
