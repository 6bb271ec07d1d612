// Package router holds the gin middleware shared by the service: request
// logging through logharbour, a per-request timeout, HTTP metrics, and the
// engine builder that installs them in the right order.
//
//	logger := logger.New("txnanalyzer", "info", os.Stdout)
//	engine := router.NewEngine(logger, promMetrics, 60*time.Second)
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/remiges-tech/logharbour/logharbour"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// CtxKeyRequestID is the gin context key holding the request ID.
const CtxKeyRequestID = "_request_id"

// RequestInfo is what LogRequest captures about one request.
type RequestInfo struct {
	RequestID          string        `json:"request_id"`
	Method             string        `json:"method"`
	Path               string        `json:"path"`
	Route              string        `json:"route,omitempty"`
	ClientIP           string        `json:"client_ip"`
	StatusCode         int           `json:"status_code"`
	StartTime          time.Time     `json:"start_time"`
	Duration           time.Duration `json:"duration"`
	RequestSize        int64         `json:"request_size"`
	ResponseSize       int64         `json:"response_size"`
	UserAgent          string        `json:"user_agent,omitempty"`
	TimedOut           bool          `json:"timed_out,omitempty"`
	ClientDisconnected bool          `json:"client_disconnected,omitempty"`
	PanicRecovered     bool          `json:"panic_recovered,omitempty"`
	PanicValue         string        `json:"panic_value,omitempty"`
}

// RequestLogger receives one RequestInfo per completed request.
type RequestLogger interface {
	Log(info RequestInfo)
}

// RequestID returns the ID LogRequest assigned to the request, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(CtxKeyRequestID)
}

// LogRequest returns a middleware that assigns a request ID and logs a single
// entry once the rest of the chain has finished. A client-supplied
// X-Request-ID is kept; otherwise a UUID is generated.
func LogRequest(logger RequestLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxKeyRequestID, id)
		c.Header(HeaderRequestID, id)

		c.Next()

		info := RequestInfo{
			RequestID:    id,
			Method:       c.Request.Method,
			Path:         c.Request.URL.Path,
			Route:        c.FullPath(),
			ClientIP:     c.ClientIP(),
			StatusCode:   c.Writer.Status(),
			StartTime:    start.UTC(),
			Duration:     time.Since(start),
			RequestSize:  c.Request.ContentLength,
			ResponseSize: int64(c.Writer.Size()),
			UserAgent:    c.Request.UserAgent(),
		}
		info.TimedOut = c.GetBool(CtxKeyTimedOut)
		info.ClientDisconnected = c.GetBool(CtxKeyClientDisconnected)
		info.PanicRecovered = c.GetBool(CtxKeyPanicRecovered)
		info.PanicValue = c.GetString(CtxKeyPanicValue)

		logger.Log(info)
	}
}

// LogHarbourAdapter writes RequestInfo as a logharbour activity log.
type LogHarbourAdapter struct {
	logger *logharbour.Logger
}

func NewLogHarbourAdapter(logger *logharbour.Logger) *LogHarbourAdapter {
	return &LogHarbourAdapter{logger: logger}
}

func (a *LogHarbourAdapter) Log(info RequestInfo) {
	l := a.logger.WithModule("http").
		WithOp("request").
		WithRemoteIP(info.ClientIP).
		WithClass(info.Method).
		WithInstanceId(info.RequestID).
		WithStatus(statusOf(info.StatusCode))

	data := map[string]any{
		"request_id":    info.RequestID,
		"method":        info.Method,
		"path":          info.Path,
		"status":        info.StatusCode,
		"start_time":    info.StartTime.Format(time.RFC3339),
		"duration_ms":   info.Duration.Milliseconds(),
		"request_size":  info.RequestSize,
		"response_size": info.ResponseSize,
	}
	if info.Route != "" {
		data["route"] = info.Route
	}
	if info.UserAgent != "" {
		data["user_agent"] = info.UserAgent
	}
	if info.TimedOut {
		data["timed_out"] = true
	}
	if info.ClientDisconnected {
		data["client_disconnected"] = true
	}
	if info.PanicRecovered {
		data["panic_recovered"] = true
		data["panic_value"] = info.PanicValue
	}

	if info.StatusCode >= 500 {
		l.Warn().LogActivity("HTTP request failed", data)
		return
	}
	l.Info().LogActivity("HTTP request completed", data)
}

func statusOf(code int) logharbour.Status {
	if code >= 200 && code < 400 {
		return logharbour.Success
	}
	return logharbour.Failure
}
