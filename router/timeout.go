package router

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/txnanalyzer/wscutils"
)

// Context keys set by TimeoutMiddleware and read by LogRequest.
const (
	CtxKeyTimedOut           = "_request_timed_out"
	CtxKeyClientDisconnected = "_client_disconnected"
	CtxKeyPanicRecovered     = "_panic_recovered"
	CtxKeyPanicValue         = "_panic_value"
)

// headerWriter serialises writes from the handler goroutine and remembers
// whether a status line has gone out.
type headerWriter struct {
	gin.ResponseWriter
	mu          sync.Mutex
	wroteHeader bool
}

func (w *headerWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) WriteString(s string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wroteHeader = true
	return w.ResponseWriter.WriteString(s)
}

func (w *headerWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *headerWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}

func (w *headerWriter) written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wroteHeader
}

// TimeoutMiddleware cancels the request context after timeout. The handler
// runs in its own goroutine and is always waited for, so a response it writes
// late still wins. If it finishes without writing, the client gets 504
// request_timeout, or 500 internal if it panicked after the deadline. Nothing
// is written once the client has gone away.
//
// A panic before the deadline is re-raised on the calling goroutine, so
// gin.Recovery must be installed before this middleware.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		hw := &headerWriter{ResponseWriter: c.Writer}
		c.Writer = hw

		var abandoned atomic.Bool
		done := make(chan struct{}, 1)
		panicked := make(chan any, 1)

		go func() {
			defer func() {
				if p := recover(); p != nil {
					c.Set(CtxKeyPanicRecovered, true)
					c.Set(CtxKeyPanicValue, fmt.Sprintf("%v", p))
					if !abandoned.Load() {
						panicked <- p
					}
				}
				done <- struct{}{}
			}()
			c.Next()
		}()

		select {
		case p := <-panicked:
			panic(p)
		case <-done:
			select {
			case p := <-panicked:
				panic(p)
			default:
			}
			return
		case <-ctx.Done():
		}

		abandoned.Store(true)
		if ctx.Err() == context.DeadlineExceeded {
			c.Set(CtxKeyTimedOut, true)
		} else {
			c.Set(CtxKeyClientDisconnected, true)
		}

		<-done
		if hw.written() {
			return
		}
		if c.GetBool(CtxKeyClientDisconnected) {
			c.Abort()
			return
		}
		if c.GetBool(CtxKeyPanicRecovered) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, wscutils.ErrorResponse(wscutils.ErrcodeInternal))
			return
		}
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, wscutils.ErrorResponse(wscutils.ErrcodeRequestTimeout))
	}
}
