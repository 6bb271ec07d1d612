package service_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/txnanalyzer/config"
	"github.com/remiges-tech/txnanalyzer/metrics"
	"github.com/remiges-tech/txnanalyzer/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWithConfig(t *testing.T) {
	cfg := &config.AppConfig{AppServerPort: 3000}
	m := metrics.NewPrometheusMetrics()

	s := service.NewService(nil).WithConfig(cfg).WithMetrics(m)

	assert.Same(t, cfg, s.Config)
	assert.Same(t, m, s.Metrics)
}

func TestDependency(t *testing.T) {
	s := service.NewService(nil).
		WithDependency("answer", 42).
		WithDependency("name", "txn")

	n, ok := service.Dependency[int](s, "answer")
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = service.Dependency[int](s, "name")
	assert.False(t, ok, "wrong type")

	_, ok = service.Dependency[string](s, "missing")
	assert.False(t, ok)
}

func TestRegisterRoute(t *testing.T) {
	s := service.NewService(gin.New()).WithDependency("greeting", "hello")

	s.RegisterRoute(http.MethodGet, "/hello", func(c *gin.Context, s *service.Service) {
		g, _ := service.Dependency[string](s, "greeting")
		c.String(http.StatusOK, g)
	})
	s.RegisterRoute(http.MethodPatch, "/ignored", func(c *gin.Context, s *service.Service) {})

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hello", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())

	w = httptest.NewRecorder()
	s.Router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/ignored", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
