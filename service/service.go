// Package service bundles the gin engine with the components handlers need,
// so handlers receive one *Service instead of a growing parameter list.
//
//	s := service.NewService(engine).
//		WithLogger(logger).
//		WithConfig(&appConfig).
//		WithDependency(txnsvc.AnalyzerKey, a)
//	s.RegisterRoute(http.MethodPost, "/analyze-transactions", txnsvc.HandleAnalyzeTransactions)
package service

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/logharbour/logharbour"
	"github.com/remiges-tech/txnanalyzer/config"
	"github.com/remiges-tech/txnanalyzer/metrics"
)

// Dependencies is a map to hold arbitrary dependencies.
type Dependencies map[string]any

// Service holds the engine and the shared components. Values in Dependencies
// are untyped; use Dependency to fetch them.
type Service struct {
	Config       *config.AppConfig
	Router       *gin.Engine
	Logger       *logharbour.Logger
	Metrics      metrics.Metrics
	Dependencies Dependencies
}

func NewService(r *gin.Engine) *Service {
	return &Service{Router: r}
}

func (s *Service) WithConfig(c *config.AppConfig) *Service {
	s.Config = c
	return s
}

func (s *Service) WithLogger(l *logharbour.Logger) *Service {
	s.Logger = l
	return s
}

func (s *Service) WithMetrics(m metrics.Metrics) *Service {
	s.Metrics = m
	return s
}

// WithDependency is a method to inject an arbitrary dependency into the Service.
func (s *Service) WithDependency(key string, value any) *Service {
	if s.Dependencies == nil {
		s.Dependencies = make(Dependencies)
	}
	s.Dependencies[key] = value
	return s
}

// Dependency returns the dependency stored under key if it has type T.
func Dependency[T any](s *Service, key string) (T, bool) {
	v, ok := s.Dependencies[key].(T)
	return v, ok
}

// HandlerFunc is a function that handles a request.
type HandlerFunc func(*gin.Context, *Service)

// RegisterRoute registers handler on the service's engine. Methods other than
// GET, POST, PUT and DELETE are logged and ignored.
func (s *Service) RegisterRoute(method, path string, handler HandlerFunc) {
	wrapped := func(c *gin.Context) {
		handler(c, s)
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		s.Router.Handle(method, path, wrapped)
	default:
		log.Printf("Unsupported method: %s", method)
	}
}
