// Package txnsvc exposes the transaction analyzer over HTTP.
package txnsvc

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/txnanalyzer/analyzer"
	"github.com/remiges-tech/txnanalyzer/router"
	"github.com/remiges-tech/txnanalyzer/service"
	"github.com/remiges-tech/txnanalyzer/upload"
	"github.com/remiges-tech/txnanalyzer/wscutils"
)

// Dependency keys expected on the service.
const (
	AnalyzerKey = "analyzer"
	ReceiverKey = "receiver"
)

// FileField is the multipart field carrying the CSV file.
const FileField = "file"

const (
	PathAnalyzeTransactions = "/analyze-transactions"
	PathHealth              = "/health"
)

// Register installs the service's routes. The metrics route is added when the
// service carries a config, at its MetricsPath.
func Register(s *service.Service) {
	s.RegisterRoute(http.MethodPost, PathAnalyzeTransactions, HandleAnalyzeTransactions)
	s.RegisterRoute(http.MethodGet, PathHealth, HandleHealth)
	if s.Config != nil {
		s.RegisterRoute(http.MethodGet, s.Config.MetricsPath, HandleMetrics)
	}
}

// HandleAnalyzeTransactions receives a CSV upload, analyzes it and replies
// with the summary in the data field of the standard envelope. The uploaded
// file is removed before the handler returns.
func HandleAnalyzeTransactions(c *gin.Context, s *service.Service) {
	lh := s.Logger.WithModule("txnsvc").WithOp("analyze_transactions").WithInstanceId(router.RequestID(c))

	a, okA := service.Dependency[*analyzer.Analyzer](s, AnalyzerKey)
	rcv, okR := service.Dependency[*upload.Receiver](s, ReceiverKey)
	if !okA || !okR {
		lh.Error(errors.New("service is missing analyzer or receiver")).LogActivity("Misconfigured service", nil)
		sendError(c, http.StatusInternalServerError, wscutils.ErrcodeInternal, nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, rcv.MaxBodyBytes())
	f, err := rcv.Receive(c.Request, FileField)
	if err != nil {
		lh.Info().LogActivity("Upload rejected", map[string]any{"error": err.Error()})
		sendUploadError(c, err, rcv.MaxBytes())
		return
	}
	defer func() {
		if err := f.Remove(); err != nil {
			lh.Error(err).LogActivity("Error deleting uploaded file", map[string]any{"path": f.Path})
		}
	}()

	lh.Debug0().LogActivity("Analyzing upload", map[string]any{"file": f.Name, "size": f.Size})

	ctx := c.Request.Context()
	res, err := a.AnalyzeFile(ctx, f.Path)
	if err != nil {
		lh.Error(err).LogActivity("Error analyzing CSV", map[string]any{"file": f.Name})
		sendAnalyzeError(ctx, c, err)
		return
	}

	lh.Info().LogActivity("CSV analyzed", map[string]any{
		"file":         f.Name,
		"rows_read":    res.Stats.RowsRead,
		"rows_skipped": res.Stats.Skipped(),
		"users":        len(res.Summary),
	})
	wscutils.SendSuccessResponse(c, wscutils.NewSuccessResponse(res))
}

func sendUploadError(c *gin.Context, err error, maxBytes int64) {
	field := FileField
	switch {
	case errors.Is(err, upload.ErrNoFile):
		sendError(c, http.StatusBadRequest, ErrcodeFileRequired, &field)
	case errors.Is(err, upload.ErrFileType):
		sendError(c, http.StatusBadRequest, ErrcodeInvalidFileType, &field)
	case errors.Is(err, upload.ErrTooLarge):
		sendError(c, http.StatusRequestEntityTooLarge, ErrcodeFileTooLarge, &field, strconv.FormatInt(maxBytes, 10))
	default:
		sendError(c, http.StatusBadRequest, ErrcodeMalformedUpload, nil)
	}
}

func sendAnalyzeError(ctx context.Context, c *gin.Context, err error) {
	switch {
	case errors.Is(err, analyzer.ErrEmptyInput):
		sendError(c, http.StatusBadRequest, ErrcodeEmptyFile, nil)
	case errors.Is(err, analyzer.ErrStreamUnreadable):
		sendError(c, http.StatusInternalServerError, ErrcodeFileUnreadable, nil)
	case errors.Is(err, analyzer.ErrCanceled):
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			sendError(c, http.StatusGatewayTimeout, wscutils.ErrcodeRequestTimeout, nil)
			return
		}
		// The client has gone away.
		c.Abort()
	default:
		sendError(c, http.StatusInternalServerError, ErrcodeProcessingFailed, nil)
	}
}

type health struct {
	Status string `json:"status"`
}

// HandleHealth reports that the process is serving requests.
func HandleHealth(c *gin.Context, s *service.Service) {
	wscutils.SendSuccessResponse(c, wscutils.NewSuccessResponse(health{Status: "ok"}))
}

// exporter is implemented by metrics backends that can serve a scrape
// endpoint, such as metrics.PrometheusMetrics.
type exporter interface {
	Handler() http.Handler
}

// HandleMetrics serves the service's metrics in the backend's exposition
// format.
func HandleMetrics(c *gin.Context, s *service.Service) {
	exp, ok := s.Metrics.(exporter)
	if !ok {
		sendError(c, http.StatusNotFound, wscutils.ErrcodeUnknown, nil)
		return
	}
	exp.Handler().ServeHTTP(c.Writer, c.Request)
}
