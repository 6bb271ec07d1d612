package analyzer

import (
	"errors"
	"time"

	"github.com/remiges-tech/txnanalyzer/metrics"
)

// Metric names recorded by the analyzer.
const (
	MetricRuns        = "txn_analyzer_runs_total"
	MetricRows        = "txn_analyzer_rows_total"
	MetricRowsSkipped = "txn_analyzer_rows_skipped_total"
	MetricRunDuration = "txn_analyzer_run_duration_seconds"
)

// Run outcomes used as the "outcome" label of MetricRuns.
const (
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeUnreadable = "unreadable"
	OutcomeCanceled   = "canceled"
	OutcomeFailed     = "failed"
)

// RegisterMetrics registers the analyzer's metrics on m.
func RegisterMetrics(m metrics.Metrics) {
	m.RegisterWithLabels(MetricRuns, metrics.Counter, "CSV analysis runs by outcome", []string{"outcome"})
	m.Register(MetricRows, metrics.Counter, "CSV data rows read")
	m.RegisterWithLabels(MetricRowsSkipped, metrics.Counter, "CSV data rows skipped by reason", []string{"reason"})
	m.Register(MetricRunDuration, metrics.Histogram, "Duration of CSV analysis runs in seconds")
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrEmptyInput):
		return OutcomeEmpty
	case errors.Is(err, ErrStreamUnreadable):
		return OutcomeUnreadable
	case errors.Is(err, ErrCanceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

func (a *Analyzer) observeRun(err error, d time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordWithLabels(MetricRuns, 1, outcomeOf(err))
	a.metrics.Record(MetricRunDuration, d.Seconds())
}

func (a *Analyzer) recordRow() {
	if a.metrics != nil {
		a.metrics.Record(MetricRows, 1)
	}
}

func (a *Analyzer) recordSkip(reason SkipReason) {
	if a.metrics != nil {
		a.metrics.RecordWithLabels(MetricRowsSkipped, 1, string(reason))
	}
}
