// Package analyzer aggregates per-user credit and debit totals from a CSV
// stream of transactions and picks the user with the highest running total.
//
// Rows are pulled one at a time from the stream; memory grows with the number
// of distinct users, not with the number of rows. Rows that fail validation
// are logged and dropped without failing the run.
package analyzer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/remiges-tech/logharbour/logharbour"
	"github.com/remiges-tech/txnanalyzer/metrics"
	"github.com/shopspring/decimal"
)

const moduleName = "analyzer"

// Analyzer runs analyses. It keeps no per-run state and is safe for
// concurrent use.
type Analyzer struct {
	logger   *logharbour.Logger
	metrics  metrics.Metrics
	validate *validator.Validate
}

// New returns an Analyzer that logs diagnostics to logger. m may be nil; when
// it is not, the analyzer's metrics are registered on it.
func New(logger *logharbour.Logger, m metrics.Metrics) *Analyzer {
	if m != nil {
		RegisterMetrics(m)
	}
	return &Analyzer{
		logger:   logger.WithModule(moduleName),
		metrics:  m,
		validate: validator.New(),
	}
}

// run holds the state of a single analysis.
type run struct {
	summary map[string]*UserSummary
	totals  map[string]decimal.Decimal
	order   []string // user ids in first-seen order
	stats   Stats
}

func newRun() *run {
	return &run{
		summary: make(map[string]*UserSummary),
		totals:  make(map[string]decimal.Decimal),
		stats:   Stats{RowsSkipped: make(map[SkipReason]int)},
	}
}

func (r *run) add(txn Transaction) {
	s, seen := r.summary[txn.UserID]
	if !seen {
		s = &UserSummary{Credit: decimal.Zero, Debit: decimal.Zero}
		r.summary[txn.UserID] = s
		r.totals[txn.UserID] = decimal.Zero
		r.order = append(r.order, txn.UserID)
	}
	switch txn.Type {
	case Credit:
		s.Credit = s.Credit.Add(txn.Amount)
	case Debit:
		s.Debit = s.Debit.Add(txn.Amount)
	}
	r.totals[txn.UserID] = r.totals[txn.UserID].Add(txn.Amount)
}

// result reduces the run to its summary and top user. The threshold starts at
// zero, so a user whose total is zero or negative never becomes the top user.
// Users are scanned in first-seen order and only a strictly greater total
// replaces the current maximum.
func (r *run) result() Result {
	summary := make(map[string]UserSummary, len(r.summary))
	for id, s := range r.summary {
		summary[id] = *s
	}

	var top *TopUser
	best := decimal.Zero
	for _, id := range r.order {
		total := r.totals[id]
		if total.GreaterThan(best) {
			best = total
			top = &TopUser{UserID: id, TotalAmount: total}
		}
	}

	return Result{
		Summary:                summary,
		HighestTransactionUser: top,
		Stats:                  r.stats,
	}
}

// Analyze consumes src to the end and returns the aggregated result.
//
// It fails with ErrEmptyInput when src holds no data rows, ErrStreamUnreadable
// when src cannot be read, ErrCanceled when ctx is done before the stream is
// exhausted, and ErrProcessing for anything else that prevents a result.
// Analyze does not close src.
func (a *Analyzer) Analyze(ctx context.Context, src io.Reader) (res Result, err error) {
	start := time.Now()
	lh := a.logger.WithOp("analyze")

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrProcessing, p)
			res = Result{}
			lh.Error(err).LogActivity("Unexpected failure while analyzing CSV", nil)
		}
		a.observeRun(err, time.Since(start))
	}()

	if src == nil {
		return Result{}, fmt.Errorf("%w: no input stream", ErrStreamUnreadable)
	}

	// With lazy quotes and a variable field count the reader reports no
	// csv.ParseError, so any read error is a stream failure.
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Result{}, a.headerError(ctx, lh, err)
	}
	cols := indexHeader(header)

	lh.Debug0().LogActivity("Analyzing CSV stream", map[string]any{"header": header})

	r := newRun()
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			lh.Warn().LogActivity("Analysis canceled", map[string]any{"rows": r.stats.RowsRead})
			return Result{}, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
		}

		record, readErr := cr.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
			}
			lh.Error(readErr).LogActivity("Error reading CSV stream", map[string]any{"rows": r.stats.RowsRead})
			return Result{}, fmt.Errorf("%w: %w", ErrStreamUnreadable, readErr)
		}

		r.stats.RowsRead++
		a.recordRow()
		a.processRow(lh, r, cols, record)
	}

	if r.stats.RowsRead == 0 {
		lh.Warn().LogActivity("CSV has no data rows", nil)
		return Result{}, ErrEmptyInput
	}

	res = r.result()
	lh.Info().LogActivity("CSV analysis completed", map[string]any{
		"rows":     res.Stats.RowsRead,
		"skipped":  res.Stats.Skipped(),
		"users":    len(res.Summary),
		"duration": time.Since(start).String(),
	})
	return res, nil
}

// AnalyzeFile opens path and analyzes its contents. The file is closed when
// the run ends, and as soon as ctx is done so that a blocked read returns.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		a.logger.WithOp("analyze").Error(err).LogActivity("Unable to open CSV file", map[string]any{"path": path})
		a.observeRun(ErrStreamUnreadable, 0)
		return Result{}, fmt.Errorf("%w: %w", ErrStreamUnreadable, err)
	}
	defer f.Close()

	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	return a.Analyze(ctx, f)
}

func (a *Analyzer) headerError(ctx context.Context, lh *logharbour.Logger, err error) error {
	if err == io.EOF {
		lh.Warn().LogActivity("CSV stream is empty", nil)
		return ErrEmptyInput
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
	}
	lh.Error(err).LogActivity("Error reading CSV stream", nil)
	return fmt.Errorf("%w: %w", ErrStreamUnreadable, err)
}

// processRow validates one record and folds it into r. Validation runs in a
// fixed order: required fields, then amount, then type. A panic is contained
// to the row.
func (a *Analyzer) processRow(lh *logharbour.Logger, r *run, cols columns, record []string) {
	defer func() {
		if p := recover(); p != nil {
			a.skip(lh, r, ReasonRowError, map[string]any{"error": fmt.Sprint(p)})
		}
	}()

	row := cols.row(record)

	if missing := missingFields(a.validate, row); len(missing) > 0 {
		a.skip(lh, r, ReasonMissingFields, map[string]any{"fields": missing})
		return
	}

	amount, err := parseAmount(row.Amount)
	if err != nil {
		a.skip(lh, r, ReasonInvalidAmount, nil)
		return
	}

	txnType, ok := normalizeType(row.Type)
	if !ok {
		a.skip(lh, r, ReasonInvalidType, nil)
		return
	}

	r.add(Transaction{
		TransactionID: row.TransactionID,
		UserID:        row.UserID,
		Date:          row.Date,
		Amount:        amount,
		Type:          txnType,
	})
}

func (a *Analyzer) skip(lh *logharbour.Logger, r *run, reason SkipReason, extra map[string]any) {
	r.stats.RowsSkipped[reason]++
	data := map[string]any{"row": r.stats.RowsRead, "reason": string(reason)}
	for k, v := range extra {
		data[k] = v
	}
	lh.Warn().LogActivity("Skipping row", data)
	a.recordSkip(reason)
}
