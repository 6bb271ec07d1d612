package analyzer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Header names expected in the CSV input.
const (
	HeaderTransactionID = "TransactionID"
	HeaderUserID        = "UserID"
	HeaderDate          = "Date"
	HeaderAmount        = "Amount"
	HeaderType          = "Transaction Type"
)

const utf8BOM = "\ufeff"

// columns maps header names to record positions.
type columns map[string]int

func indexHeader(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		// the first occurrence of a duplicated header wins
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// get returns the value of the named column, or "" when the header lacks the
// column or the record is too short to hold it.
func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// rawRow is a record mapped onto header names, before any parsing.
type rawRow struct {
	TransactionID string `validate:"required"`
	UserID        string `validate:"required"`
	Date          string
	Amount        string `validate:"required"`
	Type          string `validate:"required"`
}

func (c columns) row(record []string) rawRow {
	return rawRow{
		TransactionID: c.get(record, HeaderTransactionID),
		UserID:        c.get(record, HeaderUserID),
		Date:          c.get(record, HeaderDate),
		Amount:        c.get(record, HeaderAmount),
		Type:          c.get(record, HeaderType),
	}
}

// missingFields lists the required fields of r that are absent or empty.
func missingFields(v *validator.Validate, r rawRow) []string {
	err := v.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// parseAmount accepts plain and exponent decimal notation, surrounded by
// optional whitespace. The value must be a finite float64: NaN, infinities and
// anything out of float64 range are rejected, and underflow yields zero. The
// decimal is built from the float's shortest representation, which keeps its
// exponent within float64 bounds.
func parseAmount(s string) (decimal.Decimal, error) {
	t := strings.TrimSpace(s)
	if strings.ContainsAny(t, "xX_") {
		return decimal.Zero, fmt.Errorf("amount %q is not in decimal notation", s)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return decimal.Zero, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("amount %q is not finite", s)
	}
	return decimal.NewFromFloat(f), nil
}

// normalizeType maps any casing of credit/debit, with surrounding whitespace,
// to Credit or Debit.
func normalizeType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit":
		return Credit, true
	case "debit":
		return Debit, true
	}
	return "", false
}
