package analyzer

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Transaction types as they appear in the summary.
const (
	Credit = "Credit"
	Debit  = "Debit"
)

// Transaction is one validated input row.
type Transaction struct {
	TransactionID string
	UserID        string
	Date          string
	Amount        decimal.Decimal
	Type          string
}

// UserSummary holds the credit and debit totals of one user.
type UserSummary struct {
	Credit decimal.Decimal
	Debit  decimal.Decimal
}

// MarshalJSON renders both totals as JSON numbers.
func (s UserSummary) MarshalJSON() ([]byte, error) {
	return []byte(`{"Credit":` + s.Credit.String() + `,"Debit":` + s.Debit.String() + `}`), nil
}

// TopUser is the user with the highest running total.
type TopUser struct {
	UserID      string
	TotalAmount decimal.Decimal
}

func (u TopUser) MarshalJSON() ([]byte, error) {
	id, err := json.Marshal(u.UserID)
	if err != nil {
		return nil, err
	}
	return []byte(`{"UserID":` + string(id) + `,"TotalAmount":` + u.TotalAmount.String() + `}`), nil
}

// Result is the outcome of one analysis run. Stats is for operators and is
// never serialised.
type Result struct {
	Summary                map[string]UserSummary `json:"summary"`
	HighestTransactionUser *TopUser               `json:"highestTransactionUser"`
	Stats                  Stats                  `json:"-"`
}

// SkipReason names why a row was left out of the aggregation.
type SkipReason string

const (
	ReasonMissingFields SkipReason = "missing_fields"
	ReasonInvalidAmount SkipReason = "invalid_amount"
	ReasonInvalidType   SkipReason = "invalid_type"
	ReasonRowError      SkipReason = "row_error"
)

// Stats counts what a run read and dropped.
type Stats struct {
	RowsRead    int                `json:"rowsRead"`
	RowsSkipped map[SkipReason]int `json:"rowsSkipped"`
}

// Skipped returns the total number of skipped rows.
func (s Stats) Skipped() int {
	n := 0
	for _, c := range s.RowsSkipped {
		n += c
	}
	return n
}
