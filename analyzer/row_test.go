package analyzer

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestIndexHeader(t *testing.T) {
	cols := indexHeader([]string{"\ufeffTransactionID", "UserID", "UserID", "Transaction Type"})

	assert.Equal(t, 0, cols[HeaderTransactionID])
	assert.Equal(t, 1, cols[HeaderUserID], "first duplicate wins")
	assert.Equal(t, 3, cols[HeaderType])

	_, ok := cols[HeaderAmount]
	assert.False(t, ok)
}

func TestColumnsGet(t *testing.T) {
	cols := indexHeader([]string{"TransactionID", "UserID", "Amount"})

	assert.Equal(t, "T1", cols.get([]string{"T1", "U1", "5"}, HeaderTransactionID))
	assert.Equal(t, "", cols.get([]string{"T1"}, HeaderAmount), "short record")
	assert.Equal(t, "", cols.get([]string{"T1", "U1", "5"}, HeaderType), "unknown column")
}

func TestMissingFields(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name string
		row  rawRow
		want []string
	}{
		{
			name: "complete row",
			row:  rawRow{TransactionID: "T1", UserID: "U1", Amount: "1", Type: "Credit"},
			want: nil,
		},
		{
			name: "date is optional",
			row:  rawRow{TransactionID: "T1", UserID: "U1", Amount: "1", Type: "Credit", Date: ""},
			want: nil,
		},
		{
			name: "several fields missing",
			row:  rawRow{TransactionID: "T1", Amount: ""},
			want: []string{"UserID", "Amount", "Type"},
		},
		{
			name: "whitespace counts as present",
			row:  rawRow{TransactionID: " ", UserID: "U1", Amount: "1", Type: "Credit"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingFields(v, tt.row))
		})
	}
}

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"100":      "100",
		"-40.5":    "-40.5",
		" 7 ":      "7",
		"1e3":      "1000",
		"0.000001": "0.000001",
		"1e308":    "1e308",
	}
	for in, want := range valid {
		got, err := parseAmount(in)
		if assert.NoError(t, err, in) {
			assert.True(t, dec(want).Equal(got), "%q parsed as %s", in, got)
		}
	}

	tiny, err := parseAmount("1e-2000000000")
	if assert.NoError(t, err) {
		assert.True(t, tiny.IsZero(), "underflow parsed as %s", tiny)
	}

	invalid := []string{
		"", "abc", "NaN", "Infinity", "-Infinity", "inf", "1,000", "12abc",
		"1e400", "-1e400", "1e2000000000", "0x1p3", "1_000",
	}
	for _, in := range invalid {
		_, err := parseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Credit", Credit, true},
		{"credit", Credit, true},
		{" DEBIT\t", Debit, true},
		{"dEbIt", Debit, true},
		{"Transfer", "", false},
		{"credits", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeType(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
