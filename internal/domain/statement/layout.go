package statement

import (
	"regexp"
	"strings"
)

const (
	// MaxLookahead is the number of rows after a start row that may belong to
	// the same transaction.
	MaxLookahead = 4
	// MaxAmountColumns is how many trailing columns are scanned for the amount.
	MaxAmountColumns = 3
	// MinColumns is the smallest record that can hold date, time, memo and amount.
	MinColumns = 4
	// FieldSeparator joins fragments and rows of one record.
	FieldSeparator = "|"
)

// Layout describes the text conventions of a positional statement. Markers
// are compared case-insensitively.
type Layout struct {
	DatePrefix  *regexp.Regexp
	DateLayout  string
	TimeLayouts []string

	ThousandsSeparator string
	DecimalSeparator   string

	OpeningBalanceMarker string
	AccountOpeningMarker string
	// Boilerplate rows are dropped while collecting continuation rows.
	Boilerplate []string
	// Records containing a noise marker are not transactions.
	NoiseMarkers []string
	// Records containing an income marker are credits, all others debits.
	IncomeMarkers []string

	// ColumnGap is the horizontal gap, in points, that separates two columns
	// on the same row. WordGap separates two words.
	ColumnGap float64
	WordGap   float64
}

// DefaultLayout returns the layout of the statements we import today.
func DefaultLayout() Layout {
	return Layout{
		DatePrefix:           regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`),
		DateLayout:           "02.01.2006",
		TimeLayouts:          []string{"15:04:05", "15:04"},
		ThousandsSeparator:   ",",
		DecimalSeparator:     ".",
		OpeningBalanceMarker: "opening balance",
		AccountOpeningMarker: "account opened",
		Boilerplate: []string{
			"page ",
			"continued on next page",
			"statement generated on",
			"this document is for information purposes only",
		},
		NoiseMarkers: []string{
			"error correction",
			"cash withdrawal",
			"this statement does not constitute",
		},
		IncomeMarkers: []string{"cash deposit", "transfer deposit"},
		ColumnGap:     12,
		WordGap:       1.5,
	}
}

// IsStart reports whether a row begins a new transaction.
func (l Layout) IsStart(row string) bool {
	return l.DatePrefix.MatchString(row) && !containsFold(row, l.OpeningBalanceMarker)
}

// IsBoilerplate reports whether a row is page furniture.
func (l Layout) IsBoilerplate(row string) bool {
	lower := strings.ToLower(strings.TrimSpace(row))
	for _, m := range l.Boilerplate {
		if strings.HasPrefix(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// IsNoise reports whether a reassembled record is a non-transaction entry.
func (l Layout) IsNoise(rec Record) bool {
	return containsAnyFold(rec.Raw, l.NoiseMarkers)
}

// IsIncome reports whether a reassembled record is a credit.
func (l Layout) IsIncome(rec Record) bool {
	return containsAnyFold(rec.Raw, l.IncomeMarkers)
}

func containsFold(s, marker string) bool {
	return marker != "" && strings.Contains(strings.ToLower(s), strings.ToLower(marker))
}

func containsAnyFold(s string, markers []string) bool {
	for _, m := range markers {
		if containsFold(s, m) {
			return true
		}
	}
	return false
}
