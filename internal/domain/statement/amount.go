package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"moneyflow/internal/domain/transaction"
)

var errNoAmount = errors.New("no amount in trailing columns")

func (l Layout) moneyShape() *regexp.Regexp {
	return regexp.MustCompile(`^-?\d+(?:` + regexp.QuoteMeta(l.ThousandsSeparator) + `\d{3})*` +
		regexp.QuoteMeta(l.DecimalSeparator) + `\d{2}$`)
}

// ParseMinorUnits converts a money-shaped string such as "1,234.56" into
// minor units. The value must carry exactly two fraction digits.
func (l Layout) ParseMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	dot := strings.LastIndex(s, l.DecimalSeparator)
	if dot < 0 || len(s)-dot-len(l.DecimalSeparator) != 2 {
		return 0, fmt.Errorf("amount %q must have exactly two fraction digits", s)
	}

	digits := s[:dot] + s[dot+len(l.DecimalSeparator):]
	if l.ThousandsSeparator != "" {
		digits = strings.ReplaceAll(digits, l.ThousandsSeparator, "")
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// Canonical maps a reassembled record onto a transaction. Columns 0 and 1 are
// the date and time in loc, column 2 the memo. The amount is the first
// money-shaped column among the last MaxAmountColumns columns, right to left,
// never reaching the memo. Columns between memo and amount form the
// description.
func (l Layout) Canonical(rec Record, loc *time.Location, currency string) (transaction.Canonical, error) {
	cols := rec.Columns
	if len(cols) < MinColumns {
		return transaction.Canonical{}, Errorf(rec.Line, "columns", "expected at least %d columns, got %d", MinColumns, len(cols))
	}

	occurredAt, err := l.parseInstant(cols[0], cols[1], loc)
	if err != nil {
		return transaction.Canonical{}, &FormatError{Line: rec.Line, Field: "date", Err: err}
	}

	shape := l.moneyShape()
	idx := -1
	for k := 1; k <= MaxAmountColumns; k++ {
		i := len(cols) - k
		if i < 3 {
			break
		}
		if shape.MatchString(cols[i]) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return transaction.Canonical{}, &FormatError{Line: rec.Line, Field: "amount", Err: errNoAmount}
	}

	minor, err := l.ParseMinorUnits(cols[idx])
	if err != nil {
		return transaction.Canonical{}, &FormatError{Line: rec.Line, Field: "amount", Err: err}
	}
	if minor < 0 {
		minor = -minor
	}

	memo := cols[2]
	description := strings.Join(cols[3:idx], " ")
	info := memo
	if description == "" {
		description, info = memo, ""
	}

	direction := transaction.Expense
	if l.IsIncome(rec) {
		direction = transaction.Income
	}

	return transaction.Canonical{
		Description:      description,
		Info:             info,
		AmountMinorUnits: minor,
		Currency:         currency,
		Direction:        direction,
		OccurredAt:       occurredAt,
	}, nil
}

func (l Layout) parseInstant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(l.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	for _, layout := range l.TimeLayouts {
		t, err := time.ParseInLocation(layout, clock, loc)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", clock)
}
