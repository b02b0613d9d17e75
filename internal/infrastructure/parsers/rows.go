package parsers

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/currency"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

// Row shape shared by delimited and spreadsheet statements.
const (
	colAmount = iota
	colCurrency
	colMerchant
	colMemo
	colDate
	rowWidth
)

const (
	defaultDateLayout = "02-01-2006"
	headerMarker      = "amount"
)

// rowMapper turns amount,currency,merchant,memo,date rows into transactions.
type rowMapper struct {
	acct       *account.Account
	loc        *time.Location
	dateLayout string
}

func newRowMapper(acct *account.Account) (*rowMapper, error) {
	loc, err := acct.Location()
	if err != nil {
		return nil, &statement.FormatError{Field: "timezone", Err: err}
	}
	return &rowMapper{
		acct:       acct,
		loc:        loc,
		dateLayout: acct.Meta("date_format", defaultDateLayout),
	}, nil
}

// isHeader reports whether the first row is a column header.
func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), headerMarker)
}

func (m *rowMapper) mapRow(line int, fields []string) (transaction.Canonical, error) {
	if len(fields) != rowWidth {
		return transaction.Canonical{}, statement.Errorf(line, "row", "expected %d fields, got %d", rowWidth, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	cur := m.acct.Currency
	if fields[colCurrency] != "" {
		c, err := currency.Normalize(fields[colCurrency])
		if err != nil {
			return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "currency", Err: err}
		}
		cur = c
	}

	amount, err := decimal.NewFromString(fields[colAmount])
	if err != nil {
		return transaction.Canonical{}, statement.Errorf(line, "amount", "invalid amount %q", fields[colAmount])
	}
	direction := transaction.Income
	if amount.IsNegative() {
		direction = transaction.Expense
	}
	minor, err := currency.ToMinor(amount.Abs(), cur)
	if err != nil {
		return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "amount", Err: err}
	}

	description, info := fields[colMerchant], fields[colMemo]
	if description == "" {
		description, info = fields[colMemo], ""
	}
	if description == "" {
		return transaction.Canonical{}, statement.Errorf(line, "description", "merchant and memo are both blank")
	}

	occurredAt, err := time.ParseInLocation(m.dateLayout, fields[colDate], m.loc)
	if err != nil {
		return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "date", Err: fmt.Errorf("invalid date %q: %w", fields[colDate], err)}
	}

	return transaction.Canonical{
		Description:      description,
		Info:             info,
		AmountMinorUnits: minor,
		Currency:         cur,
		Direction:        direction,
		OccurredAt:       occurredAt,
	}, nil
}
