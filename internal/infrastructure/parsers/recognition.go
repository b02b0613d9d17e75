package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/currency"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

// Recognition maps the output of an external statement recognition service.
type Recognition struct{}

var _ statement.Parser = (*Recognition)(nil)

// recognized is one transaction as the recognition service emits it.
type recognized struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Timestamp   string `json:"timestamp"`
	Direction   string `json:"direction"`
}

type recognizedEnvelope struct {
	Transactions []recognized `json:"transactions"`
}

func (p *Recognition) Format() string { return account.FormatRecognition }

func (p *Recognition) Parse(ctx context.Context, data []byte, acct *account.Account) ([]transaction.Canonical, error) {
	loc, err := acct.Location()
	if err != nil {
		return nil, &statement.FormatError{Field: "timezone", Err: err}
	}

	items, err := decodeRecognized(data)
	if err != nil {
		return nil, &statement.FormatError{Err: err}
	}

	txs := make([]transaction.Canonical, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tx, err := mapRecognized(i+1, item, loc)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func decodeRecognized(data []byte) ([]recognized, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty recognition output")
	}

	if trimmed[0] == '[' {
		var items []recognized
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode recognition output: %w", err)
		}
		return items, nil
	}

	var env recognizedEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode recognition output: %w", err)
	}
	return env.Transactions, nil
}

func mapRecognized(line int, item recognized, loc *time.Location) (transaction.Canonical, error) {
	description := strings.TrimSpace(item.Description)
	if description == "" {
		return transaction.Canonical{}, statement.Errorf(line, "description", "description is required")
	}

	cur, err := currency.Normalize(item.Currency)
	if err != nil {
		return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "currency", Err: err}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(item.Amount))
	if err != nil {
		return transaction.Canonical{}, statement.Errorf(line, "amount", "invalid amount %q", item.Amount)
	}
	if amount.IsNegative() {
		return transaction.Canonical{}, statement.Errorf(line, "amount", "amount %q must be a magnitude", item.Amount)
	}
	minor, err := currency.ToMinor(amount, cur)
	if err != nil {
		return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "amount", Err: err}
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(item.Timestamp))
	if err != nil {
		return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "timestamp", Err: err}
	}

	direction, err := transaction.ParseDirection(item.Direction)
	if err != nil {
		return transaction.Canonical{}, &statement.FormatError{Line: line, Field: "direction", Err: err}
	}

	return transaction.Canonical{
		Description:      description,
		AmountMinorUnits: minor,
		Currency:         cur,
		Direction:        direction,
		OccurredAt:       ts.In(loc),
	}, nil
}
