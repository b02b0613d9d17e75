package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Direction of money flow relative to the account.
type Direction string

const (
	Expense Direction = "expense"
	Income  Direction = "income"
)

// ParseDirection accepts "expense" or "income" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	default:
		return "", fmt.Errorf("invalid direction %q", s)
	}
}

// Source records how a ledger row was created.
type Source string

const (
	SourceImported Source = "imported"
	SourceManual   Source = "manual"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Canonical is the format independent transaction produced by a statement parser.
// AmountMinorUnits is always a magnitude; the sign lives in Direction.
type Canonical struct {
	Description      string    `json:"description"`
	Info             string    `json:"info,omitempty"`
	AmountMinorUnits int64     `json:"amountMinorUnits"`
	Currency         string    `json:"currency"`
	Direction        Direction `json:"direction"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// Validate checks the canonical invariants.
func (c Canonical) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("description is required")
	}
	if c.AmountMinorUnits < 0 {
		return errors.New("amount must be a non-negative magnitude")
	}
	if c.Direction != Expense && c.Direction != Income {
		return fmt.Errorf("invalid direction %q", c.Direction)
	}
	if c.Currency == "" {
		return errors.New("currency is required")
	}
	if c.OccurredAt.IsZero() {
		return errors.New("occurred at is required")
	}
	return nil
}

// Draft is a canonical transaction after import rules were applied.
type Draft struct {
	Canonical
	IsCountable bool
}

// LedgerTransaction is a persisted, account scoped financial record.
type LedgerTransaction struct {
	ID                   string    `json:"id"`
	AccountID            string    `json:"accountId"`
	Source               Source    `json:"source"`
	IsCountable          bool      `json:"isCountable"`
	Description          string    `json:"description"`
	Info                 string    `json:"info,omitempty"`
	AmountMinorUnits     int64     `json:"amountMinorUnits"`
	Currency             string    `json:"currency"`
	BaseAmountMinorUnits int64     `json:"baseAmountMinorUnits"`
	BaseCurrency         string    `json:"baseCurrency"`
	Direction            Direction `json:"direction"`
	OccurredAt           time.Time `json:"occurredAt"`
	CreatedAt            time.Time `json:"createdAt"`
}

// CreateLedgerParams contains the fields of a ledger row to insert.
type CreateLedgerParams struct {
	ID                   string
	AccountID            string
	Source               Source
	IsCountable          bool
	Description          string
	Info                 string
	AmountMinorUnits     int64
	Currency             string
	BaseAmountMinorUnits int64
	BaseCurrency         string
	Direction            Direction
	OccurredAt           time.Time
}

// BaseAmountUpdate rewrites the base currency amount of one ledger row.
type BaseAmountUpdate struct {
	ID                   string
	BaseAmountMinorUnits int64
	BaseCurrency         string
}
