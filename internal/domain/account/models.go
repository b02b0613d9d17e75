package account

import (
	"errors"
	"fmt"
	"time"

	"moneyflow/internal/domain/currency"
)

// Bank formats understood by the statement parsers.
const (
	FormatDelimited     = "delimited"
	FormatSpreadsheet   = "spreadsheet"
	FormatPositionalPDF = "positional_pdf"
	FormatRecognition   = "recognition"
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrFamilyNotFound  = errors.New("family not found")
	ErrInvalidTimezone = errors.New("invalid account timezone")
)

// Account is the read-only account context a statement is imported into.
type Account struct {
	ID         string            `json:"id"`
	FamilyID   string            `json:"familyId"`
	Currency   string            `json:"currency"`
	BankFormat string            `json:"bankFormat"`
	Timezone   string            `json:"timezone"`   // IANA name, empty means UTC
	ParserMeta map[string]string `json:"parserMeta"` // format specific options
}

// Location resolves the account timezone. An empty timezone is UTC.
func (a *Account) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, a.Timezone, err)
	}
	return loc, nil
}

// Meta returns a parser option or def when it is absent or blank.
func (a *Account) Meta(key, def string) string {
	if v, ok := a.ParserMeta[key]; ok && v != "" {
		return v
	}
	return def
}

// Validate checks the fields the importer relies on.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("account ID is required")
	}
	if a.BankFormat == "" {
		return errors.New("bank format is required")
	}
	if !currency.Valid(a.Currency) {
		return currency.ErrInvalidCurrency
	}
	if _, err := a.Location(); err != nil {
		return err
	}
	return nil
}
