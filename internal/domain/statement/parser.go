package statement

import (
	"context"
	"fmt"
	"strings"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/transaction"
)

// Parser converts one bank's statement bytes into canonical transactions.
// Parse returns either every transaction of the document or an error.
type Parser interface {
	Parse(ctx context.Context, data []byte, acct *account.Account) ([]transaction.Canonical, error)
	Format() string
}

// Registry holds parsers keyed by bank format.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Parse dispatches on the account's bank format and checks every produced
// transaction before handing the batch back.
func (r *Registry) Parse(ctx context.Context, data []byte, acct *account.Account) ([]transaction.Canonical, error) {
	p := r.Get(acct.BankFormat)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, acct.BankFormat)
	}

	txs, err := p.Parse(ctx, data, acct)
	if err != nil {
		return nil, err
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, &FormatError{Line: i + 1, Err: err}
		}
	}
	return txs, nil
}
