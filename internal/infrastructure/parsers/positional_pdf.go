package parsers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dslipak/pdf"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

// SecretOpener unseals a stored document secret.
type SecretOpener interface {
	Decrypt(ciphertext string) (string, error)
}

// PositionalPDF parses password protected PDF statements whose transactions
// are laid out as positioned text rows.
type PositionalPDF struct {
	layout  statement.Layout
	secrets SecretOpener
}

var _ statement.Parser = (*PositionalPDF)(nil)

// NewPositionalPDF creates a PDF parser. secrets may be nil when parser
// options hold plaintext secrets.
func NewPositionalPDF(layout statement.Layout, secrets SecretOpener) *PositionalPDF {
	return &PositionalPDF{layout: layout, secrets: secrets}
}

func (p *PositionalPDF) Format() string { return account.FormatPositionalPDF }

func (p *PositionalPDF) Parse(ctx context.Context, data []byte, acct *account.Account) (txs []transaction.Canonical, err error) {
	loc, err := acct.Location()
	if err != nil {
		return nil, &statement.FormatError{Field: "timezone", Err: err}
	}

	secret, err := p.secret(acct)
	if err != nil {
		return nil, err
	}

	// The PDF reader panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			log.Warn("recovered from PDF extraction panic", "account", acct.ID, "panic", r)
			txs, err = nil, &statement.FormatError{Err: fmt.Errorf("unreadable document: %v", r)}
		}
	}()

	fragments, err := extractFragments(ctx, data, secret)
	if err != nil {
		return nil, err
	}
	return p.transactions(fragments, loc, acct.Currency)
}

func (p *PositionalPDF) secret(acct *account.Account) (string, error) {
	sealed := acct.Meta("secret", "")
	if sealed == "" {
		return "", statement.Errorf(0, "secret", "document secret is not configured")
	}
	if p.secrets == nil {
		return sealed, nil
	}
	secret, err := p.secrets.Decrypt(sealed)
	if err != nil {
		return "", &statement.FormatError{Field: "secret", Err: err}
	}
	return secret, nil
}

func extractFragments(ctx context.Context, data []byte, secret string) ([]statement.Fragment, error) {
	// The reader keeps asking for passwords until it gets an empty one.
	tried := false
	password := func() string {
		if tried {
			return ""
		}
		tried = true
		return secret
	}

	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), password)
	if err != nil {
		return nil, &statement.FormatError{Err: fmt.Errorf("failed to open document: %w", err)}
	}

	var fragments []statement.Fragment
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, t := range page.Content().Text {
			fragments = append(fragments, statement.Fragment{Page: i, Text: t.S, X: t.X, Y: t.Y, W: t.W})
		}
	}
	return fragments, nil
}

func (p *PositionalPDF) transactions(fragments []statement.Fragment, loc *time.Location, cur string) ([]transaction.Canonical, error) {
	rows := p.layout.ExtractRows(fragments)

	var txs []transaction.Canonical
	for _, rec := range p.layout.Reassemble(rows) {
		if p.layout.IsNoise(rec) {
			continue
		}
		tx, err := p.layout.Canonical(rec, loc, cur)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
