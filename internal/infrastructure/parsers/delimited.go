package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Delimited parses character-delimited text statements.
type Delimited struct{}

var _ statement.Parser = (*Delimited)(nil)

func (p *Delimited) Format() string { return account.FormatDelimited }

func (p *Delimited) Parse(ctx context.Context, data []byte, acct *account.Account) ([]transaction.Canonical, error) {
	mapper, err := newRowMapper(acct)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	src, err := decoder(bytes.NewReader(data), acct.Meta("encoding", "utf-8"))
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if d := acct.Meta("delimiter", ","); d != "," {
		comma, size := utf8.DecodeRuneInString(d)
		if size != len(d) || comma == utf8.RuneError {
			return nil, statement.Errorf(0, "delimiter", "delimiter must be a single character, got %q", d)
		}
		r.Comma = comma
	}

	var txs []transaction.Canonical
	for first := true; ; first = false {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &statement.FormatError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &statement.FormatError{Err: err}
		}
		if first && isHeader(fields) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, _ := r.FieldPos(0)
		tx, err := mapper.mapRow(line, fields)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, statement.Errorf(0, "encoding", "unsupported encoding %q", encoding)
	}
}
