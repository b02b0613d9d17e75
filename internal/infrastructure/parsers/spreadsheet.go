package parsers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

// Spreadsheet parses XLSX statements with the delimited row shape.
type Spreadsheet struct{}

var _ statement.Parser = (*Spreadsheet)(nil)

func (p *Spreadsheet) Format() string { return account.FormatSpreadsheet }

func (p *Spreadsheet) Parse(ctx context.Context, data []byte, acct *account.Account) ([]transaction.Canonical, error) {
	mapper, err := newRowMapper(acct)
	if err != nil {
		return nil, err
	}

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &statement.FormatError{Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer xl.Close()

	sheet := acct.Meta("sheet", xl.GetSheetName(0))
	rows, err := xl.GetRows(sheet)
	if err != nil {
		return nil, &statement.FormatError{Field: "sheet", Err: fmt.Errorf("failed to read sheet %q: %w", sheet, err)}
	}

	var txs []transaction.Canonical
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		if i == 0 && isHeader(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// GetRows drops trailing empty cells.
		for len(row) < rowWidth {
			row = append(row, "")
		}
		tx, err := mapper.mapRow(i+1, row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
