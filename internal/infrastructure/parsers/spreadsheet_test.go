package parsers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSpreadsheet_Parse(t *testing.T) {
	data := workbook(t, "Sheet1", [][]any{
		{"Amount", "Currency", "Merchant", "Memo", "Date"},
		{"-25.00", "USD", "", "ATM Withdrawal", "20-03-2024"},
		{},
		{"99.99", "USD", "Employer", "Bonus", "21-03-2024"},
	})

	acct := &account.Account{ID: "acc-1", Currency: "USD", BankFormat: account.FormatSpreadsheet}
	txs, err := (&Spreadsheet{}).Parse(context.Background(), data, acct)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "ATM Withdrawal", txs[0].Description)
	assert.Equal(t, transaction.Expense, txs[0].Direction)
	assert.Equal(t, int64(2500), txs[0].AmountMinorUnits)

	assert.Equal(t, "Employer", txs[1].Description)
	assert.Equal(t, "Bonus", txs[1].Info)
	assert.Equal(t, int64(9999), txs[1].AmountMinorUnits)
}

func TestSpreadsheet_NamedSheetAndShortRow(t *testing.T) {
	data := workbook(t, "Statement", [][]any{
		{"-7.10", "USD", "Bakery"},
	})

	acct := &account.Account{ID: "acc-1", Currency: "USD", ParserMeta: map[string]string{"sheet": "Statement"}}
	_, err := (&Spreadsheet{}).Parse(context.Background(), data, acct)

	var fe *statement.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Line)
	assert.Equal(t, "date", fe.Field)
}

func TestSpreadsheet_NotAWorkbook(t *testing.T) {
	_, err := (&Spreadsheet{}).Parse(context.Background(), []byte("amount,currency"), &account.Account{Currency: "USD"})
	assert.True(t, errors.Is(err, statement.ErrFormat))
}
