package parsers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

func delimitedAccount(meta map[string]string) *account.Account {
	return &account.Account{
		ID:         "acc-1",
		FamilyID:   "fam-1",
		Currency:   "USD",
		BankFormat: account.FormatDelimited,
		Timezone:   "America/New_York",
		ParserMeta: meta,
	}
}

func TestDelimited_MemoBecomesDescription(t *testing.T) {
	acct := delimitedAccount(nil)
	txs, err := (&Delimited{}).Parse(context.Background(), []byte("-25.00,USD,,ATM Withdrawal,20-03-2024\n"), acct)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "ATM Withdrawal", tx.Description)
	assert.Empty(t, tx.Info)
	assert.Equal(t, transaction.Expense, tx.Direction)
	assert.Equal(t, int64(2500), tx.AmountMinorUnits)
	assert.Equal(t, "USD", tx.Currency)

	loc, _ := acct.Location()
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, loc), tx.OccurredAt)
}

func TestDelimited_HeaderAndMerchant(t *testing.T) {
	data := "amount,currency,merchant,memo,date\n" +
		"1200.50,usd,ACME Corp,March salary,01-03-2024\n" +
		"-4.5,USD,Coffee Shop,,02-03-2024\n"

	txs, err := (&Delimited{}).Parse(context.Background(), []byte(data), delimitedAccount(nil))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "ACME Corp", txs[0].Description)
	assert.Equal(t, "March salary", txs[0].Info)
	assert.Equal(t, transaction.Income, txs[0].Direction)
	assert.Equal(t, int64(120050), txs[0].AmountMinorUnits)

	assert.Equal(t, int64(450), txs[1].AmountMinorUnits)
	assert.Equal(t, transaction.Expense, txs[1].Direction)
}

func TestDelimited_ParserOptions(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("-3.20;EUR;Café Noir;;2024/03/05\n")
	require.NoError(t, err)

	acct := delimitedAccount(map[string]string{
		"delimiter":   ";",
		"encoding":    "windows-1252",
		"date_format": "2006/01/02",
	})
	txs, err := (&Delimited{}).Parse(context.Background(), []byte(encoded), acct)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "Café Noir", txs[0].Description)
	assert.Equal(t, "EUR", txs[0].Currency)
	assert.Equal(t, 5, txs[0].OccurredAt.Day())
}

func TestDelimited_BlankCurrencyUsesAccount(t *testing.T) {
	txs, err := (&Delimited{}).Parse(context.Background(), []byte("10,,Refund,,01-01-2024\n"), delimitedAccount(nil))
	require.NoError(t, err)
	assert.Equal(t, "USD", txs[0].Currency)
	assert.Equal(t, int64(1000), txs[0].AmountMinorUnits)
}

func TestDelimited_FailsFast(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		meta      map[string]string
		wantLine  int
		wantField string
	}{
		{"both descriptions blank", "1.00,USD,,,01-01-2024\n", nil, 1, "description"},
		{"bad amount", "1.00,USD,Shop,,01-01-2024\nabc,USD,Shop,,01-01-2024\n", nil, 2, "amount"},
		{"excess precision", "1.005,USD,Shop,,01-01-2024\n", nil, 1, "amount"},
		{"jpy has no fraction", "100.5,JPY,Shop,,01-01-2024\n", nil, 1, "amount"},
		{"bad date", "1.00,USD,Shop,,2024-01-01\n", nil, 1, "date"},
		{"unknown currency", "1.00,XXX,Shop,,01-01-2024\n", nil, 1, "currency"},
		{"wrong width", "1.00,USD,Shop,01-01-2024\n", nil, 1, "row"},
		{"bad delimiter", "1.00,USD,Shop,,01-01-2024\n", map[string]string{"delimiter": ";;"}, 0, "delimiter"},
		{"bad encoding", "1.00,USD,Shop,,01-01-2024\n", map[string]string{"encoding": "ebcdic"}, 0, "encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := (&Delimited{}).Parse(context.Background(), []byte(tt.data), delimitedAccount(tt.meta))
			require.Error(t, err)
			assert.Nil(t, txs)
			assert.True(t, errors.Is(err, statement.ErrFormat))

			var fe *statement.FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantLine, fe.Line)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}
