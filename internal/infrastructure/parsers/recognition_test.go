package parsers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/domain/transaction"
)

func TestRecognition_Parse(t *testing.T) {
	acct := &account.Account{ID: "acc-1", Currency: "EUR", Timezone: "Europe/Lisbon"}

	tests := []struct {
		name string
		data string
	}{
		{"array", `[{"description":"Rent","amount":"950.00","currency":"eur","timestamp":"2024-03-01T09:00:00Z","direction":"expense"},
			{"description":"Salary","amount":"2500","currency":"EUR","timestamp":"2024-03-02T09:00:00+01:00","direction":"INCOME"}]`},
		{"envelope", `{"transactions":[{"description":"Rent","amount":"950.00","currency":"EUR","timestamp":"2024-03-01T09:00:00Z","direction":"expense"},
			{"description":"Salary","amount":"2500","currency":"EUR","timestamp":"2024-03-02T09:00:00+01:00","direction":"income"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := (&Recognition{}).Parse(context.Background(), []byte(tt.data), acct)
			require.NoError(t, err)
			require.Len(t, txs, 2)

			assert.Equal(t, "Rent", txs[0].Description)
			assert.Equal(t, int64(95000), txs[0].AmountMinorUnits)
			assert.Equal(t, "EUR", txs[0].Currency)
			assert.Equal(t, transaction.Expense, txs[0].Direction)

			assert.Equal(t, transaction.Income, txs[1].Direction)
			assert.Equal(t, int64(250000), txs[1].AmountMinorUnits)
			assert.True(t, txs[1].OccurredAt.Equal(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)))
		})
	}
}

func TestRecognition_SchemaViolations(t *testing.T) {
	acct := &account.Account{ID: "acc-1", Currency: "EUR"}

	tests := []struct {
		name      string
		data      string
		wantField string
	}{
		{"not json", `nope`, ""},
		{"numeric amount", `[{"description":"x","amount":1.5,"currency":"EUR","timestamp":"2024-03-01T09:00:00Z","direction":"expense"}]`, ""},
		{"negative amount", `[{"description":"x","amount":"-1.50","currency":"EUR","timestamp":"2024-03-01T09:00:00Z","direction":"expense"}]`, "amount"},
		{"missing description", `[{"amount":"1.50","currency":"EUR","timestamp":"2024-03-01T09:00:00Z","direction":"expense"}]`, "description"},
		{"bad currency", `[{"description":"x","amount":"1.50","currency":"EURO","timestamp":"2024-03-01T09:00:00Z","direction":"expense"}]`, "currency"},
		{"bad timestamp", `[{"description":"x","amount":"1.50","currency":"EUR","timestamp":"01/03/2024","direction":"expense"}]`, "timestamp"},
		{"bad direction", `[{"description":"x","amount":"1.50","currency":"EUR","timestamp":"2024-03-01T09:00:00Z","direction":"debit"}]`, "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Recognition{}).Parse(context.Background(), []byte(tt.data), acct)
			require.Error(t, err)

			var fe *statement.FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}
