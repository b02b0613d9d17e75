package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"placeholders kept", "SELECT id FROM accounts WHERE id = $1", "SELECT id FROM accounts WHERE id = $1"},
		{"string literal", "SELECT 1 FROM ledger_transactions WHERE source = 'imported'", "SELECT ? FROM ledger_transactions WHERE source = '?'"},
		{"escaped quote", "SELECT 'it''s'", "SELECT '?'"},
		{"numbers", "UPDATE t SET amount_minor = 2500 WHERE id = $2", "UPDATE t SET amount_minor = ? WHERE id = $2"},
		{"identifier digits", "SELECT col1 FROM t2", "SELECT col1 FROM t2"},
		{"multi digit placeholder", "SELECT id FROM t WHERE a = $12 AND b = 3.5", "SELECT id FROM t WHERE a = $12 AND b = ?"},
		{"unterminated literal", "SELECT 'open", "SELECT '?'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeQuery(tt.in))
		})
	}
}

func TestSanitizeQuery_Truncates(t *testing.T) {
	got := sanitizeQuery("SELECT " + strings.Repeat("x", 400))
	assert.Len(t, got, 259)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestExtractSQLVerb(t *testing.T) {
	assert.Equal(t, "SELECT", extractSQLVerb("  select id from accounts"))
	assert.Equal(t, "DELETE", extractSQLVerb("\n\t\t\t\tDELETE FROM ledger_transactions"))
	assert.Equal(t, "BEGIN", extractSQLVerb("begin"))
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "t.id, t.account_id, t.created_at", prefixed("t", "id, account_id,\n\tcreated_at"))
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"families", "accounts", "import_rules", "ledger_transactions"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema, "(account_id, source, occurred_at)")
}
