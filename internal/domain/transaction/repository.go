package transaction

import (
	"context"
	"time"
)

// Repository defines the ledger store used by the importer.
type Repository interface {
	// ReplaceWindow deletes the account's imported rows whose occurred_at lies
	// within [from, to], both inclusive, and inserts rows. Selection, delete and
	// insert happen in one transaction that excludes other imports of the same
	// account. Returns the deleted rows as they were before the delete, and the
	// inserted rows.
	ReplaceWindow(ctx context.Context, accountID string, from, to time.Time, rows []CreateLedgerParams) (removed, inserted []*LedgerTransaction, err error)

	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*LedgerTransaction, error)
	ListByFamilyID(ctx context.Context, familyID string) ([]*LedgerTransaction, error)

	// UpdateBaseAmounts applies base amount rewrites in one database transaction.
	UpdateBaseAmounts(ctx context.Context, updates []BaseAmountUpdate) error
}
