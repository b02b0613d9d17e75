package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"moneyflow/internal/domain/transaction"
)

const ledgerColumns = `id, account_id, source, is_countable, description, info, amount_minor, currency,
	base_amount_minor, base_currency, direction, occurred_at, created_at`

const (
	lockAccountQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

	// deleteWindowQuery selects and deletes the window in one statement.
	deleteWindowQuery = `
		DELETE FROM ledger_transactions
		WHERE account_id = $1 AND source = $2 AND occurred_at BETWEEN $3 AND $4
		RETURNING ` + ledgerColumns
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	db *DB
}

var _ transaction.Repository = (*TransactionRepository)(nil)

// NewTransactionRepository creates a new PostgreSQL ledger repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLedgerRow(s scanner) (*transaction.LedgerTransaction, error) {
	var t transaction.LedgerTransaction
	err := s.Scan(
		&t.ID, &t.AccountID, &t.Source, &t.IsCountable, &t.Description, &t.Info,
		&t.AmountMinorUnits, &t.Currency, &t.BaseAmountMinorUnits, &t.BaseCurrency,
		&t.Direction, &t.OccurredAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*transaction.LedgerTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return scanLedgerRows(rows)
}

// scanLedgerRows drains and closes rows.
func scanLedgerRows(rows *sql.Rows) ([]*transaction.LedgerTransaction, error) {
	defer rows.Close()

	var out []*transaction.LedgerTransaction
	for rows.Next() {
		t, err := scanLedgerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return out, nil
}

// sortByOccurrence orders rows by occurred_at then id. DELETE ... RETURNING
// yields rows in no particular order.
func sortByOccurrence(rows []*transaction.LedgerTransaction) {
	slices.SortFunc(rows, func(a, b *transaction.LedgerTransaction) int {
		if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_transactions
		WHERE account_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, accountID, limit, offset)
}

func (r *TransactionRepository) ListByFamilyID(ctx context.Context, familyID string) ([]*transaction.LedgerTransaction, error) {
	query := `SELECT ` + prefixed("t", ledgerColumns) + `
		FROM ledger_transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.family_id = $1
		ORDER BY t.occurred_at, t.id`
	return r.list(ctx, query, familyID)
}

// ReplaceWindow swaps the account's imported rows inside [from, to] for rows
// in one database transaction. Imports of the same account are serialized
// with an advisory lock taken before the window is read, so the deleted set is
// exactly what this import replaces.
func (r *TransactionRepository) ReplaceWindow(ctx context.Context, accountID string, from, to time.Time, rows []transaction.CreateLedgerParams) (removed, inserted []*transaction.LedgerTransaction, err error) {
	err = r.db.WithTx(ctx, "replace_window", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockAccountQuery, accountID); err != nil {
			return fmt.Errorf("failed to lock account window: %w", err)
		}

		deleted, err := tx.QueryContext(ctx, deleteWindowQuery, accountID, string(transaction.SourceImported), from, to)
		if err != nil {
			return fmt.Errorf("failed to delete imported window: %w", err)
		}
		removed, err = scanLedgerRows(deleted)
		if err != nil {
			return fmt.Errorf("failed to read deleted window: %w", err)
		}

		inserted = make([]*transaction.LedgerTransaction, 0, len(rows))
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ledger_transactions (
				id, account_id, source, is_countable, description, info, amount_minor, currency,
				base_amount_minor, base_currency, direction, occurred_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING `+ledgerColumns)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range rows {
			t, err := scanLedgerRow(stmt.QueryRowContext(ctx,
				p.ID, p.AccountID, string(p.Source), p.IsCountable, p.Description, p.Info,
				p.AmountMinorUnits, p.Currency, p.BaseAmountMinorUnits, p.BaseCurrency,
				string(p.Direction), p.OccurredAt,
			))
			if err != nil {
				return fmt.Errorf("failed to insert transaction: %w", err)
			}
			inserted = append(inserted, t)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sortByOccurrence(removed)

	return removed, inserted, nil
}

// UpdateBaseAmounts applies base amount rewrites in one database transaction.
func (r *TransactionRepository) UpdateBaseAmounts(ctx context.Context, updates []transaction.BaseAmountUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, "update_base_amounts", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE ledger_transactions
			SET base_amount_minor = $2, base_currency = $3
			WHERE id = $1`)
		if err != nil {
			return fmt.Errorf("failed to prepare update: %w", err)
		}
		defer stmt.Close()

		for _, u := range updates {
			if _, err := stmt.ExecContext(ctx, u.ID, u.BaseAmountMinorUnits, u.BaseCurrency); err != nil {
				return fmt.Errorf("failed to update base amount of %s: %w", u.ID, err)
			}
		}
		return nil
	})
}
