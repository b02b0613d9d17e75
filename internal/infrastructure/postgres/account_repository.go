package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"moneyflow/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

var _ account.Repository = (*AccountRepository)(nil)

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, family_id, currency, bank_format, timezone, parser_meta
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	var meta []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.FamilyID, &acc.Currency, &acc.BankFormat, &acc.Timezone, &meta,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &acc.ParserMeta); err != nil {
			return nil, fmt.Errorf("failed to decode parser options of account %s: %w", id, err)
		}
	}

	return &acc, nil
}

// FamilyBaseCurrency returns the reporting currency of a family
func (r *AccountRepository) FamilyBaseCurrency(ctx context.Context, familyID string) (string, error) {
	var base string
	err := r.db.QueryRowContext(ctx, `SELECT base_currency FROM families WHERE id = $1`, familyID).Scan(&base)
	if errors.Is(err, sql.ErrNoRows) {
		return "", account.ErrFamilyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get family base currency: %w", err)
	}
	return base, nil
}

// SetFamilyBaseCurrency changes the reporting currency of a family. Base
// amounts of existing rows are rewritten separately by recalculation.
func (r *AccountRepository) SetFamilyBaseCurrency(ctx context.Context, familyID, base string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE families SET base_currency = $2 WHERE id = $1`, familyID, base)
	if err != nil {
		return fmt.Errorf("failed to update family base currency: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return account.ErrFamilyNotFound
	}
	return nil
}

// SetParserOption stores one parser option of an account.
func (r *AccountRepository) SetParserOption(ctx context.Context, accountID, key, value string) error {
	query := `
		UPDATE accounts
		SET parser_meta = parser_meta || jsonb_build_object($2::text, $3::text)
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, accountID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set parser option: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
