package postgres

import (
	"context"
	"fmt"

	"moneyflow/internal/domain/importrule"
)

// ImportRuleRepository implements the importrule.Repository interface for PostgreSQL
type ImportRuleRepository struct {
	db *DB
}

var _ importrule.Repository = (*ImportRuleRepository)(nil)

// NewImportRuleRepository creates a new PostgreSQL import rule repository
func NewImportRuleRepository(db *DB) *ImportRuleRepository {
	return &ImportRuleRepository{db: db}
}

func (r *ImportRuleRepository) Create(ctx context.Context, params importrule.CreateRuleParams) (*importrule.Rule, error) {
	query := `
		INSERT INTO import_rules (account_id, kind, pattern)
		VALUES ($1, $2, $3)
		RETURNING id, account_id, kind, pattern, created_at
	`

	var rule importrule.Rule
	err := r.db.QueryRowContext(ctx, query, params.AccountID, string(params.Kind), params.Pattern).Scan(
		&rule.ID, &rule.AccountID, &rule.Kind, &rule.Pattern, &rule.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create import rule: %w", err)
	}
	return &rule, nil
}

func (r *ImportRuleRepository) ListByAccountID(ctx context.Context, accountID string) ([]*importrule.Rule, error) {
	query := `
		SELECT id, account_id, kind, pattern, created_at
		FROM import_rules
		WHERE account_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list import rules: %w", err)
	}
	defer rows.Close()

	var rules []*importrule.Rule
	for rows.Next() {
		var rule importrule.Rule
		if err := rows.Scan(&rule.ID, &rule.AccountID, &rule.Kind, &rule.Pattern, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import rule: %w", err)
		}
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import rules: %w", err)
	}

	return rules, nil
}

func (r *ImportRuleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM import_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return importrule.ErrRuleNotFound
	}

	return nil
}
