package importrule

import "context"

// Repository defines the interface for import rule data access
type Repository interface {
	Create(ctx context.Context, params CreateRuleParams) (*Rule, error)

	// ListByAccountID returns the rules of an account in creation order.
	ListByAccountID(ctx context.Context, accountID string) ([]*Rule, error)

	Delete(ctx context.Context, id int64) error
}
