package account

import "context"

// Repository defines read access to accounts and their family settings.
// Account and family persistence is owned elsewhere; the importer only reads.
type Repository interface {
	// GetByID retrieves an account by its ID. Returns ErrAccountNotFound when absent.
	GetByID(ctx context.Context, id string) (*Account, error)

	// FamilyBaseCurrency returns the reporting currency of a family.
	FamilyBaseCurrency(ctx context.Context, familyID string) (string, error)
}
