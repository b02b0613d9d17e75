package money

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"moneyflow/internal/domain/transaction"
)

// DefaultGroupSize is the number of conversions run concurrently per group.
const DefaultGroupSize = 50

// BaseAmountStore is the part of the ledger store batch recalculation needs.
type BaseAmountStore interface {
	ListByFamilyID(ctx context.Context, familyID string) ([]*transaction.LedgerTransaction, error)
	UpdateBaseAmounts(ctx context.Context, updates []transaction.BaseAmountUpdate) error
}

// RecalcResult summarizes a batch recalculation.
type RecalcResult struct {
	FamilyID string
	Total    int
	Updated  int
	Failed   int
	Errors   []string
	Duration time.Duration
}

// Recalculator re-expresses every ledger row of a family in a new base
// currency, each at the rate in effect on the row's own date.
type Recalculator struct {
	store      BaseAmountStore
	normalizer *Normalizer
	groupSize  int
}

// NewRecalculator creates a recalculator. groupSize <= 0 uses DefaultGroupSize.
func NewRecalculator(store BaseAmountStore, normalizer *Normalizer, groupSize int) *Recalculator {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	return &Recalculator{store: store, normalizer: normalizer, groupSize: groupSize}
}

// Recalculate converts rows in sequential groups whose members run
// concurrently. A failed conversion is counted and skipped; each group's
// successes are written before the next group starts, so a cancelled run
// leaves completed groups applied and can be resumed by running it again.
func (r *Recalculator) Recalculate(ctx context.Context, familyID, base string) (*RecalcResult, error) {
	start := time.Now()
	rows, err := r.store.ListByFamilyID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family transactions: %w", err)
	}

	result := &RecalcResult{FamilyID: familyID, Total: len(rows), Errors: []string{}}

	for offset := 0; offset < len(rows); offset += r.groupSize {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("recalculation interrupted after %d rows: %w", offset, err)
		}

		end := offset + r.groupSize
		if end > len(rows) {
			end = len(rows)
		}

		updates, failures := r.convertGroup(ctx, rows[offset:end], base)
		result.Failed += len(failures)
		result.Errors = append(result.Errors, failures...)

		if len(updates) == 0 {
			continue
		}
		if err := r.store.UpdateBaseAmounts(ctx, updates); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("failed to apply base amounts for rows %d-%d: %w", offset, end-1, err)
		}
		result.Updated += len(updates)
	}

	result.Duration = time.Since(start)
	log.Info("base currency recalculation finished",
		"family", familyID, "base", base, "total", result.Total,
		"updated", result.Updated, "failed", result.Failed, "duration", result.Duration)

	return result, nil
}

func (r *Recalculator) convertGroup(ctx context.Context, group []*transaction.LedgerTransaction, base string) ([]transaction.BaseAmountUpdate, []string) {
	var (
		mu       sync.Mutex
		updates  = make([]transaction.BaseAmountUpdate, 0, len(group))
		failures []string
		g        errgroup.Group
	)

	for _, row := range group {
		g.Go(func() error {
			amounts, err := r.normalizer.Normalize(ctx, row.AmountMinorUnits, row.Currency, base, On(row.OccurredAt))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("transaction %s: %v", row.ID, err))
				return nil
			}
			updates = append(updates, transaction.BaseAmountUpdate{
				ID:                   row.ID,
				BaseAmountMinorUnits: amounts.BaseAmountMinorUnits,
				BaseCurrency:         base,
			})
			return nil
		})
	}
	_ = g.Wait()

	return updates, failures
}
