package rates

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"moneyflow/internal/domain/money"
)

// Mock is a RateSource for tests. RateFunc decides every answer; Calls counts
// lookups so tests can assert a conversion never reached the source.
type Mock struct {
	RateFunc func(ctx context.Context, from, to string, on money.EffectiveDate) (decimal.Decimal, error)
	calls    atomic.Int64
}

var _ money.RateSource = (*Mock)(nil)

func (m *Mock) Rate(ctx context.Context, from, to string, on money.EffectiveDate) (decimal.Decimal, error) {
	m.calls.Add(1)
	if m.RateFunc != nil {
		return m.RateFunc(ctx, from, to, on)
	}
	return decimal.Zero, &money.RateUnavailableError{From: from, To: to, Date: on}
}

// Calls returns how many lookups were made.
func (m *Mock) Calls() int64 {
	return m.calls.Load()
}
