package money

import (
	"context"
	"fmt"

	"moneyflow/internal/domain/currency"
)

// Amounts holds an amount in its original and in the base currency.
type Amounts struct {
	AmountMinorUnits     int64
	BaseAmountMinorUnits int64
}

// Normalizer converts amounts into a base currency using an explicit RateSource.
type Normalizer struct {
	rates RateSource
}

// NewNormalizer creates a normalizer backed by rates.
func NewNormalizer(rates RateSource) *Normalizer {
	return &Normalizer{rates: rates}
}

// Normalize expresses amountMinor of cur in base. Same-currency conversions
// never consult the rate source. Otherwise minor units are converted to major
// units, multiplied by the rate, rounded half-up to the base currency's minor
// units and converted back.
func (n *Normalizer) Normalize(ctx context.Context, amountMinor int64, cur, base string, on EffectiveDate) (Amounts, error) {
	if amountMinor < 0 {
		return Amounts{}, fmt.Errorf("amount must be a non-negative magnitude, got %d", amountMinor)
	}
	if cur == base {
		return Amounts{AmountMinorUnits: amountMinor, BaseAmountMinorUnits: amountMinor}, nil
	}

	rate, err := n.rates.Rate(ctx, cur, base, on)
	if err != nil {
		return Amounts{}, err
	}
	if rate.IsNegative() {
		return Amounts{}, &RateUnavailableError{From: cur, To: base, Date: on, Err: fmt.Errorf("negative rate %s", rate)}
	}

	converted := currency.ToMajor(amountMinor, cur).Mul(rate)
	return Amounts{
		AmountMinorUnits:     amountMinor,
		BaseAmountMinorUnits: currency.RoundToMinor(converted, base),
	}, nil
}
