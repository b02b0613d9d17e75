package money

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable is matched by every RateUnavailableError.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateUnavailableError reports that no provider could supply a rate.
type RateUnavailableError struct {
	From string
	To   string
	Date EffectiveDate
	Err  error
}

func (e *RateUnavailableError) Error() string {
	msg := fmt.Sprintf("exchange rate %s->%s (%s) unavailable", e.From, e.To, e.Date)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RateUnavailableError) Unwrap() error { return e.Err }

func (e *RateUnavailableError) Is(target error) bool { return target == ErrRateUnavailable }

// EffectiveDate selects the rate to use: the latest one, or the one in effect
// on a specific calendar date.
type EffectiveDate struct {
	date   time.Time
	latest bool
}

// Latest selects the most recent published rate.
func Latest() EffectiveDate {
	return EffectiveDate{latest: true}
}

// On selects the rate in effect on t's calendar date, in t's location.
func On(t time.Time) EffectiveDate {
	y, m, d := t.Date()
	return EffectiveDate{date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d EffectiveDate) IsLatest() bool { return d.latest }

// Date returns the calendar date at UTC midnight. Zero for Latest.
func (d EffectiveDate) Date() time.Time { return d.date }

// String renders "latest" or YYYY-MM-DD, the form rate providers expect.
func (d EffectiveDate) String() string {
	if d.latest {
		return "latest"
	}
	return d.date.Format("2006-01-02")
}

// RateSource returns the multiplicative rate converting one unit of from into to.
type RateSource interface {
	Rate(ctx context.Context, from, to string, on EffectiveDate) (decimal.Decimal, error)
}
