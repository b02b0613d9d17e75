package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidCurrency = errors.New("valid ISO 4217 currency is required")

// exponents lists accepted ISO 4217 codes and their minor unit exponent.
var exponents = map[string]int32{
	"BRL": 2, "USD": 2, "EUR": 2, "GBP": 2, "JPY": 0,
	"CHF": 2, "CAD": 2, "AUD": 2, "NZD": 2, "CNY": 2,
	"INR": 2, "MXN": 2, "ZAR": 2, "SEK": 2, "NOK": 2,
	"DKK": 2, "PLN": 2, "TRY": 2, "RUB": 2, "KRW": 0,
	"SGD": 2, "HKD": 2, "ARS": 2, "CLP": 0, "COP": 2,
	"UAH": 2, "CZK": 2, "HUF": 2, "ILS": 2, "THB": 2,
}

// Normalize upper-cases and trims a currency code and checks it is accepted.
func Normalize(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := exponents[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}

// Valid reports whether code is an accepted currency code.
func Valid(code string) bool {
	_, ok := exponents[code]
	return ok
}

// Exponent returns the number of minor unit digits for code. Unknown codes use 2.
func Exponent(code string) int32 {
	if e, ok := exponents[code]; ok {
		return e
	}
	return 2
}

// ToMajor converts an integer minor unit amount into major units.
func ToMajor(minor int64, code string) decimal.Decimal {
	return decimal.New(minor, -Exponent(code))
}

// ToMinor converts a major unit amount into minor units. The amount must not
// carry more fraction digits than the currency allows.
func ToMinor(major decimal.Decimal, code string) (int64, error) {
	scaled := major.Shift(Exponent(code))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d fraction digits for %s", major.String(), Exponent(code), code)
	}
	return scaled.IntPart(), nil
}

// RoundToMinor rounds a major unit amount half-up to the currency's minor units.
func RoundToMinor(major decimal.Decimal, code string) int64 {
	return major.Round(Exponent(code)).Shift(Exponent(code)).IntPart()
}
