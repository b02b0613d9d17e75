package rates

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"moneyflow/internal/domain/money"
)

// Static serves rates from an in-memory table. Dates are ignored: the table
// is the answer for every day. Inverse pairs are derived.
type Static struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

var _ money.RateSource = (*Static)(nil)

// NewStatic creates an empty static table.
func NewStatic() *Static {
	return &Static{rates: make(map[string]decimal.Decimal)}
}

// Set stores the rate for from->to and its inverse.
func (s *Static) Set(from, to string, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("rate %s->%s must be positive, got %s", from, to, rate)
	}
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pairKey(from, to)] = rate
	if _, ok := s.rates[pairKey(to, from)]; !ok {
		s.rates[pairKey(to, from)] = decimal.NewFromInt(1).DivRound(rate, 12)
	}
	return nil
}

func (s *Static) Rate(_ context.Context, from, to string, on money.EffectiveDate) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	s.mu.RLock()
	rate, ok := s.rates[pairKey(from, to)]
	s.mu.RUnlock()
	if !ok {
		return decimal.Zero, &money.RateUnavailableError{From: from, To: to, Date: on, Err: fmt.Errorf("pair not in static table")}
	}
	return rate, nil
}

// staticFile is the YAML shape:
//
//	rates:
//	  USD:
//	    EUR: "0.923"
type staticFile struct {
	Rates map[string]map[string]string `yaml:"rates"`
}

// LoadStatic reads a static rate table from a YAML file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate file: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic builds a static rate table from YAML bytes.
func ParseStatic(data []byte) (*Static, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rate file: %w", err)
	}

	s := NewStatic()
	for from, targets := range f.Rates {
		for to, raw := range targets {
			rate, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("invalid rate %s->%s %q: %w", from, to, raw, err)
			}
			if err := s.Set(from, to, rate); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func pairKey(from, to string) string {
	return from + "/" + to
}
