package importrule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kind selects what a rule does to a matching transaction.
type Kind string

const (
	// KindMarkUncountable excludes matching transactions from balances and insights.
	KindMarkUncountable Kind = "mark_uncountable"
	// KindStripSubstring removes the first match of the pattern from the description.
	KindStripSubstring Kind = "strip_substring"
)

const (
	// MaxPatternLength bounds stored patterns.
	MaxPatternLength = 256
	// MaxEvaluatedLength bounds the description prefix a pattern is run against.
	MaxEvaluatedLength = 1024
)

var (
	ErrRuleNotFound   = errors.New("import rule not found")
	ErrInvalidKind    = errors.New("invalid import rule kind")
	ErrInvalidPattern = errors.New("invalid import rule pattern")
)

// ParseKind validates a persisted or user supplied kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case KindMarkUncountable, KindStripSubstring:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Rule is a per-account regular expression rule applied during import.
type Rule struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"accountId"`
	Kind      Kind      `json:"kind"`
	Pattern   string    `json:"pattern"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRuleParams contains the parameters for creating an import rule
type CreateRuleParams struct {
	AccountID string
	Kind      Kind
	Pattern   string
}

// Validate validates the create parameters, including pattern compilability.
func (p *CreateRuleParams) Validate() error {
	if p.AccountID == "" {
		return errors.New("account_id is required")
	}
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return err
	}
	if p.Pattern == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalidPattern)
	}
	if len(p.Pattern) > MaxPatternLength {
		return fmt.Errorf("%w: pattern longer than %d bytes", ErrInvalidPattern, MaxPatternLength)
	}
	if _, err := regexp.Compile(p.Pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return nil
}
