package importrule

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"moneyflow/internal/domain/transaction"
)

// RuleSet is a compiled, ordered set of rules for one account.
type RuleSet struct {
	accountID string
	uncount   []*regexp.Regexp
	strip     []*regexp.Regexp
}

// Compile prepares the rules of accountID for repeated application. Rules of
// other accounts and stored patterns that no longer compile are skipped, so
// applying a RuleSet never fails.
func Compile(accountID string, rules []*Rule) *RuleSet {
	set := &RuleSet{accountID: accountID}
	for _, r := range rules {
		if r == nil || r.AccountID != accountID {
			continue
		}
		if len(r.Pattern) > MaxPatternLength {
			log.Warn("skipping oversized import rule pattern", "rule", r.ID, "account", accountID)
			continue
		}
		re, err := patterns.compile(r.Pattern)
		if err != nil {
			log.Warn("skipping uncompilable import rule", "rule", r.ID, "account", accountID, "err", err)
			continue
		}
		switch r.Kind {
		case KindMarkUncountable:
			set.uncount = append(set.uncount, re)
		case KindStripSubstring:
			set.strip = append(set.strip, re)
		default:
			log.Warn("skipping import rule with unknown kind", "rule", r.ID, "kind", r.Kind)
		}
	}
	return set
}

// Len returns the number of usable rules.
func (s *RuleSet) Len() int {
	return len(s.uncount) + len(s.strip)
}

// Apply runs both passes over tx. All mark-uncountable rules run first and any
// match clears countability. Strip rules then run in list order, each removing
// only its first match from the running description.
func (s *RuleSet) Apply(tx transaction.Canonical) transaction.Draft {
	draft := transaction.Draft{Canonical: tx, IsCountable: true}

	for _, re := range s.uncount {
		if re.MatchString(bounded(tx.Description)) {
			draft.IsCountable = false
			break
		}
	}

	desc := tx.Description
	stripped := false
	for _, re := range s.strip {
		loc := re.FindStringIndex(bounded(desc))
		if loc == nil || loc[0] == loc[1] {
			continue
		}
		desc = desc[:loc[0]] + desc[loc[1]:]
		stripped = true
	}
	// Only the ends are trimmed. A description stripped down to nothing keeps
	// its original text.
	if stripped {
		if cleaned := strings.TrimSpace(desc); cleaned != "" {
			draft.Description = cleaned
		}
	}

	return draft
}

// Apply compiles rules for the transaction's account and applies them once.
func Apply(accountID string, tx transaction.Canonical, rules []*Rule) transaction.Draft {
	return Compile(accountID, rules).Apply(tx)
}

// bounded returns at most MaxEvaluatedLength bytes of s, cut at a rune start.
func bounded(s string) string {
	if len(s) <= MaxEvaluatedLength {
		return s
	}
	n := MaxEvaluatedLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
