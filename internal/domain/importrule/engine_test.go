package importrule

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"moneyflow/internal/domain/transaction"
)

func canonical(desc string) transaction.Canonical {
	return transaction.Canonical{
		Description:      desc,
		AmountMinorUnits: 1299,
		Currency:         "EUR",
		Direction:        transaction.Expense,
		OccurredAt:       time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func rule(kind Kind, pattern string) *Rule {
	return &Rule{AccountID: "acc-1", Kind: kind, Pattern: pattern}
}

func TestApply_NoRules(t *testing.T) {
	got := Apply("acc-1", canonical("Coffee  Shop"), nil)

	assert.True(t, got.IsCountable)
	assert.Equal(t, "Coffee  Shop", got.Description)
	assert.Equal(t, int64(1299), got.AmountMinorUnits)
}

func TestApply_MarkUncountableAnyMatchWins(t *testing.T) {
	rules := []*Rule{
		rule(KindMarkUncountable, `^NOPE`),
		rule(KindMarkUncountable, `(?i)transfer`),
		rule(KindMarkUncountable, `own account`),
	}

	got := Apply("acc-1", canonical("Transfer to own account"), rules)
	assert.False(t, got.IsCountable)

	got = Apply("acc-1", canonical("Groceries"), rules)
	assert.True(t, got.IsCountable)
}

func TestApply_StripRemovesOnlyFirstMatch(t *testing.T) {
	rules := []*Rule{rule(KindStripSubstring, `X{2}`)}

	got := Apply("acc-1", canonical("AXXBXXC"), rules)
	assert.Equal(t, "ABXXC", got.Description)
}

func TestApply_StripRunsInListOrder(t *testing.T) {
	rules := []*Rule{
		rule(KindStripSubstring, `^POS `),
		rule(KindStripSubstring, `^\d{4} `),
	}

	got := Apply("acc-1", canonical("POS 1234 Coffee Shop"), rules)
	assert.Equal(t, "Coffee Shop", got.Description)

	// Reversed order: the digit rule no longer matches at the start.
	reversed := []*Rule{rules[1], rules[0]}
	got = Apply("acc-1", canonical("POS 1234 Coffee Shop"), reversed)
	assert.Equal(t, "1234 Coffee Shop", got.Description)
}

func TestApply_NonMatchingPatternIsNoOp(t *testing.T) {
	rules := []*Rule{
		rule(KindStripSubstring, `zzz`),
		rule(KindMarkUncountable, `zzz`),
	}

	in := canonical("Coffee   Shop")
	got := Apply("acc-1", in, rules)
	assert.Equal(t, in, got.Canonical)
	assert.True(t, got.IsCountable)
}

func TestApply_MarkPassRunsBeforeStrip(t *testing.T) {
	// The strip rule is listed first but removes the text the mark rule matches;
	// mark-uncountable still sees the recovered description.
	rules := []*Rule{
		rule(KindStripSubstring, `INTERNAL `),
		rule(KindMarkUncountable, `^INTERNAL`),
	}

	got := Apply("acc-1", canonical("INTERNAL Savings"), rules)
	assert.False(t, got.IsCountable)
	assert.Equal(t, "Savings", got.Description)
}

func TestApply_StripToEmptyKeepsOriginal(t *testing.T) {
	got := Apply("acc-1", canonical("FEE"), []*Rule{rule(KindStripSubstring, `FEE`)})
	assert.Equal(t, "FEE", got.Description)
}

func TestApply_IgnoresOtherAccountsAndBrokenPatterns(t *testing.T) {
	rules := []*Rule{
		{AccountID: "acc-2", Kind: KindMarkUncountable, Pattern: `.*`},
		rule(KindStripSubstring, `([unclosed`),
		rule(KindStripSubstring, `Shop`),
	}

	set := Compile("acc-1", rules)
	assert.Equal(t, 1, set.Len())

	got := set.Apply(canonical("Coffee Shop"))
	assert.True(t, got.IsCountable)
	assert.Equal(t, "Coffee", got.Description)
}

func TestApply_EvaluatesBoundedPrefix(t *testing.T) {
	long := strings.Repeat("a", MaxEvaluatedLength) + "TAIL"
	got := Apply("acc-1", canonical(long), []*Rule{rule(KindMarkUncountable, `TAIL`)})
	assert.True(t, got.IsCountable)
}

func TestApply_StripKeepsInnerWhitespace(t *testing.T) {
	got := Apply("acc-1", canonical("Shop  No.5   XX"), []*Rule{rule(KindStripSubstring, `XX`)})
	assert.Equal(t, "Shop  No.5", got.Description)

	got = Apply("acc-1", canonical("XX  Shop\tNo.5"), []*Rule{rule(KindStripSubstring, `XX`)})
	assert.Equal(t, "Shop\tNo.5", got.Description)
}

func TestBounded_CutsAtRuneBoundary(t *testing.T) {
	// "é" is two bytes and straddles the evaluation limit.
	s := strings.Repeat("a", MaxEvaluatedLength-1) + "é" + "tail"

	b := bounded(s)
	assert.True(t, utf8.ValidString(b))
	assert.Equal(t, MaxEvaluatedLength-1, len(b))

	assert.Equal(t, "short", bounded("short"))
	exact := strings.Repeat("é", MaxEvaluatedLength/2)
	assert.Equal(t, exact, bounded(exact))
}

func TestApply_StripNearLimitLeavesValidText(t *testing.T) {
	s := strings.Repeat("a", MaxEvaluatedLength-1) + "é" + "tail"

	got := Apply("acc-1", canonical(s), []*Rule{rule(KindStripSubstring, `a+$`)})
	assert.True(t, utf8.ValidString(got.Description))
	assert.Equal(t, "étail", got.Description)

	got = Apply("acc-1", canonical(s), []*Rule{rule(KindMarkUncountable, `é`)})
	assert.True(t, got.IsCountable)
}
