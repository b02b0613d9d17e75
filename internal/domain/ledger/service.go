package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/importrule"
	"moneyflow/internal/domain/money"
	"moneyflow/internal/domain/transaction"
)

// ErrInsufficientBatch is returned for a statement with fewer than two
// transactions, which cannot define a reconciliation window.
var ErrInsufficientBatch = errors.New("at least two transactions are required to reconcile a statement")

var (
	importTracer    = otel.Tracer("moneyflow/ledger")
	importMeter     = otel.Meter("moneyflow/ledger")
	importTotal, _  = importMeter.Int64Counter("ledger.import.total", metric.WithDescription("Statement imports by outcome"))
	importedRows, _ = importMeter.Int64Counter("ledger.import.rows_added", metric.WithDescription("Ledger rows inserted by imports"))
	replacedRows, _ = importMeter.Int64Counter("ledger.import.rows_removed", metric.WithDescription("Imported ledger rows replaced by re-imports"))
)

// StatementParser turns raw statement bytes into canonical transactions.
type StatementParser interface {
	Parse(ctx context.Context, data []byte, acct *account.Account) ([]transaction.Canonical, error)
}

// Notifier is told about committed imports.
type Notifier interface {
	ImportCompleted(ctx context.Context, acct *account.Account, added, removed []*transaction.LedgerTransaction) error
}

// ImportResult is the outcome of a reconciliation. Removed holds the replaced
// rows as they were before the import, Added the rows that replaced them.
type ImportResult struct {
	AccountID   string
	From        time.Time
	To          time.Time
	Added       []*transaction.LedgerTransaction
	Removed     []*transaction.LedgerTransaction
	Uncountable int
}

// AddedCount returns the number of inserted rows.
func (r *ImportResult) AddedCount() int { return len(r.Added) }

// RemovedCount returns the number of replaced rows.
func (r *ImportResult) RemovedCount() int { return len(r.Removed) }

// Service reconciles parsed statements against an account's ledger.
type Service struct {
	accounts   account.Repository
	rules      importrule.Repository
	ledger     transaction.Repository
	normalizer *money.Normalizer
	parser     StatementParser
	notifier   Notifier
	newID      func() string
}

// NewService creates a ledger service. parser and notifier may be nil.
func NewService(
	accounts account.Repository,
	rules importrule.Repository,
	ledger transaction.Repository,
	normalizer *money.Normalizer,
	parser StatementParser,
	notifier Notifier,
) *Service {
	return &Service{
		accounts:   accounts,
		rules:      rules,
		ledger:     ledger,
		normalizer: normalizer,
		parser:     parser,
		notifier:   notifier,
		newID:      uuid.NewString,
	}
}

// ImportTransactions replaces the account's imported rows inside the
// statement's date window with the statement's transactions. Re-importing the
// same statement is idempotent. Nothing is deleted unless the whole batch was
// prepared and the store commits the replacement atomically.
func (s *Service) ImportTransactions(ctx context.Context, acct *account.Account, txs []transaction.Canonical) (result *ImportResult, err error) {
	ctx, span := importTracer.Start(ctx, "ledger.ImportTransactions")
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		importTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		span.End()
	}()

	if acct == nil {
		return nil, account.ErrAccountNotFound
	}
	span.SetAttributes(attribute.String("account.id", acct.ID), attribute.Int("batch.size", len(txs)))

	if len(txs) < 2 {
		return nil, ErrInsufficientBatch
	}
	from, to := window(txs)

	base, err := s.accounts.FamilyBaseCurrency(ctx, acct.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family base currency: %w", err)
	}

	rules, err := s.rules.ListByAccountID(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load import rules: %w", err)
	}
	ruleSet := importrule.Compile(acct.ID, rules)

	rows := make([]transaction.CreateLedgerParams, 0, len(txs))
	uncountable := 0
	for i, tx := range txs {
		draft := ruleSet.Apply(tx)
		if !draft.IsCountable {
			uncountable++
		}

		amounts, err := s.normalizer.Normalize(ctx, draft.AmountMinorUnits, draft.Currency, base, money.On(draft.OccurredAt))
		if err != nil {
			return nil, fmt.Errorf("failed to normalize transaction %d: %w", i+1, err)
		}

		rows = append(rows, transaction.CreateLedgerParams{
			ID:                   s.newID(),
			AccountID:            acct.ID,
			Source:               transaction.SourceImported,
			IsCountable:          draft.IsCountable,
			Description:          draft.Description,
			Info:                 draft.Info,
			AmountMinorUnits:     amounts.AmountMinorUnits,
			Currency:             draft.Currency,
			BaseAmountMinorUnits: amounts.BaseAmountMinorUnits,
			BaseCurrency:         base,
			Direction:            draft.Direction,
			OccurredAt:           draft.OccurredAt,
		})
	}

	removed, inserted, err := s.ledger.ReplaceWindow(ctx, acct.ID, from, to, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to replace imported window: %w", err)
	}

	result = &ImportResult{
		AccountID:   acct.ID,
		From:        from,
		To:          to,
		Added:       inserted,
		Removed:     removed,
		Uncountable: uncountable,
	}
	importedRows.Add(ctx, int64(result.AddedCount()))
	replacedRows.Add(ctx, int64(result.RemovedCount()))

	log.Info("statement imported",
		"account", acct.ID, "from", from.Format(time.DateOnly), "to", to.Format(time.DateOnly),
		"added", result.AddedCount(), "removed", result.RemovedCount(), "uncountable", uncountable)

	if s.notifier != nil {
		if err := s.notifier.ImportCompleted(ctx, acct, result.Added, result.Removed); err != nil {
			log.Warn("import notification failed", "account", acct.ID, "err", err)
		}
	}

	return result, nil
}

// ImportFile loads the account, parses data with its bank format and imports
// the result.
func (s *Service) ImportFile(ctx context.Context, accountID string, data []byte) (*ImportResult, error) {
	if s.parser == nil {
		return nil, errors.New("no statement parser configured")
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := acct.Validate(); err != nil {
		return nil, fmt.Errorf("account %s cannot import statements: %w", accountID, err)
	}

	txs, err := s.parser.Parse(ctx, data, acct)
	if err != nil {
		return nil, err
	}
	return s.ImportTransactions(ctx, acct, txs)
}

// window returns the inclusive [earliest, latest] occurrence range.
func window(txs []transaction.Canonical) (time.Time, time.Time) {
	from, to := txs[0].OccurredAt, txs[0].OccurredAt
	for _, tx := range txs[1:] {
		if tx.OccurredAt.Before(from) {
			from = tx.OccurredAt
		}
		if tx.OccurredAt.After(to) {
			to = tx.OccurredAt
		}
	}
	return from, to
}
