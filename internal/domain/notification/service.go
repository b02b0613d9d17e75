package notification

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"moneyflow/internal/domain/account"
	"moneyflow/internal/domain/transaction"
)

// Service publishes import notifications
type Service struct {
	messenger Messenger
}

// NewService creates a new notification service
func NewService(messenger Messenger) *Service {
	return &Service{messenger: messenger}
}

// ImportCompleted tells devices following the account that its ledger changed.
func (s *Service) ImportCompleted(ctx context.Context, acct *account.Account, added, removed []*transaction.LedgerTransaction) error {
	if acct == nil || acct.ID == "" {
		return ErrInvalidTopic
	}

	summary := ImportSummary{AccountID: acct.ID, FamilyID: acct.FamilyID, Added: len(added), Removed: len(removed)}
	title := "Statement imported"
	body := fmt.Sprintf("%d transactions imported", summary.Added)
	if summary.Removed > 0 {
		body = fmt.Sprintf("%d transactions imported, %d replaced", summary.Added, summary.Removed)
	}

	if err := s.messenger.SendToTopic(ctx, AccountTopic(acct.ID), title, body, summary.Data()); err != nil {
		return fmt.Errorf("failed to send import notification: %w", err)
	}

	log.Debug("import notification sent", "account", acct.ID, "added", summary.Added, "removed", summary.Removed)
	return nil
}
