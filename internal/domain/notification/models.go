package notification

import (
	"errors"
	"strconv"
)

// Notification categories
const (
	CategoryTransactions = "transactions"
)

var ErrInvalidTopic = errors.New("notification topic is required")

// ImportSummary describes a finished statement import.
type ImportSummary struct {
	AccountID string
	FamilyID  string
	Added     int
	Removed   int
}

// AccountTopic is the topic devices following an account subscribe to.
func AccountTopic(accountID string) string {
	return "account-" + accountID
}

// Data renders the summary as an FCM data payload.
func (s ImportSummary) Data() map[string]string {
	return map[string]string{
		"category":  CategoryTransactions,
		"accountId": s.AccountID,
		"familyId":  s.FamilyID,
		"added":     strconv.Itoa(s.Added),
		"removed":   strconv.Itoa(s.Removed),
	}
}
