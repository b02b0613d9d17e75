package importrule

import (
	"context"
	"fmt"
)

// Service handles validation and access for import rules
type Service struct {
	repo Repository
}

// NewService creates a new import rule service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateRule validates a rule at the persistence boundary and stores it.
func (s *Service) CreateRule(ctx context.Context, params CreateRuleParams) (*Rule, error) {
	kind, err := ParseKind(string(params.Kind))
	if err != nil {
		return nil, err
	}
	params.Kind = kind

	if err := params.Validate(); err != nil {
		return nil, err
	}

	rule, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create import rule: %w", err)
	}
	return rule, nil
}

// ListRules returns the rules of an account in application order.
func (s *Service) ListRules(ctx context.Context, accountID string) ([]*Rule, error) {
	return s.repo.ListByAccountID(ctx, accountID)
}

// DeleteRule deletes a rule after checking it belongs to accountID.
func (s *Service) DeleteRule(ctx context.Context, accountID string, ruleID int64) error {
	rules, err := s.repo.ListByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if r.ID == ruleID {
			return s.repo.Delete(ctx, ruleID)
		}
	}
	return ErrRuleNotFound
}
