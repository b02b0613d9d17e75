package importrule

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRuleRepo implements Repository for testing
type MockRuleRepo struct {
	CreateFunc          func(ctx context.Context, params CreateRuleParams) (*Rule, error)
	ListByAccountIDFunc func(ctx context.Context, accountID string) ([]*Rule, error)
	DeleteFunc          func(ctx context.Context, id int64) error
}

func (m *MockRuleRepo) Create(ctx context.Context, params CreateRuleParams) (*Rule, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}
func (m *MockRuleRepo) ListByAccountID(ctx context.Context, accountID string) ([]*Rule, error) {
	if m.ListByAccountIDFunc != nil {
		return m.ListByAccountIDFunc(ctx, accountID)
	}
	return nil, nil
}
func (m *MockRuleRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func TestCreateRule(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		params  CreateRuleParams
		wantErr error
	}{
		{
			name:   "valid strip rule",
			params: CreateRuleParams{AccountID: "acc-1", Kind: KindStripSubstring, Pattern: `^POS\s+`},
		},
		{
			name:    "unknown kind",
			params:  CreateRuleParams{AccountID: "acc-1", Kind: "rename", Pattern: `x`},
			wantErr: ErrInvalidKind,
		},
		{
			name:    "uncompilable pattern",
			params:  CreateRuleParams{AccountID: "acc-1", Kind: KindMarkUncountable, Pattern: `(`},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "empty pattern",
			params:  CreateRuleParams{AccountID: "acc-1", Kind: KindMarkUncountable},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "oversized pattern",
			params:  CreateRuleParams{AccountID: "acc-1", Kind: KindMarkUncountable, Pattern: strings.Repeat("a", MaxPatternLength+1)},
			wantErr: ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := &MockRuleRepo{
				CreateFunc: func(ctx context.Context, params CreateRuleParams) (*Rule, error) {
					created = true
					return &Rule{ID: 7, AccountID: params.AccountID, Kind: params.Kind, Pattern: params.Pattern}, nil
				},
			}

			rule, err := NewService(repo).CreateRule(ctx, tt.params)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.False(t, created, "invalid rule must not reach the repository")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), rule.ID)
		})
	}
}

func TestDeleteRule_ChecksOwnership(t *testing.T) {
	ctx := context.Background()
	deleted := int64(0)
	repo := &MockRuleRepo{
		ListByAccountIDFunc: func(ctx context.Context, accountID string) ([]*Rule, error) {
			return []*Rule{{ID: 1, AccountID: accountID}}, nil
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	svc := NewService(repo)

	assert.ErrorIs(t, svc.DeleteRule(ctx, "acc-1", 2), ErrRuleNotFound)
	assert.Zero(t, deleted)

	require.NoError(t, svc.DeleteRule(ctx, "acc-1", 1))
	assert.Equal(t, int64(1), deleted)
}
