package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/google/uuid"
)

// AccountRepository keeps accounts in a map keyed by exact account name.
// Values are cloned on the way in and out so callers never share state with
// the store.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	now      func() time.Time
}

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]domain.Account),
		now:      time.Now,
	}
}

func (r *AccountRepository) GetByAccountName(ctx context.Context, accountName string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[accountName]
	if !ok {
		return domain.Account{}, commons.ErrRecordNotFound
	}
	return account.Clone(), nil
}

func (r *AccountRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	saved, err := r.SaveAll(ctx, account)
	if err != nil {
		return domain.Account{}, err
	}
	return saved[0], nil
}

func (r *AccountRepository) SaveAll(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	staged := make(map[string]domain.Account, len(accounts))
	out := make([]domain.Account, 0, len(accounts))

	for _, account := range accounts {
		existing, exists := r.accounts[account.AccountName]
		if account.ID == "" {
			if _, dup := staged[account.AccountName]; exists || dup {
				return nil, fmt.Errorf("save account %q: %w", account.AccountName, commons.ErrDuplicateRecord)
			}
			account.ID = uuid.NewString()
			account.CreatedAt = now
		} else {
			if !exists || existing.ID != account.ID {
				return nil, fmt.Errorf("save account %q: %w", account.AccountName, commons.ErrRecordNotFound)
			}
			if existing.Version != account.Version {
				return nil, fmt.Errorf("save account %q: %w", account.AccountName, commons.ErrStaleRecord)
			}
			account.CreatedAt = existing.CreatedAt
			account.Version++
		}
		account.UpdatedAt = now

		staged[account.AccountName] = account.Clone()
		out = append(out, account.Clone())
	}

	for name, account := range staged {
		r.accounts[name] = account
	}

	return out, nil
}
