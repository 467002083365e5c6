package repo_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

// AccountRepository is the durable account store. GetByAccountName returns
// commons.ErrRecordNotFound when no account has that exact name. Save inserts
// an account without an ID and updates one with an ID; inserting a name that
// already exists returns commons.ErrDuplicateRecord. SaveAll persists every
// account or none of them.
type AccountRepository interface {
	GetByAccountName(ctx context.Context, accountName string) (domain.Account, error)
	Save(ctx context.Context, account domain.Account) (domain.Account, error)
	SaveAll(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error)
}
