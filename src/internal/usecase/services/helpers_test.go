package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/lock"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/security"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingRepository struct {
	repo_interfaces.AccountRepository
	mu      sync.Mutex
	lookups int
	writes  int
	failGet error
	failPut error
}

func (r *countingRepository) GetByAccountName(ctx context.Context, accountName string) (domain.Account, error) {
	r.mu.Lock()
	r.lookups++
	fail := r.failGet
	r.mu.Unlock()
	if fail != nil {
		return domain.Account{}, fail
	}
	return r.AccountRepository.GetByAccountName(ctx, accountName)
}

func (r *countingRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	r.writes++
	fail := r.failPut
	r.mu.Unlock()
	if fail != nil {
		return domain.Account{}, fail
	}
	return r.AccountRepository.Save(ctx, account)
}

func (r *countingRepository) SaveAll(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	r.mu.Lock()
	r.writes++
	fail := r.failPut
	r.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return r.AccountRepository.SaveAll(ctx, accounts...)
}

func (r *countingRepository) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups, r.writes = 0, 0
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) recorded() []domain.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.LedgerEvent(nil), p.events...)
}

type fixture struct {
	repo      *countingRepository
	publisher *recordingPublisher
	hasher    *security.BcryptHasher
	ledger    *services.LedgerService
	auth      *services.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &countingRepository{AccountRepository: memory.NewAccountRepository()}
	publisher := &recordingPublisher{}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	return &fixture{
		repo:      repo,
		publisher: publisher,
		hasher:    hasher,
		ledger:    services.NewLedgerService(repo, lock.NewLocalLocker(), hasher, publisher),
		auth:      services.NewAuthService(repo, hasher),
	}
}

func (f *fixture) open(t *testing.T, name string, balance string) {
	t.Helper()
	req := models.CreateAccountRequest{
		AccountName:     models.String(name),
		AccountPassword: models.String("pw-" + name),
	}
	if balance != "" {
		req.AccountBalance = models.String(balance)
	}
	_, err := f.ledger.CreateAccount(context.Background(), req)
	require.NoError(t, err)
	f.repo.reset()
}

func (f *fixture) balance(t *testing.T, name string) string {
	t.Helper()
	account, err := f.repo.AccountRepository.GetByAccountName(context.Background(), name)
	require.NoError(t, err)
	return account.Balance.StringFixed(2)
}

func (f *fixture) login(t *testing.T, name string) context.Context {
	t.Helper()
	ctx, err := f.auth.Authenticate(context.Background(), name, "pw-"+name)
	require.NoError(t, err)
	return ctx
}

func kindOf(err error) domain.ErrorKind {
	return domain.KindOf(err)
}
