package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/lock"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/security"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stallingRepository pauses the first lookup of a named account after
// expiring every lock in Redis, so that a second writer can run in between.
type stallingRepository struct {
	repo_interfaces.AccountRepository
	mr      *miniredis.Miniredis
	target  string
	fired   atomic.Bool
	stalled chan struct{}
	resume  chan struct{}
}

func (r *stallingRepository) GetByAccountName(ctx context.Context, accountName string) (domain.Account, error) {
	account, err := r.AccountRepository.GetByAccountName(ctx, accountName)
	if accountName == r.target && r.fired.CompareAndSwap(false, true) {
		r.mr.FastForward(11 * time.Second)
		close(r.stalled)
		<-r.resume
	}
	return account, err
}

func TestDepositSurvivesExpiredRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stallingRepository{
		AccountRepository: memory.NewAccountRepository(),
		mr:                mr,
		stalled:           make(chan struct{}),
		resume:            make(chan struct{}),
	}
	ledger := services.NewLedgerService(
		repo,
		lock.NewRedisLocker(client, lock.DefaultRedisLockOptions()),
		security.NewBcryptHasher(bcrypt.MinCost),
		nil,
	)

	_, err := ledger.CreateAccount(context.Background(), models.CreateAccountRequest{
		AccountName:     models.String("A"),
		AccountPassword: models.String("pw"),
		AccountBalance:  models.String("100"),
	})
	require.NoError(t, err)
	repo.target = "A"

	firstDone := make(chan error, 1)
	go func() {
		_, err := ledger.Deposit(context.Background(), models.DepositRequest{
			AccountName: models.String("A"),
			Amount:      models.String("10"),
		})
		firstDone <- err
	}()

	<-repo.stalled
	_, err = ledger.Deposit(context.Background(), models.DepositRequest{
		AccountName: models.String("A"),
		Amount:      models.String("20"),
	})
	require.NoError(t, err)
	close(repo.resume)
	require.NoError(t, <-firstDone)

	account, err := repo.AccountRepository.GetByAccountName(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "130.00", account.Balance.StringFixed(2))
}

// interferingRepository credits the named account behind the caller's back
// right before the first batch write, making that batch stale.
type interferingRepository struct {
	repo_interfaces.AccountRepository
	target string
	fired  atomic.Bool
}

func (r *interferingRepository) SaveAll(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	if r.fired.CompareAndSwap(false, true) {
		current, err := r.AccountRepository.GetByAccountName(ctx, r.target)
		if err != nil {
			return nil, err
		}
		current.Balance = current.Balance.Add(decimal.NewFromInt(5))
		if _, err := r.AccountRepository.Save(ctx, current); err != nil {
			return nil, err
		}
	}
	return r.AccountRepository.SaveAll(ctx, accounts...)
}

func TestTransferRetriesAfterStaleWrite(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	repo := &interferingRepository{AccountRepository: memory.NewAccountRepository(), target: "B"}
	ledger := services.NewLedgerService(repo, lock.NewLocalLocker(), hasher, nil)
	auth := services.NewAuthService(repo, hasher)

	for name, balance := range map[string]string{"A": "100", "B": "0"} {
		_, err := ledger.CreateAccount(context.Background(), models.CreateAccountRequest{
			AccountName:     models.String(name),
			AccountPassword: models.String("pw"),
			AccountBalance:  models.String(balance),
		})
		require.NoError(t, err)
	}
	ctx, err := auth.Authenticate(context.Background(), "A", "pw")
	require.NoError(t, err)

	_, err = ledger.Transfer(ctx, models.TransferRequest{
		DestinationAccountName: models.String("B"),
		Amount:                 models.String("10"),
	})
	require.NoError(t, err)

	a, err := repo.AccountRepository.GetByAccountName(context.Background(), "A")
	require.NoError(t, err)
	b, err := repo.AccountRepository.GetByAccountName(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "90.00", a.Balance.StringFixed(2))
	assert.Equal(t, "15.00", b.Balance.StringFixed(2))
}

func TestOversizedAmountsAreInvalid(t *testing.T) {
	f := newFixture(t)
	f.open(t, "A", "999999999999999990")
	f.open(t, "B", "100")

	_, err := f.ledger.CreateAccount(context.Background(), models.CreateAccountRequest{
		AccountName:     models.String("C"),
		AccountPassword: models.String("pw"),
		AccountBalance:  models.String("1e20"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.ledger.Deposit(context.Background(), models.DepositRequest{
		AccountName: models.String("B"),
		Amount:      models.String("1e20"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.ledger.Deposit(context.Background(), models.DepositRequest{
		AccountName: models.String("A"),
		Amount:      models.String("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.ledger.Transfer(f.login(t, "B"), models.TransferRequest{
		DestinationAccountName: models.String("A"),
		Amount:                 models.String("10"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.Equal(t, "999999999999999990.00", f.balance(t, "A"))
	assert.Equal(t, "100.00", f.balance(t, "B"))
	assert.Zero(t, f.repo.writes)
}
