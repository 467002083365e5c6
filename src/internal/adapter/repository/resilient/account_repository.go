// Package resilient wraps an account store with a per-call timeout and a
// circuit breaker.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/sony/gobreaker"
)

type Settings struct {
	Name        string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

type AccountRepository struct {
	next    repo_interfaces.AccountRepository
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(next repo_interfaces.AccountRepository, settings Settings) *AccountRepository {
	if settings.Name == "" {
		settings.Name = "account-store"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}

	maxFailures := settings.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("account store circuit breaker state change", logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &AccountRepository{
		next:    next,
		breaker: breaker,
		timeout: settings.Timeout,
	}
}

func (r *AccountRepository) GetByAccountName(ctx context.Context, accountName string) (domain.Account, error) {
	out, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return r.next.GetByAccountName(ctx, accountName)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return out.(domain.Account), nil
}

func (r *AccountRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	out, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return r.next.Save(ctx, account)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return out.(domain.Account), nil
}

func (r *AccountRepository) SaveAll(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	out, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return r.next.SaveAll(ctx, accounts...)
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.Account), nil
}

func (r *AccountRepository) State() gobreaker.State {
	return r.breaker.State()
}

func (r *AccountRepository) execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("account store circuit %s: %w", r.breaker.State().String(), err)
	}
	return out, err
}

// isSuccessful keeps outcomes caused by the caller or by a competing writer
// from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, commons.ErrRecordNotFound) ||
		errors.Is(err, commons.ErrDuplicateRecord) ||
		errors.Is(err, commons.ErrStaleRecord) ||
		errors.Is(err, commons.ErrValueOutOfRange) ||
		errors.Is(err, context.Canceled)
}
