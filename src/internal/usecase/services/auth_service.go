package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/session"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

// AuthService verifies account credentials and binds the authenticated
// account to the caller's context.
type AuthService struct {
	accountRepo repo_interfaces.AccountRepository
	hasher      domain.PasswordHasher
}

var _ service_interfaces.AuthService = (*AuthService)(nil)

func NewAuthService(accountRepo repo_interfaces.AccountRepository, hasher domain.PasswordHasher) *AuthService {
	return &AuthService{accountRepo: accountRepo, hasher: hasher}
}

func (s *AuthService) Authenticate(ctx context.Context, accountName string, secret string) (context.Context, error) {
	accountName = strings.TrimSpace(accountName)
	logger.Info("auth service authenticate request", logger.Fields{
		"accountName": accountName,
	})

	if accountName == "" || secret == "" {
		return ctx, domain.Unauthenticated("account name and password are required")
	}

	account, err := s.accountRepo.GetByAccountName(ctx, accountName)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			logger.Info("auth service unknown account", logger.Fields{
				"accountName": accountName,
			})
			return ctx, domain.Unauthenticated("invalid account credentials")
		}
		logger.Error("auth service account lookup failed", err, logger.Fields{
			"accountName": accountName,
		})
		return ctx, domain.StoreUnavailable("look up account", err)
	}

	ok, err := s.hasher.Compare(account.AccountPassword, secret)
	if err != nil {
		logger.Error("auth service compare failed", err, logger.Fields{
			"accountName": accountName,
		})
		return ctx, domain.Internal("verify account credentials", err)
	}
	if !ok {
		logger.Info("auth service password mismatch", logger.Fields{
			"accountName": accountName,
		})
		return ctx, domain.Unauthenticated("invalid account credentials")
	}

	logger.Info("auth service authenticate success", logger.Fields{
		"accountName": account.AccountName,
	})

	return session.WithAccount(ctx, account.AccountName), nil
}
