package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AccountRepository struct {
	db *sql.DB
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByAccountName(ctx context.Context, accountName string) (domain.Account, error) {
	logger.Info("account repository get by account name", logger.Fields{
		"accountName": accountName,
	})

	const query = `
SELECT id, account_name, account_password, balance, permissions, version, created_at, updated_at
FROM accounts
WHERE account_name = $1`

	var account domain.Account
	if err := scanAccount(r.db.QueryRowContext(ctx, query, accountName), &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountName": accountName,
			})
			return domain.Account{}, commons.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"accountName": accountName,
		})
		return domain.Account{}, fmt.Errorf("get account by account name: %w", err)
	}

	logger.Info("account repository get success", logger.Fields{
		"accountId":   account.ID,
		"accountName": account.AccountName,
	})

	return account, nil
}

func (r *AccountRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	return save(ctx, r.db, account)
}

func (r *AccountRepository) SaveAll(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	logger.Info("account repository save all", logger.Fields{
		"count": len(accounts),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("account repository save all begin tx failed", err, nil)
		return nil, fmt.Errorf("begin save accounts tx: %w", err)
	}

	saved := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		out, err := save(ctx, tx, account)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		saved = append(saved, out)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("account repository save all commit failed", err, nil)
		return nil, fmt.Errorf("commit save accounts tx: %w", err)
	}

	logger.Info("account repository save all success", logger.Fields{
		"count": len(saved),
	})

	return saved, nil
}

func save(ctx context.Context, q rowQuerier, account domain.Account) (domain.Account, error) {
	if account.ID == "" {
		return insert(ctx, q, account)
	}
	return update(ctx, q, account)
}

func insert(ctx context.Context, q rowQuerier, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"accountName": account.AccountName,
	})

	const query = `
INSERT INTO accounts (
	id,
	account_name,
	account_password,
	balance,
	permissions
) VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at`

	id := uuid.NewString()
	var createdAt time.Time
	var updatedAt time.Time

	if err := q.QueryRowContext(
		ctx,
		query,
		id,
		account.AccountName,
		account.AccountPassword,
		account.Balance,
		pq.Array(permissionStrings(account.Permissions)),
	).Scan(&createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			logger.Info("account repository create duplicate", logger.Fields{
				"accountName": account.AccountName,
			})
			return domain.Account{}, fmt.Errorf("create account: %w", commons.ErrDuplicateRecord)
		}
		if isNumericOutOfRange(err) {
			logger.Info("account repository create balance out of range", logger.Fields{
				"accountName": account.AccountName,
			})
			return domain.Account{}, fmt.Errorf("create account: %w", commons.ErrValueOutOfRange)
		}
		logger.Error("account repository create failed", err, logger.Fields{
			"accountName": account.AccountName,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.ID = id
	account.Version = 0
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt
	logger.Info("account repository create success", logger.Fields{
		"accountId":   account.ID,
		"accountName": account.AccountName,
	})

	return account, nil
}

// update writes the account only if its stored version still equals
// account.Version, and bumps the version on success.
func update(ctx context.Context, q rowQuerier, account domain.Account) (domain.Account, error) {
	logger.Info("account repository update", logger.Fields{
		"accountId":   account.ID,
		"accountName": account.AccountName,
		"balance":     account.Balance.StringFixed(2),
		"version":     account.Version,
	})

	const query = `
UPDATE accounts
SET account_password = $2,
    balance = $3,
    permissions = $4,
    version = version + 1,
    updated_at = NOW()
WHERE id = $1 AND version = $5
RETURNING version, created_at, updated_at`

	var version int64
	var createdAt time.Time
	var updatedAt time.Time

	if err := q.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.AccountPassword,
		account.Balance,
		pq.Array(permissionStrings(account.Permissions)),
		account.Version,
	).Scan(&version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, missedUpdate(ctx, q, account)
		}
		if isNumericOutOfRange(err) {
			logger.Info("account repository update balance out of range", logger.Fields{
				"accountId": account.ID,
			})
			return domain.Account{}, fmt.Errorf("update account: %w", commons.ErrValueOutOfRange)
		}
		logger.Error("account repository update failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}

	account.Version = version
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt
	logger.Info("account repository update success", logger.Fields{
		"accountId": account.ID,
		"version":   account.Version,
	})

	return account, nil
}

// missedUpdate tells a deleted row apart from one whose version moved on.
func missedUpdate(ctx context.Context, q rowQuerier, account domain.Account) error {
	var current int64
	err := q.QueryRowContext(ctx, `SELECT version FROM accounts WHERE id = $1`, account.ID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Info("account repository record not found for update", logger.Fields{
			"accountId": account.ID,
		})
		return commons.ErrRecordNotFound
	case err != nil:
		logger.Error("account repository version lookup failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return fmt.Errorf("look up account version: %w", err)
	}

	logger.Info("account repository stale update", logger.Fields{
		"accountId":       account.ID,
		"expectedVersion": account.Version,
		"currentVersion":  current,
	})
	return fmt.Errorf("update account: %w", commons.ErrStaleRecord)
}

func scanAccount(row rowScanner, account *domain.Account) error {
	var permissions []string
	if err := row.Scan(
		&account.ID,
		&account.AccountName,
		&account.AccountPassword,
		&account.Balance,
		pq.Array(&permissions),
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return err
	}

	account.Permissions = make([]domain.Permission, 0, len(permissions))
	for _, p := range permissions {
		account.Permissions = append(account.Permissions, domain.Permission(p))
	}
	return nil
}

func permissionStrings(permissions []domain.Permission) []string {
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		out = append(out, string(p))
	}
	return out
}
