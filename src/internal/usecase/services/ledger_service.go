package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/session"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	accountCreatedMessage = "account created successfully"
	accountFetchedMessage = "account fetched successfully"
	depositMessage        = "the deposit is completed"
	transferMessage       = "Transfer successful"
)

const maxSaveAttempts = 3

// maxMoney is the exclusive upper bound for balances and amounts: 18 integer
// digits, the width of the accounts.balance column.
var maxMoney = decimal.New(1, 18)

// LedgerService validates and applies account creation, deposits and
// transfers. Every mutation runs under the per-account lock of each account
// it touches, and balance checks are made inside that critical section.
type LedgerService struct {
	accountRepo repo_interfaces.AccountRepository
	locker      domain.AccountLocker
	hasher      domain.PasswordHasher
	publisher   domain.EventPublisher
	now         func() time.Time
}

var _ service_interfaces.LedgerService = (*LedgerService)(nil)

// NewLedgerService builds the service. publisher may be nil, in which case no
// ledger events are emitted.
func NewLedgerService(
	accountRepo repo_interfaces.AccountRepository,
	locker domain.AccountLocker,
	hasher domain.PasswordHasher,
	publisher domain.EventPublisher,
) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		locker:      locker,
		hasher:      hasher,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("ledger service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if req.AccountName == nil {
		return failure[models.AccountResponse]("ledger service create account validation failed", domain.MissingField("accountName"), nil)
	}
	if req.AccountPassword == nil {
		return failure[models.AccountResponse]("ledger service create account validation failed", domain.MissingField("accountPassword"), nil)
	}
	if isBlank(*req.AccountName) {
		return failure[models.AccountResponse]("ledger service create account validation failed", domain.InvalidField("accountName", "cannot be empty"), nil)
	}
	if isBlank(*req.AccountPassword) {
		return failure[models.AccountResponse]("ledger service create account validation failed", domain.InvalidField("accountPassword", "cannot be empty"), nil)
	}

	balance, err := openingBalance(req.AccountBalance)
	if err != nil {
		return failure[models.AccountResponse]("ledger service create account validation failed", err, nil)
	}

	accountName := strings.TrimSpace(*req.AccountName)
	var created domain.Account

	err = s.mutate(ctx, "create account", []string{accountName}, func(ctx context.Context) error {
		_, err := s.accountRepo.GetByAccountName(ctx, accountName)
		switch {
		case err == nil:
			return domain.DuplicateAccount(accountName)
		case !errors.Is(err, commons.ErrRecordNotFound):
			return domain.StoreUnavailable("look up account", err)
		}

		hashed, err := s.hasher.Hash(*req.AccountPassword)
		if err != nil {
			if domain.KindOf(err) != "" {
				return err
			}
			return domain.Internal("hash account secret", err)
		}

		created, err = s.accountRepo.Save(ctx, domain.Account{
			AccountName:     accountName,
			AccountPassword: hashed,
			Balance:         balance,
			Permissions:     domain.DefaultPermissions(),
		})
		if errors.Is(err, commons.ErrDuplicateRecord) {
			return domain.DuplicateAccount(accountName)
		}
		if err != nil {
			return saveFailure("save account", err)
		}
		return nil
	})
	if err != nil {
		return failure[models.AccountResponse]("ledger service create account failed", lockFailure(err), logger.Fields{
			"accountName": accountName,
		})
	}

	s.publish(ctx, domain.LedgerEventAccountCreated, created.AccountName, "", created.Balance, created.Balance)

	logger.Info("ledger service create account success", logger.Fields{
		"accountId":   created.ID,
		"accountName": created.AccountName,
	})

	return commons.SuccessResponse(accountCreatedMessage, toAccountResponse(created)), nil
}

func (s *LedgerService) GetAccount(ctx context.Context, accountName string) (commons.Response[models.AccountResponse], error) {
	logger.Info("ledger service get account request", logger.Fields{
		"accountName": accountName,
	})

	if isBlank(accountName) {
		return failure[models.AccountResponse]("ledger service get account validation failed", domain.InvalidField("accountName", "cannot be empty"), nil)
	}

	account, err := s.find(ctx, strings.TrimSpace(accountName))
	if err != nil {
		return failure[models.AccountResponse]("ledger service get account failed", err, logger.Fields{
			"accountName": accountName,
		})
	}

	return commons.SuccessResponse(accountFetchedMessage, toAccountResponse(account)), nil
}

func (s *LedgerService) Deposit(ctx context.Context, req models.DepositRequest) (commons.Response[models.DepositResponse], error) {
	logger.Info("ledger service deposit request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if req.AccountName == nil {
		return failure[models.DepositResponse]("ledger service deposit validation failed", domain.MissingField("accountName"), nil)
	}
	if req.Amount == nil {
		return failure[models.DepositResponse]("ledger service deposit validation failed", domain.MissingField("amount"), nil)
	}
	if isBlank(*req.AccountName) {
		return failure[models.DepositResponse]("ledger service deposit validation failed", domain.InvalidField("accountName", "cannot be empty"), nil)
	}
	amount, err := parseAmount(*req.Amount)
	if err != nil {
		return failure[models.DepositResponse]("ledger service deposit validation failed", err, nil)
	}
	if !isValidMoney(amount) {
		return failure[models.DepositResponse]("ledger service deposit validation failed", domain.InvalidAmount("deposit amount must be greater than zero, below 10^18 and have at most 2 decimal places"), nil)
	}

	accountName := strings.TrimSpace(*req.AccountName)
	var updated domain.Account

	err = s.mutate(ctx, "deposit", []string{accountName}, func(ctx context.Context) error {
		account, err := s.find(ctx, accountName)
		if err != nil {
			return err
		}

		account.Balance = account.Balance.Add(amount)
		if account.Balance.GreaterThanOrEqual(maxMoney) {
			return domain.InvalidAmount("resulting balance would exceed the supported range")
		}
		updated, err = s.accountRepo.Save(ctx, account)
		if err != nil {
			return saveFailure("save account", err)
		}
		return nil
	})
	if err != nil {
		return failure[models.DepositResponse]("ledger service deposit failed", lockFailure(err), logger.Fields{
			"accountName": accountName,
			"amount":      amount.StringFixed(2),
		})
	}

	s.publish(ctx, domain.LedgerEventFundsDeposited, updated.AccountName, "", amount, updated.Balance)

	response := models.DepositResponse{
		AccountName:     updated.AccountName,
		DepositedAmount: amount.StringFixed(2),
		AccountBalance:  updated.Balance.StringFixed(2),
	}

	logger.Info("ledger service deposit success", logger.Fields{
		"accountName":     response.AccountName,
		"depositedAmount": response.DepositedAmount,
		"accountBalance":  response.AccountBalance,
	})

	return commons.SuccessResponse(depositMessage, response), nil
}

// Transfer moves money from the account bound to ctx's session to the
// destination account. The self-transfer and amount checks run before the
// presence checks on the request fields, so a missing destination combined
// with an over-limit amount reports InvalidAmount.
func (s *LedgerService) Transfer(ctx context.Context, req models.TransferRequest) (commons.Response[models.TransferResponse], error) {
	logger.Info("ledger service transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	sourceName, ok := session.AccountName(ctx)
	if !ok {
		return failure[models.TransferResponse]("ledger service transfer unauthenticated", domain.ErrUnauthenticated, nil)
	}

	lockNames := []string{sourceName}
	if req.DestinationAccountName != nil && !isBlank(*req.DestinationAccountName) {
		lockNames = append(lockNames, strings.TrimSpace(*req.DestinationAccountName))
	}

	var amount decimal.Decimal
	amountParsed := false
	if req.Amount != nil {
		if parsed, err := parseAmount(*req.Amount); err == nil {
			amount, amountParsed = parsed, true
		}
	}

	var source, destination domain.Account

	err := s.mutate(ctx, "transfer", lockNames, func(ctx context.Context) error {
		var err error
		source, err = s.find(ctx, sourceName)
		if err != nil {
			return err
		}

		if req.DestinationAccountName != nil && strings.EqualFold(strings.TrimSpace(*req.DestinationAccountName), source.AccountName) {
			return domain.ErrSelfTransfer
		}
		if amountParsed && (amount.GreaterThan(source.Balance) || !isValidMoney(amount)) {
			return domain.InvalidAmount("transfer amount must be greater than zero, have at most 2 decimal places and not exceed the available balance")
		}

		if req.DestinationAccountName == nil {
			return domain.MissingField("destinationAccountName")
		}
		if req.Amount == nil {
			return domain.MissingField("amount")
		}
		if isBlank(*req.DestinationAccountName) {
			return domain.InvalidField("destinationAccountName", "cannot be empty")
		}
		if !amountParsed {
			_, err := parseAmount(*req.Amount)
			return err
		}

		destination, err = s.find(ctx, strings.TrimSpace(*req.DestinationAccountName))
		if err != nil {
			return err
		}

		source.Balance = source.Balance.Sub(amount)
		destination.Balance = destination.Balance.Add(amount)
		if destination.Balance.GreaterThanOrEqual(maxMoney) {
			return domain.InvalidAmount("destination balance would exceed the supported range")
		}

		saved, err := s.accountRepo.SaveAll(ctx, source, destination)
		if err != nil {
			return saveFailure("save accounts", err)
		}
		source, destination = saved[0], saved[1]
		return nil
	})
	if err != nil {
		return failure[models.TransferResponse]("ledger service transfer failed", lockFailure(err), logger.Fields{
			"sourceAccountName": sourceName,
		})
	}

	s.publish(ctx, domain.LedgerEventFundsTransferred, source.AccountName, destination.AccountName, amount, source.Balance)

	response := models.TransferResponse{
		SourceAccountName:      source.AccountName,
		DestinationAccountName: destination.AccountName,
		TransferredAmount:      amount.StringFixed(2),
		SourceBalance:          source.Balance.StringFixed(2),
	}

	logger.Info("ledger service transfer success", logger.Fields{
		"sourceAccountName":      response.SourceAccountName,
		"destinationAccountName": response.DestinationAccountName,
		"transferredAmount":      response.TransferredAmount,
	})

	return commons.SuccessResponse(transferMessage, response), nil
}

// mutate runs fn under the locks of names and reruns it when the store
// rejects the write because another writer updated the account first.
func (s *LedgerService) mutate(ctx context.Context, operation string, names []string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		err = s.locker.WithLock(ctx, names, fn)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		logger.Info("ledger service concurrent update, retrying", logger.Fields{
			"operation": operation,
			"attempt":   attempt,
		})
	}
	return err
}

func (s *LedgerService) find(ctx context.Context, accountName string) (domain.Account, error) {
	account, err := s.accountRepo.GetByAccountName(ctx, accountName)
	if errors.Is(err, commons.ErrRecordNotFound) {
		return domain.Account{}, domain.AccountNotFound(accountName)
	}
	if err != nil {
		return domain.Account{}, domain.StoreUnavailable("look up account", err)
	}
	return account, nil
}

func (s *LedgerService) publish(ctx context.Context, eventType domain.LedgerEventType, accountName string, counterparty string, amount decimal.Decimal, balance decimal.Decimal) {
	if s.publisher == nil {
		return
	}

	event := domain.LedgerEvent{
		ID:                  uuid.NewString(),
		Type:                eventType,
		AccountName:         accountName,
		CounterpartyAccount: counterparty,
		Amount:              amount,
		Balance:             balance,
		OccurredAt:          s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error("ledger service publish event failed", err, logger.Fields{
			"eventId":     event.ID,
			"eventType":   string(event.Type),
			"accountName": accountName,
		})
	}
}

func openingBalance(raw *string) (decimal.Decimal, error) {
	if raw == nil || isBlank(*raw) {
		return decimal.Zero, nil
	}

	balance, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return decimal.Zero, domain.InvalidField("accountBalance", "must be a decimal number")
	}
	if balance.IsNegative() || !balance.Equal(balance.Truncate(2)) || balance.GreaterThanOrEqual(maxMoney) {
		return decimal.Zero, domain.InvalidAmount("accountBalance must be between 0 and 10^18 with at most 2 decimal places")
	}
	return balance, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if isBlank(raw) {
		return decimal.Zero, domain.InvalidField("amount", "cannot be empty")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domain.InvalidField("amount", "must be a decimal number")
	}
	return amount, nil
}

func isValidMoney(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(2)) && amount.LessThan(maxMoney)
}

func saveFailure(op string, err error) error {
	switch {
	case errors.Is(err, commons.ErrStaleRecord):
		return domain.ConcurrentUpdate(op, err)
	case errors.Is(err, commons.ErrValueOutOfRange):
		return domain.InvalidAmount("balance exceeds the supported range")
	default:
		return domain.StoreUnavailable(op, err)
	}
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// lockFailure classifies an error coming out of a locked section. Ledger
// errors pass through; lock acquisition failures become StoreUnavailable.
func lockFailure(err error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.StoreUnavailable("acquire account lock", err)
}

func failure[T any](message string, err error, fields logger.Fields) (commons.Response[T], error) {
	logger.Error(message, err, fields)

	kind := domain.KindOf(err)
	detail := err.Error()
	if kind == domain.KindStoreUnavailable || kind == domain.KindInternal || kind == "" {
		detail = "Unable to process request right now"
	}

	return commons.CodedErrorResponse[T](string(kind), responseMessage(kind), detail), err
}

func responseMessage(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindMissingField, domain.KindInvalidField, domain.KindInvalidAmount, domain.KindSelfTransfer:
		return "validation failed"
	case domain.KindDuplicateAccount:
		return "Account already exists"
	case domain.KindConcurrentUpdate:
		return "Account was updated concurrently, please retry"
	case domain.KindAccountNotFound:
		return "Account not found"
	case domain.KindUnauthenticated:
		return "unauthorized"
	case domain.KindStoreUnavailable:
		return "Unable to process request right now"
	default:
		return "request failed"
	}
}

func toAccountResponse(account domain.Account) models.AccountResponse {
	permissions := make([]string, 0, len(account.Permissions))
	for _, p := range account.Permissions {
		permissions = append(permissions, string(p))
	}

	response := models.AccountResponse{
		AccountName:    account.AccountName,
		AccountBalance: account.Balance.StringFixed(2),
		Permissions:    permissions,
	}
	if !account.CreatedAt.IsZero() {
		response.CreatedAt = account.CreatedAt.Format(time.RFC3339)
	}
	if !account.UpdatedAt.IsZero() {
		response.UpdatedAt = account.UpdatedAt.Format(time.RFC3339)
	}
	return response
}
