package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindMissingField     ErrorKind = "MISSING_FIELD"
	KindInvalidField     ErrorKind = "INVALID_FIELD"
	KindInvalidAmount    ErrorKind = "INVALID_AMOUNT"
	KindDuplicateAccount ErrorKind = "DUPLICATE_ACCOUNT"
	KindAccountNotFound  ErrorKind = "ACCOUNT_NOT_FOUND"
	KindSelfTransfer     ErrorKind = "SELF_TRANSFER"
	KindUnauthenticated  ErrorKind = "UNAUTHENTICATED"
	KindConcurrentUpdate ErrorKind = "CONCURRENT_UPDATE"
	KindStoreUnavailable ErrorKind = "STORE_UNAVAILABLE"
	KindInternal         ErrorKind = "INTERNAL"
)

// LedgerError is the typed failure returned by ledger operations. Two
// LedgerErrors match under errors.Is when their kinds are equal, so callers
// branch on the package sentinels below.
type LedgerError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *LedgerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrMissingField     = &LedgerError{Kind: KindMissingField, Message: "required field is missing"}
	ErrInvalidField     = &LedgerError{Kind: KindInvalidField, Message: "required field is empty or malformed"}
	ErrInvalidAmount    = &LedgerError{Kind: KindInvalidAmount, Message: "invalid amount"}
	ErrDuplicateAccount = &LedgerError{Kind: KindDuplicateAccount, Message: "account already exists"}
	ErrAccountNotFound  = &LedgerError{Kind: KindAccountNotFound, Message: "account does not exist"}
	ErrSelfTransfer     = &LedgerError{Kind: KindSelfTransfer, Message: "not possible to transfer money to yourself"}
	ErrUnauthenticated  = &LedgerError{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrConcurrentUpdate = &LedgerError{Kind: KindConcurrentUpdate, Message: "account was updated concurrently"}
	ErrStoreUnavailable = &LedgerError{Kind: KindStoreUnavailable, Message: "account store unavailable"}
)

func MissingField(field string) error {
	return &LedgerError{Kind: KindMissingField, Field: field, Message: field + " is required"}
}

func InvalidField(field string, reason string) error {
	return &LedgerError{Kind: KindInvalidField, Field: field, Message: field + " " + reason}
}

func InvalidAmount(reason string) error {
	return &LedgerError{Kind: KindInvalidAmount, Field: "amount", Message: reason}
}

func DuplicateAccount(name string) error {
	return &LedgerError{Kind: KindDuplicateAccount, Field: "accountName", Message: fmt.Sprintf("account %q already exists", name)}
}

func AccountNotFound(name string) error {
	return &LedgerError{Kind: KindAccountNotFound, Message: fmt.Sprintf("account %q does not exist", name)}
}

func StoreUnavailable(op string, err error) error {
	return &LedgerError{Kind: KindStoreUnavailable, Message: op + " failed", Err: err}
}

func ConcurrentUpdate(op string, err error) error {
	return &LedgerError{Kind: KindConcurrentUpdate, Message: op + " lost a concurrent update", Err: err}
}

func Unauthenticated(reason string) error {
	return &LedgerError{Kind: KindUnauthenticated, Message: reason}
}

func Internal(op string, err error) error {
	return &LedgerError{Kind: KindInternal, Message: op + " failed", Err: err}
}

// KindOf reports the kind carried by err, or "" when err is not a LedgerError.
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
