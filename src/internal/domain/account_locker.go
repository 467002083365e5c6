package domain

import "context"

// AccountLocker serializes work on a set of accounts. Implementations acquire
// the locks for every name before fn runs and release them after it returns.
type AccountLocker interface {
	WithLock(ctx context.Context, accountNames []string, fn func(ctx context.Context) error) error
}
