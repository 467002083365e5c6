package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bank-ledger:lock:account:"

var ErrLockNotHeld = errors.New("account lock was not held or already expired")

type RedisLockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisLockOptions() RedisLockOptions {
	return RedisLockOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker serializes account mutations across processes using the
// RedLock algorithm on a single Redis deployment.
type RedisLocker struct {
	redsync *redsync.Redsync
	opts    RedisLockOptions
}

var _ domain.AccountLocker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, opts RedisLockOptions) *RedisLocker {
	defaults := DefaultRedisLockOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = defaults.Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = defaults.Tries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = defaults.RetryDelay
	}

	return &RedisLocker{
		redsync: redsync.New(goredis.NewPool(client)),
		opts:    opts,
	}
}

// WithLock keeps every held lock extended while fn runs and releases them
// after fn returns. If an extension fails the lock may belong to someone else,
// so fn's context is cancelled with ErrLockNotHeld as its cause. A failed
// release is logged but never replaces fn's result.
func (l *RedisLocker) WithLock(ctx context.Context, accountNames []string, fn func(ctx context.Context) error) error {
	keys := orderedKeys(accountNames)

	held := make([]*redsync.Mutex, 0, len(keys))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			if unlockErr := unlock(context.WithoutCancel(ctx), held[i]); unlockErr != nil {
				logger.Error("redis locker release failed", unlockErr, logger.Fields{
					"lockKey": held[i].Name(),
				})
			}
		}
	}()

	for _, key := range keys {
		mutex := l.redsync.NewMutex(
			redisKeyPrefix+key,
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
		)
		if lockErr := mutex.LockContext(ctx); lockErr != nil {
			return fmt.Errorf("acquire account lock %q: %w", key, lockErr)
		}
		held = append(held, mutex)
	}

	fnCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := l.keepAlive(fnCtx, cancel, held)
	defer stop()

	return fn(fnCtx)
}

func (l *RedisLocker) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, held []*redsync.Mutex) func() {
	interval := l.opts.Expiry / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, mutex := range held {
					ok, err := mutex.ExtendContext(ctx)
					if err == nil && ok {
						continue
					}
					if err == nil {
						err = ErrLockNotHeld
					}
					logger.Error("redis locker extend failed", err, logger.Fields{
						"lockKey": mutex.Name(),
					})
					cancel(ErrLockNotHeld)
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func unlock(ctx context.Context, mutex *redsync.Mutex) error {
	ok, err := mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("release account lock %q: %w", mutex.Name(), err)
	}
	if !ok {
		return ErrLockNotHeld
	}
	return nil
}
