package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/events/kafka"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/bank-ledger/src/internal/adapter/lock"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/implementations"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/resilient"
	"github.com/api-sage/bank-ledger/src/internal/config"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/security"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server exited with error", err, nil)
		os.Exit(1)
	}
	logger.Info("server stopped", nil)
}

func run(ctx context.Context, cfg config.Config) error {
	accountRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	var publisher domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Error("close kafka publisher failed", err, nil)
			}
		}()
		publisher = kafkaPublisher
		logger.Info("ledger events enabled", logger.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
		})
	}

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	ledgerService := services.NewLedgerService(accountRepo, locker, hasher, publisher)
	authService := services.NewAuthService(accountRepo, hasher)

	handler := router.New(
		controller.NewAccountController(ledgerService),
		controller.NewTransferController(ledgerService),
		middleware.AccountAuth(authService),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", logger.Fields{
			"addr":        cfg.HTTPAddr,
			"storeDriver": cfg.StoreDriver,
			"lockDriver":  cfg.LockDriver,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http server shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (repo_interfaces.AccountRepository, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Info("using in-memory account store", nil)
		return memory.NewAccountRepository(), func() {}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := implementations.Open(openCtx, cfg.DatabaseDSN, implementations.DefaultPoolConfig())
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("close postgres connection failed", err, nil)
		}
	}

	if err := implementations.RunMigrations(openCtx, db, cfg.MigrationsDir); err != nil {
		closeDB()
		return nil, nil, err
	}

	return resilient.NewAccountRepository(implementations.NewAccountRepository(db), resilient.Settings{
		Name:        "postgres-accounts",
		Timeout:     cfg.StoreTimeout,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}), closeDB, nil
}

func openLocker(ctx context.Context, cfg config.Config) (domain.AccountLocker, func(), error) {
	if cfg.LockDriver == config.LockDriverLocal {
		return lock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	opts := lock.DefaultRedisLockOptions()
	opts.Expiry = cfg.LockExpiry

	return lock.NewRedisLocker(client, opts), func() {
		if err := client.Close(); err != nil {
			logger.Error("close redis client failed", err, nil)
		}
	}, nil
}

