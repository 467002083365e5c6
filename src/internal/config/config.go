package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=bank_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultKafkaTopic = "ledger_events"
const defaultRedisAddr = "localhost:6379"

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	LockDriverLocal     = "local"
	LockDriverRedis     = "redis"
)

type Config struct {
	HTTPAddr           string
	DatabaseDSN        string
	MigrationsDir      string
	StoreDriver        string
	StoreTimeout       time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	LockDriver         string
	LockExpiry         time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	KafkaBrokers       []string
	KafkaTopic         string
	BcryptCost         int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	storeDriver := strings.ToLower(envOrDefault("STORE_DRIVER", StoreDriverMemory))
	if storeDriver != StoreDriverMemory && storeDriver != StoreDriverPostgres {
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", storeDriver)
	}

	lockDriver := strings.ToLower(envOrDefault("LOCK_DRIVER", LockDriverLocal))
	if lockDriver != LockDriverLocal && lockDriver != LockDriverRedis {
		return Config{}, fmt.Errorf("unsupported LOCK_DRIVER %q", lockDriver)
	}

	storeTimeout, err := durationEnv("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	breakerOpenTimeout, err := durationEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	lockExpiry, err := durationEnv("LOCK_EXPIRY", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	breakerMaxFailures, err := uint32Env("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	bcryptCost, err := intEnv("BCRYPT_COST", 10)
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPAddr:           envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		DatabaseDSN:        normalizeConnectionString(envOrDefault("DATABASE_DSN", defaultConnectionString)),
		MigrationsDir:      envOrDefault("MIGRATIONS_DIR", filepath.Join("src", "migrations")),
		StoreDriver:        storeDriver,
		StoreTimeout:       storeTimeout,
		BreakerMaxFailures: breakerMaxFailures,
		BreakerOpenTimeout: breakerOpenTimeout,
		LockDriver:         lockDriver,
		LockExpiry:         lockExpiry,
		RedisAddr:          envOrDefault("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:      strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:            redisDB,
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         envOrDefault("KAFKA_TOPIC", defaultKafkaTopic),
		BcryptCost:         bcryptCost,
	}, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", key)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}
	return n, nil
}

func uint32Env(key string, fallback uint32) (uint32, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return uint32(n), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
