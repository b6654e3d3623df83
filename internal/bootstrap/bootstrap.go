// Package bootstrap wires configuration into the store, cache, lock and services shared by
// the server and the scheduler binaries.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/segyhp/finance-ledger/internal/bank"
	"github.com/segyhp/finance-ledger/internal/cache"
	"github.com/segyhp/finance-ledger/internal/config"
	"github.com/segyhp/finance-ledger/internal/ledger"
	"github.com/segyhp/finance-ledger/internal/lock"
	"github.com/segyhp/finance-ledger/internal/metrics"
	"github.com/segyhp/finance-ledger/internal/repository"
	"github.com/segyhp/finance-ledger/internal/repository/memory"
	"github.com/segyhp/finance-ledger/internal/service"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type Runtime struct {
	DB       *sqlx.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Services *service.Services
}

// Build connects the configured backends. Close releases them.
func Build(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Metrics: metrics.New(prometheus.NewRegistry())}

	var store repository.Store
	switch cfg.Database.Store {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		db, err := initDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		rt.DB = db
		store = repository.NewPostgresStore(db)
	}

	var (
		scheduleCache cache.ScheduleCache = cache.Noop{}
		locker        lock.Locker         = lock.NewKeyedMutex()
	)
	if cfg.Redis.Addr != "" {
		rt.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		scheduleCache = cache.NewRedisScheduleCache(rt.Redis, "", cfg.GetCacheTTL())
		if cfg.Lock.Backend == "redis" {
			locker = lock.NewRedisLocker(rt.Redis, "", cfg.GetLockTTL(), cfg.GetLockRetry(), cfg.GetLockWait())
		}
	}

	rt.Services = service.New(service.Deps{
		Store:   store,
		Locker:  locker,
		Ledger:  ledger.NewEngine(),
		Bank:    bank.NewMemoryAccounts(bank.WithAutoOpen()),
		Cache:   scheduleCache,
		Metrics: rt.Metrics,
		Logger:  logger,
		Defaults: service.Defaults{
			InterestRate:       cfg.GetDefaultInterestRate(),
			Term:               cfg.Business.DefaultTerm,
			InterestMethod:     cfg.GetDefaultInterestMethod(),
			ReminderWindowDays: cfg.Business.ReminderWindowDays,
		},
	})
	return rt, nil
}

func initDB(cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	applied, err := repository.Migrate(cfg.Database.MigrationURL(), cfg.Database.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database migrations checked", "applied", applied)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func (rt *Runtime) Close() error {
	var errs []error
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Close())
	}
	if rt.DB != nil {
		errs = append(errs, rt.DB.Close())
	}
	return errors.Join(errs...)
}

// RedisClient returns the client as an interface, nil when Redis is not configured
func (rt *Runtime) RedisClient() redis.UniversalClient {
	if rt.Redis == nil {
		return nil
	}
	return rt.Redis
}
