package app

import (
	"context"
	"time"

	"go-leave/internal/leavetype"
	"go-leave/internal/ledger"
	"go-leave/internal/shared/config"
	"go-leave/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type SeedResult struct {
	Types    leavetype.SeedResult
	Rollover ledger.RolloverResult
}

// RunSeed migrates the schema, creates the leave types named in types and
// opens ledgers for every active user for year.
func RunSeed(ctx context.Context, cfg config.Config, year int, types []string) (SeedResult, error) {
	logger := zap.L().Named("app.seed")
	var result SeedResult

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		return result, err
	}
	defer db.Close()

	if err := Migrate(db.gormDB); err != nil {
		return result, err
	}

	// The cache is optional here; without it the API picks new types up
	// once the cached list expires.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, 1)
		if err != nil {
			logger.Warn("redis unavailable, leave types cache not invalidated", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	leaveTypeRepo := leavetype.NewRepository(db.gormDB)
	leaveTypeService := leavetype.NewService(leaveTypeRepo, rdb, cfg.Leave.TypesTTL, logger)

	result.Types, err = leaveTypeService.Seed(ctx, types)
	if err != nil {
		return result, err
	}

	ledgerService := ledger.NewService(
		db.sqlDB,
		ledger.NewRepository(db.gormDB),
		leaveTypeRepo,
		ledger.NewQuotaPolicy(cfg.Leave),
		time.Now,
		logger,
	)
	result.Rollover, err = ledgerService.Rollover(ctx, year)
	return result, err
}
