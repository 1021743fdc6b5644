package app

import (
	"database/sql"
	"time"

	"go-leave/internal/leave"
	"go-leave/internal/leavetype"
	"go-leave/internal/ledger"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Apply is the only write an employee can hammer; one per second with a
// small burst.
const (
	applyRate  = rate.Limit(1)
	applyBurst = 5
)

// Per client address, ahead of authentication.
const (
	clientRate  = rate.Limit(20)
	clientBurst = 40
)

func registerModules(
	api *gin.RouterGroup,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(enforcer, logger)

	// --- Services ---
	leaveTypeService := leavetype.NewService(leaveTypeRepo, rdb, cfg.Leave.TypesTTL, logger)
	ledgerService := ledger.NewService(db, ledgerRepo, leaveTypeRepo, ledger.NewQuotaPolicy(cfg.Leave), time.Now, logger)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, ledgerRepo, outboxRepo, time.Now, logger)

	// --- Handlers ---
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService, logger)
	ledgerHandler := ledger.NewHandler(ledgerService, logger)
	leaveHandler := leave.NewHandler(leaveService, rbacService, logger)

	// --- Routes Registration ---
	leavetype.RegisterRoutes(api, leaveTypeHandler)
	ledger.RegisterRoutes(api, ledgerHandler, rbacService)
	leave.RegisterRoutes(api, leaveHandler, rbacService,
		middleware.RateLimitByUser(applyRate, applyBurst),
		middleware.Idempotency(rdb, logger),
	)

	return nil
}
