package app

import (
	"database/sql"

	"go-leave/internal/shared/config"
	"go-leave/internal/shared/connection"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const connectRetries = 5

type infra struct {
	gormDB *gorm.DB
	sqlDB  *sql.DB
}

func connectDatabase(cfg config.Config, logger *zap.Logger) (*infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, connectRetries)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	return &infra{gormDB: gormDB, sqlDB: sqlDB}, nil
}

func (i *infra) Close() {
	if i.sqlDB != nil {
		_ = i.sqlDB.Close()
	}
}
