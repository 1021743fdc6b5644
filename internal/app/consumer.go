package app

import (
	"context"
	"fmt"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/leavetype"
	"go-leave/internal/ledger"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/shared/config"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const employeeLifecycleGroup = "go-leave-ledger-onboarding"

// RunConsumer opens ledgers for employees announced on the employee
// lifecycle topic until ctx is cancelled.
func RunConsumer(ctx context.Context, cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	ledgerService := ledger.NewService(
		db.sqlDB,
		ledger.NewRepository(db.gormDB),
		leavetype.NewRepository(db.gormDB),
		ledger.NewQuotaPolicy(cfg.Leave),
		time.Now,
		logger,
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.EmployeeLifecycleTopic,
		GroupID:        employeeLifecycleGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	consumer.ConsumeEmployeeLifecycle(ctx, reader, ledgerService, logger)
	logger.Info("consumer shutting down")
	return nil
}
