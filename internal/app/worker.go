package app

import (
	"context"
	"fmt"
	"time"

	"go-leave/internal/leavetype"
	"go-leave/internal/ledger"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/shared/config"
	"go-leave/internal/shared/connection"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka and opens next year's ledgers on the
// rollover schedule until ctx is cancelled.
func RunWorker(ctx context.Context, cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(db.sqlDB)
	ledgerService := ledger.NewService(
		db.sqlDB,
		ledger.NewRepository(db.gormDB),
		leavetype.NewRepository(db.gormDB),
		ledger.NewQuotaPolicy(cfg.Leave),
		time.Now,
		logger,
	)

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(cfg.Leave.RolloverCron, rolloverJob(ctx, ledgerService, logger)); err != nil {
		return fmt.Errorf("invalid LEDGER_ROLLOVER_CRON %q: %w", cfg.Leave.RolloverCron, err)
	}
	scheduler.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, cfg.OutboxPollInterval)
	}()

	<-ctx.Done()
	logger.Info("worker shutting down")

	<-scheduler.Stop().Done()
	<-done
	return nil
}

func rolloverJob(ctx context.Context, ledgerService ledger.Service, logger *zap.Logger) func() {
	return func() {
		year := time.Now().UTC().Year()
		result, err := ledgerService.Rollover(ctx, year)
		if err != nil {
			logger.Error("ledger rollover failed", zap.Int("year", year), zap.Error(err))
			return
		}
		logger.Info("ledger rollover done",
			zap.Int("year", year),
			zap.Int("users", result.Users),
			zap.Int("created", result.Created),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
}
