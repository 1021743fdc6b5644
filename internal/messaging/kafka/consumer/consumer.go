package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/ledger"
	ledgererrors "go-leave/internal/ledger/errors"
	"go-leave/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Backoff between attempts on one message while onboarding keeps failing.
var (
	retryBackoff    = 500 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

type LedgerOnboarder interface {
	Onboard(ctx context.Context, userID string, year int) (ledger.OnboardResult, error)
}

// ConsumeEmployeeLifecycle opens the leave ledgers of every new employee.
// Messages that can never succeed are committed and skipped. Any other
// failure is retried on the same message until it succeeds or ctx ends, so
// a later commit never acknowledges an employee without ledgers.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	ledgerService LedgerOnboarder,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		msgCtx := ctx
		if rid := headerValue(msg, "request_id"); rid != "" {
			msgCtx = contextutil.WithRequestID(ctx, rid)
		}

		var event events.EmployeeCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee lifecycle event failed", zap.Error(err))
			commit(msgCtx, reader, msg, log)
			continue
		}
		if event.EventType != events.EmployeeCreated {
			log.Debug("employee lifecycle event ignored", zap.String("event_type", event.EventType))
			commit(msgCtx, reader, msg, log)
			continue
		}

		year := event.Year
		if year == 0 {
			year = event.OccurredAt.UTC().Year()
		}

		result, err := onboard(msgCtx, ledgerService, event.UserID, year, log)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped, message left uncommitted",
					zap.String("user_id", event.UserID),
				)
				return
			}
			log.Warn("employee_created event rejected, skipping",
				zap.String("user_id", event.UserID),
				zap.Int("year", year),
				zap.Error(err),
			)
			commit(msgCtx, reader, msg, log)
			continue
		}

		if !commit(msgCtx, reader, msg, log) {
			continue
		}

		log.Info("leave ledgers opened from employee_created event",
			zap.String("user_id", event.UserID),
			zap.Int("year", year),
			zap.Int("created", len(result.Created)),
			zap.Int("skipped", result.Skipped),
		)
	}
}

func onboard(ctx context.Context, svc LedgerOnboarder, userID string, year int, log *zap.Logger) (ledger.OnboardResult, error) {
	backoff := retryBackoff
	for attempt := 1; ; attempt++ {
		result, err := svc.Onboard(ctx, userID, year)
		if err == nil || isPermanent(err) {
			return result, err
		}

		log.Error("onboard ledgers failed, retrying",
			zap.String("user_id", userID),
			zap.Int("year", year),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

func commit(ctx context.Context, reader MessageReader, msg kafkago.Message, log *zap.Logger) bool {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit employee lifecycle message failed", zap.Error(err))
		return false
	}
	return true
}

func isPermanent(err error) bool {
	return errors.Is(err, ledgererrors.ErrInvalidUserID) || errors.Is(err, ledgererrors.ErrInvalidYear)
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
