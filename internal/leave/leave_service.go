package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-leave/internal/calendar"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/ledger"
	ledgererrors "go-leave/internal/ledger/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/dberror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const aggregateType = "leave_request"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, userID string, req ApplyLeaveRequest) (ApplyLeaveResponse, error)
	Approve(ctx context.Context, actorID, id string) (LeaveResponse, error)
	Reject(ctx context.Context, actorID, id string, req RejectLeaveRequest) (LeaveResponse, error)
	GetByID(ctx context.Context, requesterID string, canReadAll bool, id string) (LeaveResponse, error)
	GetMine(ctx context.Context, userID string, q ListQuery) ([]LeaveResponse, int64, error)
	GetPending(ctx context.Context, q ListQuery) ([]LeaveResponse, int64, error)
	GetAll(ctx context.Context, q ListQuery) ([]LeaveResponse, int64, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	ledgers ledger.Repository
	outbox  kafka.OutboxRepository
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, ledgers ledger.Repository, now func() time.Time, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, ledgers, nil, now, logger...)
}

// NewServiceWithOutbox also records a lifecycle event in the same
// transaction as every state change.
func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	ledgers ledger.Repository,
	outboxRepo kafka.OutboxRepository,
	now func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		db:      db,
		repo:    repo,
		ledgers: ledgers,
		outbox:  outboxRepo,
		now:     now,
		logger:  l,
	}
}

func (s *service) Apply(ctx context.Context, userID string, req ApplyLeaveRequest) (ApplyLeaveResponse, error) {
	s.logger.Debug("apply leave requested",
		zap.String("user_id", userID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	l, err := s.validateApply(userID, req)
	if err != nil {
		s.logger.Warn("apply leave validation failed", zap.String("user_id", userID), zap.Error(err))
		return ApplyLeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return ApplyLeaveResponse{}, dberror.Map(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.LockUser(ctx, userID); err != nil {
		s.logger.Error("apply leave lock user failed", zap.String("user_id", userID), zap.Error(err))
		return ApplyLeaveResponse{}, dberror.Map(err)
	}

	active, err := qtx.LeaveTypeIsActive(ctx, req.LeaveTypeID)
	if err != nil {
		return ApplyLeaveResponse{}, dberror.Map(err)
	}
	if !active {
		return ApplyLeaveResponse{}, leaveerrors.ErrLeaveTypeInactive
	}

	existing, err := qtx.FindOverlapping(ctx, userID, l.StartDate, l.EndDate)
	if err != nil {
		s.logger.Error("apply leave overlap check failed", zap.Error(err))
		return ApplyLeaveResponse{}, dberror.Map(err)
	}
	if existing != nil {
		s.logger.Warn("apply leave overlap detected",
			zap.String("user_id", userID),
			zap.String("existing_id", existing.ID.String()),
			zap.String("existing_status", existing.Status),
		)
		return ApplyLeaveResponse{}, leaveerrors.ErrLeaveOverlap.Withf(
			"you already have a %s leave request for overlapping dates", strings.ToLower(existing.Status))
	}

	duplicate, err := qtx.FindDuplicate(ctx, userID, req.LeaveTypeID, l.StartDate, l.EndDate)
	if err != nil {
		s.logger.Error("apply leave duplicate check failed", zap.Error(err))
		return ApplyLeaveResponse{}, dberror.Map(err)
	}
	if duplicate != nil {
		return ApplyLeaveResponse{}, leaveerrors.ErrDuplicateRequest.Withf(
			"you already applied for this exact leave period. Status: %s", duplicate.Status)
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return ApplyLeaveResponse{}, dberror.Map(err)
	}

	if err := s.enqueue(ctx, tx, l, events.LeaveApplied); err != nil {
		return ApplyLeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return ApplyLeaveResponse{}, dberror.Map(err)
	}
	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("user_id", userID),
		zap.Int("total_days", l.TotalDays),
	)

	return ApplyLeaveResponse{
		LeaveID:   l.ID.String(),
		TotalDays: l.TotalDays,
		Status:    l.Status,
	}, nil
}

// validateApply checks everything that needs no store access, in the order
// range, past dates, weekend endpoints, reason.
func (s *service) validateApply(userID string, req ApplyLeaveRequest) (*LeaveRequest, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidUserID
	}
	typeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidLeaveTypeID
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	totalDays, err := calendar.CalculateDays(start, end)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := calendar.Date(now.UTC())
	if start.Before(today) {
		return nil, leaveerrors.ErrDateInPast.Withf("start date cannot be in the past")
	}
	if end.Before(today) {
		return nil, leaveerrors.ErrDateInPast.Withf("end date cannot be in the past")
	}

	if err := calendar.ValidateDates(start, end); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, leaveerrors.ErrReasonRequired
	}

	return &LeaveRequest{
		ID:          uuid.New(),
		UserID:      uid,
		LeaveTypeID: typeID,
		StartDate:   start,
		EndDate:     end,
		TotalDays:   totalDays,
		Reason:      reason,
		Status:      StatusPending,
		AppliedAt:   now.UTC(),
	}, nil
}

// Approve debits the ledger of the processing year and closes the request in
// one transaction. Both rows are locked, so concurrent approvals against the
// same ledger are applied one after the other.
func (s *service) Approve(ctx context.Context, actorID, id string) (LeaveResponse, error) {
	s.logger.Debug("approve leave requested", zap.String("leave_id", id), zap.String("actor_id", actorID))

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ltx := s.ledgers.WithTx(tx)

	l, err := qtx.FindPendingByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound.Withf("leave not found or not pending")
		}
		s.logger.Error("approve leave lock request failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}

	now := s.now().UTC()
	year := now.Year()

	balance, err := ltx.FindForPeriodForUpdate(ctx, l.UserID.String(), l.LeaveTypeID.String(), year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("approve leave ledger missing",
				zap.String("leave_id", id),
				zap.String("user_id", l.UserID.String()),
				zap.Int("year", year),
			)
			return LeaveResponse{}, ledgererrors.ErrLedgerNotInitialized
		}
		s.logger.Error("approve leave lock ledger failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}

	if err := balance.Debit(l.TotalDays); err != nil {
		s.logger.Warn("approve leave insufficient balance",
			zap.String("leave_id", id),
			zap.Int("remaining", balance.Remaining()),
			zap.Int("requested", l.TotalDays),
		)
		return LeaveResponse{}, err
	}
	if err := ltx.Debit(ctx, balance.ID, l.TotalDays); err != nil {
		if errors.Is(err, ledgererrors.ErrInsufficientBalance) {
			return LeaveResponse{}, err
		}
		s.logger.Error("approve leave debit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}

	l.Status = StatusApproved
	l.ProcessedAt = &now
	l.ProcessedBy = &actorUUID

	if err := qtx.MarkProcessed(ctx, l); err != nil {
		if errors.Is(err, leaveerrors.ErrInvalidStatusTransition) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound.Withf("leave not found or not pending")
		}
		s.logger.Error("approve leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}

	if err := s.enqueue(ctx, tx, l, events.LeaveApproved); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}
	s.logger.Info("approve leave success",
		zap.String("leave_id", id),
		zap.String("user_id", l.UserID.String()),
		zap.Int("total_days", l.TotalDays),
		zap.Int("remaining", balance.Remaining()),
	)

	return mapToResponse(*l), nil
}

func (s *service) Reject(ctx context.Context, actorID, id string, req RejectLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("reject leave requested", zap.String("leave_id", id), zap.String("actor_id", actorID))

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, dberror.Map(err)
	}
	if !l.IsPending() {
		s.logger.Warn("reject leave invalid transition",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition.Withf(
			"only pending leaves can be rejected, current status: %s", l.Status)
	}

	now := s.now().UTC()
	l.Status = StatusRejected
	l.ProcessedAt = &now
	l.ProcessedBy = &actorUUID
	l.RejectionReason = nil
	if req.RejectionReason != nil {
		if reason := strings.TrimSpace(*req.RejectionReason); reason != "" {
			l.RejectionReason = &reason
		}
	}

	if err := qtx.MarkProcessed(ctx, l); err != nil {
		if errors.Is(err, leaveerrors.ErrInvalidStatusTransition) {
			return LeaveResponse{}, err
		}
		s.logger.Error("reject leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}

	if err := s.enqueue(ctx, tx, l, events.LeaveRejected); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, dberror.Map(err)
	}
	s.logger.Info("reject leave success", zap.String("leave_id", id))

	return mapToResponse(*l), nil
}

// GetByID hides requests of other users unless canReadAll is set.
func (s *service) GetByID(ctx context.Context, requesterID string, canReadAll bool, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, dberror.Map(err)
	}
	if !canReadAll && l.UserID.String() != requesterID {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	return mapToResponse(*l), nil
}

func (s *service) GetMine(ctx context.Context, userID string, q ListQuery) ([]LeaveResponse, int64, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, 0, leaveerrors.ErrInvalidUserID
	}
	filter, err := toFilter(q)
	if err != nil {
		return nil, 0, err
	}
	filter.UserID = userID
	return s.list(ctx, filter)
}

func (s *service) GetPending(ctx context.Context, q ListQuery) ([]LeaveResponse, int64, error) {
	q.Status = StatusPending
	filter, err := toFilter(q)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, filter)
}

func (s *service) GetAll(ctx context.Context, q ListQuery) ([]LeaveResponse, int64, error) {
	filter, err := toFilter(q)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, filter)
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]LeaveResponse, int64, error) {
	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, dberror.Map(err)
	}
	return mapToListResponse(leaves), total, nil
}

func toFilter(q ListQuery) (ListFilter, error) {
	status := strings.ToUpper(strings.TrimSpace(q.Status))
	switch status {
	case "", "ALL":
		status = ""
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return ListFilter{}, leaveerrors.ErrInvalidStatusFilter
	}
	return ListFilter{
		Status:   status,
		Asc:      q.Sort == "date_asc",
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, l *LeaveRequest, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	payload := events.LeaveLifecycleEvent{
		EventType:   eventType,
		LeaveID:     l.ID.String(),
		UserID:      l.UserID.String(),
		LeaveTypeID: l.LeaveTypeID.String(),
		StartDate:   l.StartDate.Format(calendar.DateLayout),
		EndDate:     l.EndDate.Format(calendar.DateLayout),
		TotalDays:   l.TotalDays,
		Status:      l.Status,
		OccurredAt:  s.now().UTC(),
	}
	if l.ProcessedBy != nil {
		payload.ProcessedBy = l.ProcessedBy.String()
	}
	if l.RejectionReason != nil {
		payload.RejectionReason = *l.RejectionReason
	}

	event, err := kafka.NewOutboxEvent(ctx, aggregateType, l.ID.String(), eventType, events.LeaveLifecycleTopic, payload)
	if err != nil {
		s.logger.Error("leave outbox build failed", zap.String("event_type", eventType), zap.Error(err))
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return dberror.Map(err)
	}
	return nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		LeaveTypeID:     l.LeaveTypeID.String(),
		StartDate:       l.StartDate.Format(calendar.DateLayout),
		EndDate:         l.EndDate.Format(calendar.DateLayout),
		TotalDays:       l.TotalDays,
		Reason:          l.Reason,
		Status:          l.Status,
		RejectionReason: l.RejectionReason,
		AppliedAt:       l.AppliedAt.Format(time.RFC3339),
	}
	if l.LeaveType != nil {
		resp.LeaveType = l.LeaveType.Name
	}
	if l.ProcessedAt != nil {
		v := l.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &v
	}
	if l.ProcessedBy != nil {
		v := l.ProcessedBy.String()
		resp.ProcessedBy = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
