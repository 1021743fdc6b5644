package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-leave/internal/leavetype"
	leavetypeerrors "go-leave/internal/leavetype/errors"
	ledgererrors "go-leave/internal/ledger/errors"
	"go-leave/internal/shared/dberror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=ledger_service.go -destination=mock/ledger_service_mock.go -package=mock
type Service interface {
	GetForPeriod(ctx context.Context, userID, leaveTypeID string, year int) (LedgerResponse, error)
	Create(ctx context.Context, req CreateLedgerRequest) (LedgerResponse, error)
	SetQuota(ctx context.Context, req UpdateQuotaRequest) (LedgerResponse, error)
	AdjustQuota(ctx context.Context, req AdjustQuotaRequest) (LedgerResponse, error)
	GetMyBalances(ctx context.Context, userID string, year int) ([]LedgerResponse, error)
	GetAllBalances(ctx context.Context, year, page, pageSize int) ([]LedgerResponse, int64, error)
	Onboard(ctx context.Context, userID string, year int) (OnboardResult, error)
	Rollover(ctx context.Context, year int) (RolloverResult, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	leaveTypes leavetype.Repository
	policy     QuotaPolicy
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	leaveTypes leavetype.Repository,
	policy QuotaPolicy,
	now func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("ledger.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger.service")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		db:         db,
		repo:       repo,
		leaveTypes: leaveTypes,
		policy:     policy,
		now:        now,
		logger:     l,
	}
}

func (s *service) GetForPeriod(ctx context.Context, userID, leaveTypeID string, year int) (LedgerResponse, error) {
	if err := validatePeriod(userID, leaveTypeID, year); err != nil {
		return LedgerResponse{}, err
	}

	l, err := s.repo.FindForPeriod(ctx, userID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LedgerResponse{}, ledgererrors.ErrLedgerNotInitialized
		}
		return LedgerResponse{}, dberror.Map(err)
	}
	return mapToResponse(*l, ""), nil
}

func (s *service) Create(ctx context.Context, req CreateLedgerRequest) (LedgerResponse, error) {
	if err := validatePeriod(req.UserID, req.LeaveTypeID, req.Year); err != nil {
		return LedgerResponse{}, err
	}
	if req.TotalQuota != nil && *req.TotalQuota < 0 {
		return LedgerResponse{}, ledgererrors.ErrNegativeQuota
	}

	lt, err := s.leaveTypes.FindByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LedgerResponse{}, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return LedgerResponse{}, dberror.Map(err)
	}

	quota := s.policy.For(lt.Name)
	if req.TotalQuota != nil {
		quota = *req.TotalQuota
	}

	l := &LeaveLedger{
		ID:          uuid.New(),
		UserID:      uuid.MustParse(req.UserID),
		LeaveTypeID: lt.ID,
		Year:        req.Year,
		TotalQuota:  quota,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		if errors.Is(err, ledgererrors.ErrDuplicateLedger) {
			s.logger.Warn("create ledger duplicate",
				zap.String("user_id", req.UserID),
				zap.String("leave_type_id", req.LeaveTypeID),
				zap.Int("year", req.Year),
			)
			return LedgerResponse{}, err
		}
		s.logger.Error("create ledger persist failed", zap.Error(err))
		return LedgerResponse{}, dberror.Map(err)
	}

	s.logger.Info("create ledger success",
		zap.String("ledger_id", l.ID.String()),
		zap.String("user_id", req.UserID),
		zap.Int("year", l.Year),
		zap.Int("total_quota", l.TotalQuota),
	)
	return mapToResponse(*l, lt.Name), nil
}

func (s *service) SetQuota(ctx context.Context, req UpdateQuotaRequest) (LedgerResponse, error) {
	return s.changeQuota(ctx, req.UserID, req.LeaveTypeID, req.Year, func(current int) int {
		return req.TotalQuota
	})
}

func (s *service) AdjustQuota(ctx context.Context, req AdjustQuotaRequest) (LedgerResponse, error) {
	return s.changeQuota(ctx, req.UserID, req.LeaveTypeID, req.Year, func(current int) int {
		return current + req.Delta
	})
}

// changeQuota locks the ledger row, applies next to the current total and
// persists the result if it still covers the used days.
func (s *service) changeQuota(ctx context.Context, userID, leaveTypeID string, year int, next func(current int) int) (LedgerResponse, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if err := validatePeriod(userID, leaveTypeID, year); err != nil {
		return LedgerResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("change quota begin tx failed", zap.Error(err))
		return LedgerResponse{}, dberror.Map(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindForPeriodForUpdate(ctx, userID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LedgerResponse{}, ledgererrors.ErrLedgerNotInitialized
		}
		s.logger.Error("change quota lock ledger failed", zap.Error(err))
		return LedgerResponse{}, dberror.Map(err)
	}

	previous := l.TotalQuota
	if err := l.AdjustQuota(next(previous)); err != nil {
		return LedgerResponse{}, err
	}

	if err := qtx.UpdateQuota(ctx, l.ID, l.TotalQuota); err != nil {
		if errors.Is(err, ledgererrors.ErrQuotaBelowUsage) {
			return LedgerResponse{}, err
		}
		s.logger.Error("change quota persist failed", zap.String("ledger_id", l.ID.String()), zap.Error(err))
		return LedgerResponse{}, dberror.Map(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("change quota commit failed", zap.String("ledger_id", l.ID.String()), zap.Error(err))
		return LedgerResponse{}, dberror.Map(err)
	}

	s.logger.Info("change quota success",
		zap.String("ledger_id", l.ID.String()),
		zap.Int("from", previous),
		zap.Int("to", l.TotalQuota),
	)
	return mapToResponse(*l, ""), nil
}

func (s *service) GetMyBalances(ctx context.Context, userID string, year int) ([]LedgerResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ledgererrors.ErrInvalidUserID
	}
	if year == 0 {
		year = s.now().Year()
	}

	rows, err := s.repo.ListByUserAndYear(ctx, userID, year)
	if err != nil {
		return nil, dberror.Map(err)
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetAllBalances(ctx context.Context, year, page, pageSize int) ([]LedgerResponse, int64, error) {
	if year == 0 {
		year = s.now().Year()
	}

	rows, total, err := s.repo.ListByYear(ctx, year, page, pageSize)
	if err != nil {
		return nil, 0, dberror.Map(err)
	}
	return mapToListResponse(rows), total, nil
}

// Onboard creates the missing ledgers of userID for year, one per active
// leave type. Rows that already exist are left untouched.
func (s *service) Onboard(ctx context.Context, userID string, year int) (OnboardResult, error) {
	result := OnboardResult{UserID: userID, Year: year, Created: []LedgerResponse{}}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return result, ledgererrors.ErrInvalidUserID
	}
	if year < 1 {
		return result, ledgererrors.ErrInvalidYear
	}

	types, err := s.leaveTypes.FindAllActive(ctx)
	if err != nil {
		return result, dberror.Map(err)
	}

	for _, lt := range types {
		l := &LeaveLedger{
			ID:          uuid.New(),
			UserID:      uid,
			LeaveTypeID: lt.ID,
			Year:        year,
			TotalQuota:  s.policy.For(lt.Name),
		}
		if err := s.repo.Create(ctx, l); err != nil {
			if errors.Is(err, ledgererrors.ErrDuplicateLedger) {
				result.Skipped++
				continue
			}
			s.logger.Error("onboard ledger persist failed",
				zap.String("user_id", userID),
				zap.String("leave_type", lt.Name),
				zap.Error(err),
			)
			return result, dberror.Map(err)
		}
		result.Created = append(result.Created, mapToResponse(*l, lt.Name))
	}

	s.logger.Info("onboard ledgers done",
		zap.String("user_id", userID),
		zap.Int("year", year),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Rollover onboards every active user for year. A failing user is logged and
// counted; the remaining users are still processed.
func (s *service) Rollover(ctx context.Context, year int) (RolloverResult, error) {
	result := RolloverResult{Year: year}
	if year < 1 {
		return result, ledgererrors.ErrInvalidYear
	}

	userIDs, err := s.repo.ListActiveUserIDs(ctx)
	if err != nil {
		s.logger.Error("rollover list users failed", zap.Error(err))
		return result, dberror.Map(err)
	}
	result.Users = len(userIDs)

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		res, err := s.Onboard(ctx, userID, year)
		if err != nil {
			result.Failed++
			s.logger.Warn("rollover onboard failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		result.Created += len(res.Created)
		result.Skipped += res.Skipped
	}

	s.logger.Info("rollover done",
		zap.Int("year", year),
		zap.Int("users", result.Users),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func validatePeriod(userID, leaveTypeID string, year int) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ledgererrors.ErrInvalidUserID
	}
	if _, err := uuid.Parse(leaveTypeID); err != nil {
		return ledgererrors.ErrInvalidLeaveTypeID
	}
	if year < 1 {
		return ledgererrors.ErrInvalidYear
	}
	return nil
}

func mapToResponse(l LeaveLedger, leaveTypeName string) LedgerResponse {
	return LedgerResponse{
		ID:            l.ID.String(),
		UserID:        l.UserID.String(),
		LeaveTypeID:   l.LeaveTypeID.String(),
		LeaveTypeName: leaveTypeName,
		Year:          l.Year,
		TotalQuota:    l.TotalQuota,
		UsedDays:      l.UsedDays,
		RemainingDays: l.Remaining(),
	}
}

func mapToListResponse(rows []Balance) []LedgerResponse {
	resp := make([]LedgerResponse, len(rows))
	for i, b := range rows {
		resp[i] = mapToResponse(b.LeaveLedger, b.LeaveTypeName)
	}
	return resp
}
