package ledger

import (
	"context"
	"database/sql"

	ledgererrors "go-leave/internal/ledger/errors"
	"go-leave/internal/shared/dberror"
	"go-leave/internal/shared/dbtx"
	"go-leave/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniquePeriodConstraint = "uq_leave_ledger_period"

//go:generate mockgen -source=ledger_repo.go -destination=mock/ledger_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindForPeriod(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveLedger, error)
	// FindForPeriodForUpdate holds an exclusive row lock until the bound
	// transaction ends. Without WithTx the lock is released immediately.
	FindForPeriodForUpdate(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveLedger, error)
	Create(ctx context.Context, l *LeaveLedger) error
	// Debit adds days to used_days only while the result stays within the
	// quota; otherwise it returns ErrInsufficientBalance and changes nothing.
	Debit(ctx context.Context, id uuid.UUID, days int) error
	UpdateQuota(ctx context.Context, id uuid.UUID, totalQuota int) error
	ListByUserAndYear(ctx context.Context, userID string, year int) ([]Balance, error)
	ListByYear(ctx context.Context, year, page, pageSize int) ([]Balance, int64, error)
	ListActiveUserIDs(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) session(ctx context.Context) *gorm.DB {
	return dbtx.Bind(ctx, r.db, r.tx)
}

func (r *repository) FindForPeriod(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveLedger, error) {
	var l LeaveLedger
	err := r.session(ctx).
		Where("user_id = ? AND leave_type_id = ? AND year = ?", userID, leaveTypeID, year).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindForPeriodForUpdate(ctx context.Context, userID, leaveTypeID string, year int) (*LeaveLedger, error) {
	var l LeaveLedger
	err := r.session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND leave_type_id = ? AND year = ?", userID, leaveTypeID, year).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Create(ctx context.Context, l *LeaveLedger) error {
	err := r.session(ctx).Create(l).Error
	if dberror.IsUniqueViolation(err, uniquePeriodConstraint) {
		return ledgererrors.ErrDuplicateLedger.WithErr(err)
	}
	return err
}

func (r *repository) Debit(ctx context.Context, id uuid.UUID, days int) error {
	res := r.session(ctx).
		Model(&LeaveLedger{}).
		Where("id = ? AND used_days + ? <= total_quota", id, days).
		Update("used_days", gorm.Expr("used_days + ?", days))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledgererrors.ErrInsufficientBalance
	}
	return nil
}

func (r *repository) UpdateQuota(ctx context.Context, id uuid.UUID, totalQuota int) error {
	res := r.session(ctx).
		Model(&LeaveLedger{}).
		Where("id = ? AND used_days <= ?", id, totalQuota).
		Update("total_quota", totalQuota)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledgererrors.ErrQuotaBelowUsage
	}
	return nil
}

func (r *repository) balances(ctx context.Context) *gorm.DB {
	return r.session(ctx).
		Table("leave_ledgers AS l").
		Select("l.*, lt.name AS leave_type_name").
		Joins("JOIN leave_types lt ON lt.id = l.leave_type_id")
}

func (r *repository) ListByUserAndYear(ctx context.Context, userID string, year int) ([]Balance, error) {
	var rows []Balance
	err := r.balances(ctx).
		Where("l.user_id = ? AND l.year = ?", userID, year).
		Order("lt.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ListByYear(ctx context.Context, year, page, pageSize int) ([]Balance, int64, error) {
	var total int64
	if err := r.session(ctx).
		Model(&LeaveLedger{}).
		Where("year = ?", year).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Balance
	err := r.balances(ctx).
		Where("l.year = ?", year).
		Order("l.user_id ASC, lt.name ASC").
		Scopes(scope.Paginate(page, pageSize)).
		Scan(&rows).Error
	return rows, total, err
}

func (r *repository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.session(ctx).
		Table("users").
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
