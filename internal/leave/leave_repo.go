package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/shared/dbtx"
	"go-leave/internal/shared/scope"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows List. Empty fields are ignored.
type ListFilter struct {
	UserID   string
	Status   string
	Asc      bool
	Page     int
	PageSize int
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// LockUser serializes Apply per user until the bound transaction ends.
	LockUser(ctx context.Context, userID string) error
	LeaveTypeIsActive(ctx context.Context, leaveTypeID string) (bool, error)
	// FindOverlapping returns a PENDING or APPROVED request of userID that
	// intersects [start, end], or nil.
	FindOverlapping(ctx context.Context, userID string, start, end time.Time) (*LeaveRequest, error)
	// FindDuplicate returns a request of any status with the same type and
	// exact dates, or nil.
	FindDuplicate(ctx context.Context, userID, leaveTypeID string, start, end time.Time) (*LeaveRequest, error)
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	FindPendingByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	// MarkProcessed writes the terminal state of l if it is still PENDING in
	// the store, and returns ErrInvalidStatusTransition otherwise.
	MarkProcessed(ctx context.Context, l *LeaveRequest) error
	List(ctx context.Context, filter ListFilter) ([]LeaveRequest, int64, error)
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

func (r *repository) LockUser(ctx context.Context, userID string) error {
	return r.session(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "leave_requests:"+userID).Error
}

func (r *repository) LeaveTypeIsActive(ctx context.Context, leaveTypeID string) (bool, error) {
	var count int64
	err := r.session(ctx).
		Table("leave_types").
		Where("id = ? AND is_active = ?", leaveTypeID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindOverlapping(ctx context.Context, userID string, start, end time.Time) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.session(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{StatusPending, StatusApproved}).
		Where("NOT (end_date < ? OR start_date > ?)", start, end).
		Order("start_date ASC").
		Take(&l).Error
	return optional(&l, err)
}

func (r *repository) FindDuplicate(ctx context.Context, userID, leaveTypeID string, start, end time.Time) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.session(ctx).
		Where("user_id = ? AND leave_type_id = ?", userID, leaveTypeID).
		Where("start_date = ? AND end_date = ?", start, end).
		Take(&l).Error
	return optional(&l, err)
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.session(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.session(ctx).Preload("LeaveType").First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindPendingByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", id, StatusPending).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) MarkProcessed(ctx context.Context, l *LeaveRequest) error {
	res := r.session(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND status = ?", l.ID, StatusPending).
		Updates(map[string]interface{}{
			"status":           l.Status,
			"rejection_reason": l.RejectionReason,
			"processed_at":     l.ProcessedAt,
			"processed_by":     l.ProcessedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return leaveerrors.ErrInvalidStatusTransition
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]LeaveRequest, int64, error) {
	db := r.session(ctx).Model(&LeaveRequest{}).Scopes(scope.Status(filter.Status))
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "applied_at DESC"
	if filter.Asc {
		order = "applied_at ASC"
	}

	var leaves []LeaveRequest
	err := db.
		Preload("LeaveType").
		Order(order).
		Scopes(scope.Paginate(filter.Page, filter.PageSize)).
		Find(&leaves).Error
	return leaves, total, err
}

func optional(l *LeaveRequest, err error) (*LeaveRequest, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
