package ledger

import (
	"time"

	ledgererrors "go-leave/internal/ledger/errors"

	"github.com/google/uuid"
)

// LeaveLedger is the quota of one user for one leave type in one year.
// Remaining days are derived and never stored.
type LeaveLedger struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_ledger_period"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_ledger_period"`
	Year        int       `gorm:"not null;uniqueIndex:uq_leave_ledger_period"`
	TotalQuota  int       `gorm:"not null;default:0;check:chk_leave_ledger_quota,total_quota >= 0"`
	UsedDays    int       `gorm:"not null;default:0;check:chk_leave_ledger_used,used_days <= total_quota"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveLedger) TableName() string {
	return "leave_ledgers"
}

func (l LeaveLedger) Remaining() int {
	return l.TotalQuota - l.UsedDays
}

func (l LeaveLedger) CanDebit(days int) bool {
	return days > 0 && days <= l.Remaining()
}

func (l *LeaveLedger) Debit(days int) error {
	if days <= 0 {
		return ledgererrors.ErrInvalidDays
	}
	if !l.CanDebit(days) {
		return ledgererrors.ErrInsufficientBalance.Withf(
			"insufficient leave balance: remaining %d, requested %d", l.Remaining(), days)
	}
	l.UsedDays += days
	return nil
}

func (l *LeaveLedger) AdjustQuota(newTotal int) error {
	if newTotal < 0 {
		return ledgererrors.ErrNegativeQuota
	}
	if newTotal < l.UsedDays {
		return ledgererrors.ErrQuotaBelowUsage.Withf(
			"total quota %d cannot be lower than used days %d", newTotal, l.UsedDays)
	}
	l.TotalQuota = newTotal
	return nil
}

// Balance is a ledger row joined with its leave type name.
type Balance struct {
	LeaveLedger
	LeaveTypeName string
}
