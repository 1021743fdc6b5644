package leave

import (
	"time"

	"go-leave/internal/leavetype"

	"github.com/google/uuid"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// LeaveRequest is created PENDING and moves exactly once to APPROVED or
// REJECTED. TotalDays never changes after creation.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_user_dates"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	TotalDays int       `gorm:"not null"`
	Reason    string    `gorm:"type:text;not null"`

	Status          string    `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	RejectionReason *string   `gorm:"type:text"`
	AppliedAt       time.Time `gorm:"not null;index:idx_leave_requests_status"`
	ProcessedAt     *time.Time
	ProcessedBy     *uuid.UUID `gorm:"type:uuid"`

	LeaveType *leavetype.LeaveType `gorm:"foreignKey:LeaveTypeID"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l LeaveRequest) IsPending() bool {
	return l.Status == StatusPending
}
