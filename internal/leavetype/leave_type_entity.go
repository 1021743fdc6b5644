package leavetype

import (
	"time"

	"github.com/google/uuid"
)

// LeaveType is a catalog entry created by administrative seeding and read
// only at runtime.
type LeaveType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_leave_types_name"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveType) TableName() string {
	return "leave_types"
}
