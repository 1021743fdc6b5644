package app

import (
	"fmt"

	"go-leave/internal/leave"
	"go-leave/internal/leavetype"
	"go-leave/internal/ledger"
	"go-leave/internal/messaging/kafka"

	"gorm.io/gorm"
)

// Migrate creates the tables this service owns. The users table belongs to
// the identity service and is only read.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("migrate: pgcrypto: %w", err)
	}

	if err := db.AutoMigrate(
		&leavetype.LeaveType{},
		&ledger.LeaveLedger{},
		&leave.LeaveRequest{},
		&kafka.OutboxRecord{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
