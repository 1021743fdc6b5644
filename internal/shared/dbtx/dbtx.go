package dbtx

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Bind returns a gorm session for ctx. When tx is set every statement of the
// session runs inside that transaction, so row locks taken through gorm are
// held until the caller commits or rolls back.
func Bind(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	s := db.WithContext(ctx)
	if tx != nil {
		s.Statement.ConnPool = tx
	}
	return s
}

// Execer picks tx over db for raw statements.
func Execer(db *sql.DB, tx *sql.Tx) interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
} {
	if tx != nil {
		return tx
	}
	return db
}
