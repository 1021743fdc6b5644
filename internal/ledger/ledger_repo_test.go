package ledger_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"go-leave/internal/ledger"
	ledgererrors "go-leave/internal/ledger/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupLedgerRepoTest(t *testing.T) (*sql.DB, sqlmock.Sqlmock, ledger.Repository) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	assert.NoError(t, err)

	return db, mock, ledger.NewRepository(gdb)
}

var ledgerColumns = []string{"id", "user_id", "leave_type_id", "year", "total_quota", "used_days", "created_at", "updated_at"}

func TestLedgerRepository_FindForPeriodForUpdate(t *testing.T) {
	db, mock, repo := setupLedgerRepoTest(t)
	defer db.Close()

	userID := uuid.New()
	typeID := uuid.New()
	ledgerID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "leave_ledgers" WHERE user_id = \$1 AND leave_type_id = \$2 AND year = \$3 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(ledgerColumns).
			AddRow(ledgerID.String(), userID.String(), typeID.String(), 2026, 18, 5, now, now))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	l, err := repo.WithTx(tx).FindForPeriodForUpdate(context.Background(), userID.String(), typeID.String(), 2026)
	assert.NoError(t, err)
	assert.Equal(t, ledgerID, l.ID)
	assert.Equal(t, 13, l.Remaining())

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Debit(t *testing.T) {
	debitSQL := `UPDATE "leave_ledgers" SET "used_days"=used_days \+ \$1.* WHERE id = .* AND used_days \+ .* <= total_quota`

	t.Run("within quota runs inside the bound tx", func(t *testing.T) {
		db, mock, repo := setupLedgerRepoTest(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(debitSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = repo.WithTx(tx).Debit(context.Background(), uuid.New(), 5)
		assert.NoError(t, err)

		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row updated means insufficient balance", func(t *testing.T) {
		db, mock, repo := setupLedgerRepoTest(t)
		defer db.Close()

		mock.ExpectExec(debitSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Debit(context.Background(), uuid.New(), 15)
		assert.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_UpdateQuota(t *testing.T) {
	db, mock, repo := setupLedgerRepoTest(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "leave_ledgers" SET "total_quota"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateQuota(context.Background(), uuid.New(), 3)
	assert.ErrorIs(t, err, ledgererrors.ErrQuotaBelowUsage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListActiveUserIDs(t *testing.T) {
	db, mock, repo := setupLedgerRepoTest(t)
	defer db.Close()

	a, b := uuid.New().String(), uuid.New().String()
	mock.ExpectQuery(`SELECT .*id.* FROM "users" WHERE is_active = \$1`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a).AddRow(b))

	ids, err := repo.ListActiveUserIDs(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{a, b}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Create(t *testing.T) {
	insertSQL := `INSERT INTO "leave_ledgers"`
	newLedger := func() *ledger.LeaveLedger {
		return &ledger.LeaveLedger{UserID: uuid.New(), LeaveTypeID: uuid.New(), Year: 2026, TotalQuota: 18}
	}

	t.Run("period already opened", func(t *testing.T) {
		db, mock, repo := setupLedgerRepoTest(t)
		defer db.Close()

		mock.ExpectQuery(insertSQL).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_leave_ledger_period"})

		err := repo.Create(context.Background(), newLedger())

		assert.ErrorIs(t, err, ledgererrors.ErrDuplicateLedger)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other unique violation is returned as is", func(t *testing.T) {
		db, mock, repo := setupLedgerRepoTest(t)
		defer db.Close()

		mock.ExpectQuery(insertSQL).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "leave_ledgers_pkey"})

		err := repo.Create(context.Background(), newLedger())

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ledgererrors.ErrDuplicateLedger)
	})
}
