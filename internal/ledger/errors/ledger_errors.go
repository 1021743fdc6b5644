package ledgererrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave type id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"invalid year",
		http.StatusBadRequest,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be greater than zero",
		http.StatusBadRequest,
	)
	ErrNegativeQuota = apperror.New(
		apperror.CodeInvalidInput,
		"total quota must not be negative",
		http.StatusBadRequest,
	)
	ErrQuotaBelowUsage = apperror.New(
		apperror.CodeInvalidInput,
		"total quota cannot be lower than used days",
		http.StatusBadRequest,
	)
	ErrLedgerNotInitialized = apperror.New(
		apperror.CodeInvalidState,
		"leave ledger not initialized for this period",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidState,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
	ErrDuplicateLedger = apperror.New(
		apperror.CodeConflict,
		"leave ledger already exists for this period",
		http.StatusConflict,
	)
)
