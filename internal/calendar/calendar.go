// Package calendar holds the date rules for leave requests: which days are
// weekend days and how many days a range covers.
//
// Weekend days inside a range are counted as leave days. Only the two
// endpoints are checked against the weekend.
package calendar

import (
	"net/http"
	"time"

	"go-leave/internal/shared/apperror"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrWeekendNotAllowed = apperror.New(
		apperror.CodeInvalidInput,
		"leave cannot start or end on a weekend (Saturday/Sunday)",
		http.StatusBadRequest,
	)
)

func IsWeekend(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// CalculateDays returns the inclusive number of calendar days in [start, end].
func CalculateDays(start, end time.Time) (int, error) {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return 0, ErrInvalidRange
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

func ValidateDates(start, end time.Time) error {
	if IsWeekend(start) {
		return ErrWeekendNotAllowed.Withf("start date cannot be on a weekend (Saturday/Sunday)")
	}
	if IsWeekend(end) {
		return ErrWeekendNotAllowed.Withf("end date cannot be on a weekend (Saturday/Sunday)")
	}
	return nil
}

func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// Date drops the clock part and pins the value to UTC so that day arithmetic
// never crosses a DST boundary.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
