package leave_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/ledger"
	ledgererrors "go-leave/internal/ledger/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn                   func(tx *sql.Tx) leave.Repository
	lockUserFn                 func(ctx context.Context, userID string) error
	leaveTypeIsActiveFn        func(ctx context.Context, leaveTypeID string) (bool, error)
	findOverlappingFn          func(ctx context.Context, userID string, start, end time.Time) (*leave.LeaveRequest, error)
	findDuplicateFn            func(ctx context.Context, userID, leaveTypeID string, start, end time.Time) (*leave.LeaveRequest, error)
	createFn                   func(ctx context.Context, l *leave.LeaveRequest) error
	findByIDFn                 func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findByIDForUpdateFn        func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findPendingByIDForUpdateFn func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	markProcessedFn            func(ctx context.Context, l *leave.LeaveRequest) error
	listFn                     func(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, int64, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) LockUser(ctx context.Context, userID string) error {
	if f.lockUserFn != nil {
		return f.lockUserFn(ctx, userID)
	}
	return nil
}

func (f *fakeLeaveRepository) LeaveTypeIsActive(ctx context.Context, leaveTypeID string) (bool, error) {
	if f.leaveTypeIsActiveFn != nil {
		return f.leaveTypeIsActiveFn(ctx, leaveTypeID)
	}
	return true, nil
}

func (f *fakeLeaveRepository) FindOverlapping(ctx context.Context, userID string, start, end time.Time) (*leave.LeaveRequest, error) {
	if f.findOverlappingFn != nil {
		return f.findOverlappingFn(ctx, userID, start, end)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindDuplicate(ctx context.Context, userID, leaveTypeID string, start, end time.Time) (*leave.LeaveRequest, error) {
	if f.findDuplicateFn != nil {
		return f.findDuplicateFn(ctx, userID, leaveTypeID, start, end)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindByIDForUpdate(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindPendingByIDForUpdate(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findPendingByIDForUpdateFn != nil {
		return f.findPendingByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) MarkProcessed(ctx context.Context, l *leave.LeaveRequest) error {
	if f.markProcessedFn != nil {
		return f.markProcessedFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) List(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}

// memStore keeps requests and one ledger row in memory. Its conditional
// writes behave like the SQL ones: a debit that would exceed the quota and a
// transition of a request that is no longer pending change nothing. Writes
// made inside a transaction opened on db() are undone when it rolls back.
type memStore struct {
	mu       sync.Mutex
	requests map[string]leave.LeaveRequest
	ledger   *ledger.LeaveLedger
	undo     []func()
}

func (s *memStore) record(undo func()) {
	s.undo = append(s.undo, undo)
}

func (s *memStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = nil
}

func (s *memStore) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = nil
}

func (s *memStore) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
}

// db opens a *sql.DB whose transactions commit and roll back the store. It
// serves one transaction at a time and accepts no statements.
func (s *memStore) db() *sql.DB {
	db := sql.OpenDB(memConnector{store: s})
	db.SetMaxOpenConns(1)
	return db
}

type memConnector struct{ store *memStore }

func (c memConnector) Connect(context.Context) (driver.Conn, error) {
	return memConn(c), nil
}

func (c memConnector) Driver() driver.Driver { return memDriver{} }

type memDriver struct{}

func (memDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("memDriver: open through memConnector")
}

type memConn struct{ store *memStore }

func (c memConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("memConn: unexpected statement %q", query)
}

func (c memConn) Close() error { return nil }

func (c memConn) Begin() (driver.Tx, error) {
	c.store.begin()
	return memTx(c), nil
}

type memTx struct{ store *memStore }

func (t memTx) Commit() error {
	t.store.commit()
	return nil
}

func (t memTx) Rollback() error {
	t.store.rollback()
	return nil
}

func newMemStore(balance *ledger.LeaveLedger, requests ...leave.LeaveRequest) *memStore {
	s := &memStore{requests: map[string]leave.LeaveRequest{}, ledger: balance}
	for _, r := range requests {
		s.requests[r.ID.String()] = r
	}
	return s
}

func (s *memStore) request(id uuid.UUID) leave.LeaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id.String()]
}

func (s *memStore) usedDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.UsedDays
}

func (s *memStore) leaveRepo() *fakeLeaveRepository {
	return &fakeLeaveRepository{
		findPendingByIDForUpdateFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			r, ok := s.requests[id]
			if !ok || r.Status != leave.StatusPending {
				return nil, gorm.ErrRecordNotFound
			}
			return &r, nil
		},
		findByIDForUpdateFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			r, ok := s.requests[id]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			return &r, nil
		},
		markProcessedFn: func(ctx context.Context, l *leave.LeaveRequest) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			r, ok := s.requests[l.ID.String()]
			if !ok || r.Status != leave.StatusPending {
				return leaveerrors.ErrInvalidStatusTransition
			}
			s.requests[l.ID.String()] = *l
			s.record(func() { s.requests[r.ID.String()] = r })
			return nil
		},
	}
}

type memLedgerRepository struct {
	store *memStore
}

func (m *memLedgerRepository) WithTx(tx *sql.Tx) ledger.Repository { return m }

func (m *memLedgerRepository) find(userID, leaveTypeID string, year int) (*ledger.LeaveLedger, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	l := m.store.ledger
	if l == nil || l.UserID.String() != userID || l.LeaveTypeID.String() != leaveTypeID || l.Year != year {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLedgerRepository) FindForPeriod(ctx context.Context, userID, leaveTypeID string, year int) (*ledger.LeaveLedger, error) {
	return m.find(userID, leaveTypeID, year)
}

func (m *memLedgerRepository) FindForPeriodForUpdate(ctx context.Context, userID, leaveTypeID string, year int) (*ledger.LeaveLedger, error) {
	return m.find(userID, leaveTypeID, year)
}

func (m *memLedgerRepository) Create(ctx context.Context, l *ledger.LeaveLedger) error {
	return nil
}

func (m *memLedgerRepository) Debit(ctx context.Context, id uuid.UUID, days int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	l := m.store.ledger
	if l == nil || l.ID != id || l.UsedDays+days > l.TotalQuota {
		return ledgererrors.ErrInsufficientBalance
	}
	l.UsedDays += days
	m.store.record(func() { l.UsedDays -= days })
	return nil
}

func (m *memLedgerRepository) UpdateQuota(ctx context.Context, id uuid.UUID, totalQuota int) error {
	return nil
}

func (m *memLedgerRepository) ListByUserAndYear(ctx context.Context, userID string, year int) ([]ledger.Balance, error) {
	return nil, nil
}

func (m *memLedgerRepository) ListByYear(ctx context.Context, year, page, pageSize int) ([]ledger.Balance, int64, error) {
	return nil, 0, nil
}

func (m *memLedgerRepository) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

// fakeLedgerRepo fails every lookup unless a function is set.
type fakeLedgerRepo struct {
	withTxFn func(tx *sql.Tx) ledger.Repository
}

func (f *fakeLedgerRepo) WithTx(tx *sql.Tx) ledger.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLedgerRepo) FindForPeriod(ctx context.Context, userID, leaveTypeID string, year int) (*ledger.LeaveLedger, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) FindForPeriodForUpdate(ctx context.Context, userID, leaveTypeID string, year int) (*ledger.LeaveLedger, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) Create(ctx context.Context, l *ledger.LeaveLedger) error { return nil }

func (f *fakeLedgerRepo) Debit(ctx context.Context, id uuid.UUID, days int) error {
	return ledgererrors.ErrInsufficientBalance
}

func (f *fakeLedgerRepo) UpdateQuota(ctx context.Context, id uuid.UUID, totalQuota int) error {
	return nil
}

func (f *fakeLedgerRepo) ListByUserAndYear(ctx context.Context, userID string, year int) ([]ledger.Balance, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) ListByYear(ctx context.Context, year, page, pageSize int) ([]ledger.Balance, int64, error) {
	return nil, 0, nil
}

func (f *fakeLedgerRepo) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}
