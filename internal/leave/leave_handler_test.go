package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leave/internal/calendar"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	ledgererrors "go-leave/internal/ledger/errors"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  *apiMeta        `json:"meta"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeLeaveService struct {
	applyFn      func(ctx context.Context, userID string, req leave.ApplyLeaveRequest) (leave.ApplyLeaveResponse, error)
	approveFn    func(ctx context.Context, actorID, id string) (leave.LeaveResponse, error)
	rejectFn     func(ctx context.Context, actorID, id string, req leave.RejectLeaveRequest) (leave.LeaveResponse, error)
	getByIDFn    func(ctx context.Context, requesterID string, canReadAll bool, id string) (leave.LeaveResponse, error)
	getMineFn    func(ctx context.Context, userID string, q leave.ListQuery) ([]leave.LeaveResponse, int64, error)
	getPendingFn func(ctx context.Context, q leave.ListQuery) ([]leave.LeaveResponse, int64, error)
	getAllFn     func(ctx context.Context, q leave.ListQuery) ([]leave.LeaveResponse, int64, error)
}

func (f *fakeLeaveService) Apply(ctx context.Context, userID string, req leave.ApplyLeaveRequest) (leave.ApplyLeaveResponse, error) {
	return f.applyFn(ctx, userID, req)
}
func (f *fakeLeaveService) Approve(ctx context.Context, actorID, id string) (leave.LeaveResponse, error) {
	return f.approveFn(ctx, actorID, id)
}
func (f *fakeLeaveService) Reject(ctx context.Context, actorID, id string, req leave.RejectLeaveRequest) (leave.LeaveResponse, error) {
	return f.rejectFn(ctx, actorID, id, req)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, requesterID string, canReadAll bool, id string) (leave.LeaveResponse, error) {
	return f.getByIDFn(ctx, requesterID, canReadAll, id)
}
func (f *fakeLeaveService) GetMine(ctx context.Context, userID string, q leave.ListQuery) ([]leave.LeaveResponse, int64, error) {
	return f.getMineFn(ctx, userID, q)
}
func (f *fakeLeaveService) GetPending(ctx context.Context, q leave.ListQuery) ([]leave.LeaveResponse, int64, error) {
	return f.getPendingFn(ctx, q)
}
func (f *fakeLeaveService) GetAll(ctx context.Context, q leave.ListQuery) ([]leave.LeaveResponse, int64, error) {
	return f.getAllFn(ctx, q)
}

func newAuthz(t *testing.T) rbac.Service {
	t.Helper()
	e, err := rbac.NewEnforcer()
	require.NoError(t, err)
	return rbac.NewService(e)
}

// newRouter mounts the leave routes behind a stub that plays the auth
// middleware for userID with roles.
func newRouter(t *testing.T, svc leave.Service, userID string, roles ...rbac.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	authz := newAuthz(t)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set("user_id_validated", userID)
		c.Set(rbac.ContextRoles, rbac.Roles(roles))
		c.Next()
	})
	leave.RegisterRoutes(api, leave.NewHandler(svc, authz), authz)
	return r
}

func TestLeaveHandler_Apply(t *testing.T) {
	userID := uuid.New().String()
	typeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		leaveID := uuid.New().String()
		svc := &fakeLeaveService{
			applyFn: func(ctx context.Context, uid string, req leave.ApplyLeaveRequest) (leave.ApplyLeaveResponse, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, typeID, req.LeaveTypeID)
				assert.Equal(t, "2026-10-26", req.StartDate)
				return leave.ApplyLeaveResponse{LeaveID: leaveID, TotalDays: 5, Status: leave.StatusPending}, nil
			},
		}
		r := newRouter(t, svc, userID, rbac.RoleEmployee)

		body := `{"leave_type_id":"` + typeID + `","start_date":"2026-10-26","end_date":"2026-10-30","reason":"trip"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/apply", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.ApplyLeaveResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, leaveID, got.LeaveID)
		assert.Equal(t, 5, got.TotalDays)
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newRouter(t, &fakeLeaveService{}, userID, rbac.RoleEmployee)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/apply", strings.NewReader(`{"start_date":"2026-10-26"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("service errors keep their status", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode int
		}{
			{"weekend", calendar.ErrWeekendNotAllowed, http.StatusBadRequest},
			{"overlap", leaveerrors.ErrLeaveOverlap.Withf("you already have a pending leave request for overlapping dates"), http.StatusConflict},
			{"duplicate", leaveerrors.ErrDuplicateRequest, http.StatusConflict},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := &fakeLeaveService{
					applyFn: func(ctx context.Context, uid string, req leave.ApplyLeaveRequest) (leave.ApplyLeaveResponse, error) {
						return leave.ApplyLeaveResponse{}, tt.err
					},
				}
				r := newRouter(t, svc, userID, rbac.RoleEmployee)

				body := `{"leave_type_id":"` + typeID + `","start_date":"2026-10-24","end_date":"2026-10-25","reason":"trip"}`
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/apply", strings.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				r.ServeHTTP(w, req)

				assert.Equal(t, tt.wantCode, w.Code)
				env := decodeEnvelope(t, w.Body.Bytes())
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.err.Error(), env.Error.Message)
			})
		}
	})
}

func TestLeaveHandler_Approve(t *testing.T) {
	actorID := uuid.New().String()
	leaveID := uuid.New().String()

	t.Run("hr approves", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, aid, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, leaveID, id)
				return leave.LeaveResponse{ID: id, Status: leave.StatusApproved}, nil
			},
		}
		r := newRouter(t, svc, actorID, rbac.RoleHR)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/approve", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got leave.LeaveResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, leave.StatusApproved, got.Status)
	})

	t.Run("employee is forbidden", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, aid, id string) (leave.LeaveResponse, error) {
				t.Fatal("service must not be called")
				return leave.LeaveResponse{}, nil
			},
		}
		r := newRouter(t, svc, actorID, rbac.RoleEmployee)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/approve", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, aid, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, ledgererrors.ErrInsufficientBalance
			},
		}
		r := newRouter(t, svc, actorID, rbac.RoleAdmin)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/approve", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
	})

	t.Run("not pending", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, aid, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound.Withf("leave not found or not pending")
			},
		}
		r := newRouter(t, svc, actorID, rbac.RoleHR)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/approve", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLeaveHandler_Reject(t *testing.T) {
	actorID := uuid.New().String()
	leaveID := uuid.New().String()

	t.Run("with reason", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, aid, id string, req leave.RejectLeaveRequest) (leave.LeaveResponse, error) {
				require.NotNil(t, req.RejectionReason)
				assert.Equal(t, "short staffed", *req.RejectionReason)
				return leave.LeaveResponse{ID: id, Status: leave.StatusRejected, RejectionReason: req.RejectionReason}, nil
			},
		}
		r := newRouter(t, svc, actorID, rbac.RoleHR)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/reject", strings.NewReader(`{"rejection_reason":"short staffed"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("without body", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, aid, id string, req leave.RejectLeaveRequest) (leave.LeaveResponse, error) {
				assert.Nil(t, req.RejectionReason)
				return leave.LeaveResponse{ID: id, Status: leave.StatusRejected}, nil
			},
		}
		r := newRouter(t, svc, actorID, rbac.RoleHR)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/reject", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLeaveHandler_Lists(t *testing.T) {
	userID := uuid.New().String()

	t.Run("my leaves with paging", func(t *testing.T) {
		svc := &fakeLeaveService{
			getMineFn: func(ctx context.Context, uid string, q leave.ListQuery) ([]leave.LeaveResponse, int64, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, "approved", q.Status)
				assert.Equal(t, "date_asc", q.Sort)
				assert.Equal(t, 2, q.Page)
				assert.Equal(t, 5, q.PageSize)
				return []leave.LeaveResponse{{ID: uuid.New().String()}}, 6, nil
			},
		}
		r := newRouter(t, svc, userID, rbac.RoleEmployee)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaves/my?status=approved&sort=date_asc&page=2&per_page=5", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		require.NotNil(t, env.Meta)
		assert.EqualValues(t, 6, env.Meta.Total)
		assert.Equal(t, 2, env.Meta.Page)
	})

	t.Run("defaults", func(t *testing.T) {
		svc := &fakeLeaveService{
			getMineFn: func(ctx context.Context, uid string, q leave.ListQuery) ([]leave.LeaveResponse, int64, error) {
				assert.Equal(t, "all", q.Status)
				assert.Equal(t, "date_desc", q.Sort)
				assert.Equal(t, 1, q.Page)
				assert.Equal(t, 10, q.PageSize)
				return nil, 0, nil
			},
		}
		r := newRouter(t, svc, userID, rbac.RoleEmployee)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaves/my", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		svc := &fakeLeaveService{
			getAllFn: func(ctx context.Context, q leave.ListQuery) ([]leave.LeaveResponse, int64, error) {
				return nil, 0, leaveerrors.ErrInvalidStatusFilter
			},
		}
		r := newRouter(t, svc, userID, rbac.RoleHR)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaves/all?status=cancelled", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("pending requires hr", func(t *testing.T) {
		r := newRouter(t, &fakeLeaveService{}, userID, rbac.RoleEmployee)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaves/pending", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestLeaveHandler_GetByID(t *testing.T) {
	leaveID := uuid.New().String()

	for _, tc := range []struct {
		role       rbac.Role
		canReadAll bool
	}{
		{rbac.RoleEmployee, false},
		{rbac.RoleHR, true},
		{rbac.RoleAdmin, true},
	} {
		t.Run(string(tc.role), func(t *testing.T) {
			userID := uuid.New().String()
			svc := &fakeLeaveService{
				getByIDFn: func(ctx context.Context, rid string, canReadAll bool, id string) (leave.LeaveResponse, error) {
					assert.Equal(t, userID, rid)
					assert.Equal(t, tc.canReadAll, canReadAll)
					assert.Equal(t, leaveID, id)
					return leave.LeaveResponse{ID: id}, nil
				},
			}
			r := newRouter(t, svc, userID, tc.role)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaves/"+leaveID, nil))

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
