package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestService(t *testing.T) rbac.Service {
	t.Helper()
	e, err := rbac.NewEnforcer()
	assert.NoError(t, err)
	return rbac.NewService(e)
}

func TestParseRoles(t *testing.T) {
	roles := rbac.ParseRoles([]string{"hr", "EMPLOYEE", "owner", "HR"})

	assert.Equal(t, rbac.Roles{rbac.RoleHR, rbac.RoleEmployee}, roles)
	assert.Equal(t, []string{"HR", "EMPLOYEE"}, roles.Strings())
}

func TestService_Authorize(t *testing.T) {
	svc := newTestService(t)
	all := []rbac.Role{rbac.RoleEmployee, rbac.RoleHR, rbac.RoleAdmin}

	t.Run("admin satisfies every role", func(t *testing.T) {
		for _, required := range all {
			assert.True(t, svc.Authorize(rbac.Roles{rbac.RoleAdmin}, required), required)
		}
	})

	t.Run("exact match otherwise", func(t *testing.T) {
		assert.True(t, svc.Authorize(rbac.Roles{rbac.RoleHR}, rbac.RoleHR))
		assert.True(t, svc.Authorize(rbac.Roles{rbac.RoleEmployee}, rbac.RoleEmployee))
		assert.True(t, svc.Authorize(rbac.Roles{rbac.RoleEmployee, rbac.RoleHR}, rbac.RoleHR))

		assert.False(t, svc.Authorize(rbac.Roles{rbac.RoleEmployee}, rbac.RoleHR))
		assert.False(t, svc.Authorize(rbac.Roles{rbac.RoleHR}, rbac.RoleEmployee))
		assert.False(t, svc.Authorize(rbac.Roles{rbac.RoleHR}, rbac.RoleAdmin))
	})

	t.Run("no roles", func(t *testing.T) {
		for _, required := range all {
			assert.False(t, svc.Authorize(nil, required))
		}
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)

	run := func(roles rbac.Roles, set bool) int {
		w := httptest.NewRecorder()
		_, r := gin.CreateTestContext(w)
		r.GET("/leaves/pending", func(c *gin.Context) {
			if set {
				c.Set(rbac.ContextRoles, roles)
			}
			c.Next()
		}, rbac.RequireRole(svc, rbac.RoleHR), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaves/pending", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, run(rbac.Roles{rbac.RoleHR}, true))
	assert.Equal(t, http.StatusOK, run(rbac.Roles{rbac.RoleAdmin}, true))
	assert.Equal(t, http.StatusForbidden, run(rbac.Roles{rbac.RoleEmployee}, true))
	assert.Equal(t, http.StatusUnauthorized, run(nil, false))
}
