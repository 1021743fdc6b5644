package rbac

import (
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// ContextRoles is the gin key the auth middleware stores Roles under.
const ContextRoles = "roles"

func RolesFromContext(c *gin.Context) Roles {
	v, ok := c.Get(ContextRoles)
	if !ok {
		return nil
	}
	roles, _ := v.(Roles)
	return roles
}

// RequireRole aborts with 403 unless the caller holds required or ADMIN.
func RequireRole(service Service, required Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextRoles); !ok {
			e := apperror.ErrUnauthorized
			response.Error(c, e.HTTPStatus, e.Code, "missing auth context", nil)
			c.Abort()
			return
		}

		if !service.Authorize(RolesFromContext(c), required) {
			e := apperror.ErrForbidden
			response.Error(c, e.HTTPStatus, e.Code, e.Message, gin.H{"required": string(required)})
			c.Abort()
			return
		}
		c.Next()
	}
}
