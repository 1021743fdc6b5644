package leave

import (
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already run the auth and user extraction
// middleware. applyGuards run in front of POST /leaves/apply only.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authz rbac.Service,
	applyGuards ...gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	{
		leaves.POST("/apply", append(applyGuards, handler.Apply)...)
		leaves.GET("/my", handler.GetMine)
		leaves.GET("/pending", rbac.RequireRole(authz, rbac.RoleHR), handler.GetPending)
		leaves.GET("/all", rbac.RequireRole(authz, rbac.RoleHR), handler.GetAll)
		leaves.GET("/:id", handler.GetByID)
		leaves.POST("/:id/approve", rbac.RequireRole(authz, rbac.RoleHR), handler.Approve)
		leaves.POST("/:id/reject", rbac.RequireRole(authz, rbac.RoleHR), handler.Reject)
	}
}
