package ledger

import (
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already run the auth and user extraction
// middleware.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authz rbac.Service) {
	leaves := r.Group("/leaves")
	{
		leaves.GET("/mybalance", handler.GetMyBalance)
		leaves.GET("/balances", rbac.RequireRole(authz, rbac.RoleHR), handler.GetAllBalances)
		leaves.POST("/update-quota", rbac.RequireRole(authz, rbac.RoleHR), handler.UpdateQuota)
		leaves.POST("/adjust-quota", rbac.RequireRole(authz, rbac.RoleHR), handler.AdjustQuota)
		leaves.POST("/ledgers", rbac.RequireRole(authz, rbac.RoleAdmin), handler.Create)
	}
}
