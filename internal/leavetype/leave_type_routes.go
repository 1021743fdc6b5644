package leavetype

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already run the auth middleware.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leaves := r.Group("/leaves")
	{
		leaves.GET("/types", handler.GetAll)
	}
}
