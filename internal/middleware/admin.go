package middleware

import (
	"labelhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware 管理员权限中间件，需在 AuthMiddleware 之后使用
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			utils.Forbidden(c, "you do not have permission to perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}
