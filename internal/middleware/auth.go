package middleware

import (
	"context"
	"strings"

	"labelhub/internal/apperr"
	"labelhub/internal/models"
	"labelhub/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
	contextIsAdmin  = "is_admin"
	contextUser     = "user"
)

// Authenticator 根据访问令牌解析用户
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware JWT认证中间件
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "authentication credentials were not provided")
			c.Abort()
			return
		}

		// 解析Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		// 验证Token并加载用户
		user, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if apperr.KindOf(err) == apperr.KindAuthentication {
				utils.Unauthorized(c, "token is invalid or expired")
			} else {
				utils.Error(c, err)
			}
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set(contextUserID, user.ID)
		c.Set(contextUsername, user.Username)
		c.Set(contextIsAdmin, user.IsAdmin)
		c.Set(contextUser, user)

		c.Next()
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(contextUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUsername 从上下文获取用户名
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(contextUsername)
	if !exists {
		return "", false
	}
	return username.(string), true
}

// GetUser 从上下文获取当前用户
func GetUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(contextUser)
	if !exists {
		return nil, false
	}
	return user.(*models.User), true
}

// IsAdmin 从上下文判断是否为管理员
func IsAdmin(c *gin.Context) bool {
	isAdmin, exists := c.Get(contextIsAdmin)
	if !exists {
		return false
	}
	return isAdmin.(bool)
}
