package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"labelhub/internal/metrics"
	"labelhub/internal/utils"
	"labelhub/pkg/redis_limiter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UploadLimiter 上传并发限制
type UploadLimiter interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string)
}

// UploadLimitMiddleware 限制每个用户同时进行的上传数，limiter为nil时不限制
// Redis不可用时放行请求，只记录日志
func UploadLimitMiddleware(limiter UploadLimiter, m *metrics.Metrics, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}
		key := fmt.Sprintf("user:%d", userID)

		if err := limiter.Acquire(c.Request.Context(), key); err != nil {
			if errors.Is(err, redis_limiter.ErrLimitReached) {
				m.ObserveUploadRejected()
				utils.ErrorResponse(c, http.StatusTooManyRequests, "too many concurrent uploads, try again later")
				c.Abort()
				return
			}
			logger.WithError(err).WithField("user_id", userID).Warn("获取上传槽位失败，跳过限制")
			c.Next()
			return
		}
		defer limiter.Release(context.WithoutCancel(c.Request.Context()), key)

		c.Next()
	}
}
