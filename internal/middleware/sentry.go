package middleware

import (
	"fmt"
	"net/http"

	"labelhub/internal/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// requestHub 为每个请求复制一个Hub，并发请求之间不共享scope；未初始化Sentry时返回nil
func requestHub(c *gin.Context) *sentry.Hub {
	if sentry.CurrentHub().Client() == nil {
		return nil
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetTag("method", c.Request.Method)
		scope.SetTag("route", c.FullPath())
		if userID, ok := GetUserID(c); ok {
			scope.SetUser(sentry.User{ID: fmt.Sprint(userID)})
		}
	})
	return hub
}

// SentryMiddleware 将5xx响应附带的错误上报到Sentry，未初始化Sentry时不做任何事
func SentryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		hub := requestHub(c)
		if hub == nil {
			return
		}
		for _, e := range c.Errors {
			hub.CaptureException(e.Err)
		}
	}
}

// Recovery 捕获panic，记录日志并上报，返回500
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("请求处理发生panic")

		if hub := requestHub(c); hub != nil {
			hub.RecoverWithContext(c.Request.Context(), recovered)
		}

		utils.InternalError(c, "internal server error")
		c.Abort()
	})
}
