package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"edu-ai-api/internal/domain/service"
	"edu-ai-api/pkg/logger"
)

const (
	// UserIDHeader 上游网关注入的调用方用户 ID
	UserIDHeader = "X-User-ID"

	maxUserIDLength = 64
)

// UserContext 将 X-User-ID 写入请求上下文，用于交互记录归属与限流
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if len(userID) > maxUserIDLength {
			userID = userID[:maxUserIDLength]
		}
		if userID != "" {
			c.Set("user_id", userID)
			ctx := service.WithUser(c.Request.Context(), userID)
			ctx = logger.WithContext(ctx, logger.UserIDKey, userID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
