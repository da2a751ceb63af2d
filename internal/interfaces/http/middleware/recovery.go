// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"edu-ai-api/internal/interfaces/http/dto"
	apperrors "edu-ai-api/pkg/errors"
	"edu-ai-api/pkg/logger"
)

// Recovery 捕获 panic，记录堆栈并返回统一错误体。
// 客户端已断开时只记录日志，不再写响应。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			ctx := c.Request.Context()

			if brokenPipe(err) {
				logger.Warn(ctx, "client connection closed during request",
					"path", c.Request.URL.Path,
					"error", err.Error(),
				)
				_ = c.Error(err)
				c.Abort()
				return
			}

			logger.Error(ctx, "panic recovered", err,
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", c.GetString("request_id"),
			)
			abortWithError(c, apperrors.ErrInternalError)
		}()

		c.Next()
	}
}

// abortWithError 中止请求并写出与 handler 一致的错误体
func abortWithError(c *gin.Context, err *apperrors.AppError) {
	status := err.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Code:    status,
		Message: err.Message,
		Error:   &dto.ErrorDetail{ErrorCode: string(err.Code), Details: err.Detail},
		TraceID: c.GetString("trace_id"),
	})
}

func brokenPipe(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
