// Package handler 提供 HTTP 请求处理器
package handler

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"edu-ai-api/internal/application/assistant"
	"edu-ai-api/internal/interfaces/http/dto"
	"edu-ai-api/internal/workflow/port"
	apperrors "edu-ai-api/pkg/errors"
)

// respondError 任务错误按类型映射到对外错误码，其它错误按应用错误处理
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	te, ok := assistant.AsTaskError(err)
	if !ok {
		dto.AppError(c, apperrors.AsAppError(err))
		return
	}
	// 端点给出的 Retry-After 透传给调用方
	if ie, ok := port.AsInferenceError(err); ok && te.Kind == assistant.KindRateLimit && ie.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ie.RetryAfter.Seconds()))))
	}
	dto.AppError(c, te.AppError())
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
