// Package errors 定义对外暴露的错误码与应用错误
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	// 通用错误 (1xxx)
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// AI 任务错误 (4xxx)，与任务失败类别一一对应
	CodeAIInvalidRequest      ErrorCode = "4001"
	CodeAITimeout             ErrorCode = "4002"
	CodeAIAuthFailed          ErrorCode = "4003"
	CodeAIRequestRejected     ErrorCode = "4004"
	CodeAIRateLimited         ErrorCode = "4005"
	CodeAIUpstreamUnavailable ErrorCode = "4006"
	CodeAIValidationFailed    ErrorCode = "4007"
	CodeAICanceled            ErrorCode = "4008"

	// 存储错误 (5xxx)
	CodeDatabaseError ErrorCode = "5001"
)

// StatusClientClosedRequest 客户端已断开（nginx 约定）
const StatusClientClosedRequest = 499

var statusByCode = map[ErrorCode]int{
	CodeInvalidParam:          http.StatusBadRequest,
	CodeNotFound:              http.StatusNotFound,
	CodeTooManyRequests:       http.StatusTooManyRequests,
	CodeServiceUnavailable:    http.StatusServiceUnavailable,
	CodeAIInvalidRequest:      http.StatusBadRequest,
	CodeAITimeout:             http.StatusGatewayTimeout,
	CodeAIAuthFailed:          http.StatusBadGateway,
	CodeAIRequestRejected:     http.StatusBadGateway,
	CodeAIRateLimited:         http.StatusTooManyRequests,
	CodeAIUpstreamUnavailable: http.StatusBadGateway,
	CodeAIValidationFailed:    http.StatusUnprocessableEntity,
	CodeAICanceled:            StatusClientClosedRequest,
}

// HTTPStatus 错误码对应的 HTTP 状态，未登记的为 500
func (c ErrorCode) HTTPStatus() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，可用 errors.Is(err, ErrNotFound) 判定
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithDetail 返回附带详情的副本，不修改预定义错误
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回附带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: code.HTTPStatus()}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: code.HTTPStatus(), Err: err}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")
)

// IsAppError 错误链中是否存在 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 取出错误链中的 AppError。
// context 取消与超时分别映射为 4008 与 4002，其余未知错误统一为 1000。
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return Wrap(err, CodeAICanceled, "request canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(err, CodeAITimeout, "request timed out")
	default:
		return Wrap(err, CodeUnknown, "unknown error")
	}
}
