package assistant

import (
	"context"
	"errors"
	"fmt"

	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/port"
	apperrors "edu-ai-api/pkg/errors"
)

// ErrorKind 任务失败类型
type ErrorKind string

const (
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindTimeout         ErrorKind = "timeout"
	KindAuth            ErrorKind = "auth"
	KindRequestRejected ErrorKind = "request_rejected"
	KindRateLimit       ErrorKind = "rate_limit"
	KindValidation      ErrorKind = "validation"
	// KindUnavailable 瞬时故障耗尽重试次数
	KindUnavailable ErrorKind = "unavailable"
	// KindCanceled 调用方放弃了本次调用
	KindCanceled ErrorKind = "canceled"
)

// 按类型匹配的哨兵错误，用法：errors.Is(err, assistant.ErrTimeout)
var (
	ErrInvalidRequest  = &TaskError{Kind: KindInvalidRequest}
	ErrTimeout         = &TaskError{Kind: KindTimeout}
	ErrAuth            = &TaskError{Kind: KindAuth}
	ErrRequestRejected = &TaskError{Kind: KindRequestRejected}
	ErrRateLimit       = &TaskError{Kind: KindRateLimit}
	ErrValidation      = &TaskError{Kind: KindValidation}
	ErrUnavailable     = &TaskError{Kind: KindUnavailable}
	ErrCanceled        = &TaskError{Kind: KindCanceled}
)

// TaskError 任务操作返回的类型化错误。Message 可直接展示给用户，不含模型原始输出。
type TaskError struct {
	Kind    ErrorKind
	Task    model.TaskKind
	Stage   Stage
	Message string
	Err     error
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("%s failed at %s: %s", e.Task, e.Stage, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is 哨兵错误只比较 Kind
func (e *TaskError) Is(target error) bool {
	t, ok := target.(*TaskError)
	if !ok || t.Task != "" || t.Stage != "" {
		return false
	}
	return t.Kind == e.Kind
}

// AppError 转换为对外的应用错误
func (e *TaskError) AppError() *apperrors.AppError {
	var code apperrors.ErrorCode
	switch e.Kind {
	case KindInvalidRequest:
		code = apperrors.CodeAIInvalidRequest
	case KindTimeout:
		code = apperrors.CodeAITimeout
	case KindAuth:
		code = apperrors.CodeAIAuthFailed
	case KindRequestRejected:
		code = apperrors.CodeAIRequestRejected
	case KindRateLimit:
		code = apperrors.CodeAIRateLimited
	case KindValidation:
		code = apperrors.CodeAIValidationFailed
	case KindUnavailable:
		code = apperrors.CodeAIUpstreamUnavailable
	case KindCanceled:
		code = apperrors.CodeAICanceled
	default:
		code = apperrors.CodeInternalError
	}
	return apperrors.Wrap(e, code, e.Message).
		WithDetail(fmt.Sprintf("task=%s stage=%s", e.Task, e.Stage))
}

// AsTaskError 从错误链中取出 TaskError
func AsTaskError(err error) (*TaskError, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func kindMessage(kind ErrorKind) string {
	switch kind {
	case KindTimeout:
		return "the AI service did not respond in time"
	case KindAuth:
		return "the AI service rejected the configured credentials"
	case KindRequestRejected:
		return "the AI service rejected the request"
	case KindRateLimit:
		return "the AI service is rate limiting requests, please try again later"
	case KindValidation:
		return "the AI response could not be understood"
	case KindCanceled:
		return "the request was canceled"
	default:
		return "the AI service is temporarily unavailable"
	}
}

func newTaskError(kind ErrorKind, task model.TaskKind, stage Stage, err error) *TaskError {
	return &TaskError{Kind: kind, Task: task, Stage: stage, Message: kindMessage(kind), Err: err}
}

func invalidRequest(task model.TaskKind, err error) *TaskError {
	te := &TaskError{Kind: KindInvalidRequest, Task: task, Stage: StageBuilding, Err: err}
	var ire *model.InvalidRequestError
	if errors.As(err, &ire) {
		te.Message = fmt.Sprintf("%s %s", ire.Field, ire.Reason)
	} else {
		te.Message = "the request could not be prepared"
	}
	return te
}

// dispatchFailure 将推理失败映射为任务错误；调用整体截止时间优先于端点的失败类别
func dispatchFailure(ctx context.Context, task model.TaskKind, stage Stage, err error) *TaskError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return newTaskError(KindTimeout, task, stage, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return newTaskError(KindCanceled, task, stage, err)
	}

	ie, ok := port.AsInferenceError(err)
	if !ok {
		return newTaskError(KindUnavailable, task, stage, err)
	}
	switch ie.Class {
	case port.FailureTimeout:
		return newTaskError(KindTimeout, task, stage, err)
	case port.FailureAuth:
		return newTaskError(KindAuth, task, stage, err)
	case port.FailureRejected:
		return newTaskError(KindRequestRejected, task, stage, err)
	case port.FailureRateLimited:
		return newTaskError(KindRateLimit, task, stage, err)
	case port.FailureCanceled:
		return newTaskError(KindCanceled, task, stage, err)
	default:
		return newTaskError(KindUnavailable, task, stage, err)
	}
}
