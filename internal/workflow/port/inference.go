package port

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
)

// InferenceClient 定义工作流层对推理端点的最小依赖（port）。
type InferenceClient interface {
	Send(ctx context.Context, req InferenceRequest) (*InferenceResult, error)
}

// InferenceRequest 一次推理请求
type InferenceRequest struct {
	Messages  []*schema.Message
	MaxTokens int
	// Timeout 单次调用超时；0 表示使用客户端默认值
	Timeout time.Duration
}

// InferenceResult 推理结果与用量元数据
type InferenceResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	// TokensEstimated 端点未返回 usage 时为 true，Token 数为本地估算值
	TokensEstimated bool
	// Latency 从首次尝试到成功返回的总耗时（含重试退避）
	Latency  time.Duration
	Attempts int
}

// FailureClass 推理失败类别
type FailureClass string

const (
	FailureTimeout     FailureClass = "timeout"
	FailureAuth        FailureClass = "auth"
	FailureRejected    FailureClass = "rejected"
	FailureRateLimited FailureClass = "rate_limited"
	FailureUnavailable FailureClass = "unavailable"
	FailureCanceled    FailureClass = "canceled"
)

// Retryable 是否属于可重试的瞬时故障
func (c FailureClass) Retryable() bool {
	switch c {
	case FailureTimeout, FailureRateLimited, FailureUnavailable:
		return true
	}
	return false
}

// InferenceError 推理失败。Message 不包含模型输出。
type InferenceError struct {
	Class      FailureClass
	StatusCode int
	// RetryAfter 端点给出的建议等待时间；未给出时为 0
	RetryAfter time.Duration
	Attempts   int
	Message    string
	Err        error
}

func (e *InferenceError) Error() string {
	msg := fmt.Sprintf("inference %s", e.Class)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// AsInferenceError 从错误链中取出 InferenceError
func AsInferenceError(err error) (*InferenceError, bool) {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
