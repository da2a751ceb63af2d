package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"edu-ai-api/internal/workflow/node"
	"edu-ai-api/internal/workflow/port"
)

const maxErrorMessageRunes = 200

var (
	reRetryAfter  = regexp.MustCompile(`(?i)retry after\s+(\d+)`)
	reTryAgainIn  = regexp.MustCompile(`(?i)try again in\s+([0-9]+(?:\.[0-9]+)?)\s*(ms|s)\b`)
	reTryAgainMin = regexp.MustCompile(`(?i)try again in\s+([0-9]+)m([0-9]+(?:\.[0-9]+)?)s`)
)

// classifyStatus 将非 2xx 响应映射为失败类别
func classifyStatus(status int, header http.Header, body []byte) *port.InferenceError {
	ie := &port.InferenceError{
		StatusCode: status,
		Message:    errorMessage(body, status),
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		ie.Class = port.FailureAuth
	case status == http.StatusTooManyRequests:
		ie.Class = port.FailureRateLimited
		ie.RetryAfter = retryAfter(header, body)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		ie.Class = port.FailureTimeout
	case status >= 500:
		ie.Class = port.FailureUnavailable
		ie.RetryAfter = retryAfter(header, body)
	default:
		// 400/404/413/422 等：请求本身被拒绝，重试无意义
		ie.Class = port.FailureRejected
	}
	return ie
}

// classifyTransport 将发送阶段的错误（连接、超时、取消）映射为失败类别
func classifyTransport(parent context.Context, err error) *port.InferenceError {
	ie := &port.InferenceError{Err: err}

	switch {
	case errors.Is(parent.Err(), context.Canceled):
		ie.Class = port.FailureCanceled
		ie.Message = "call canceled"
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		ie.Class = port.FailureTimeout
		ie.Message = "call deadline exceeded"
	case errors.Is(err, context.DeadlineExceeded):
		ie.Class = port.FailureTimeout
		ie.Message = "request timed out"
	case isNetTimeout(err):
		ie.Class = port.FailureTimeout
		ie.Message = "network timeout"
	default:
		// 连接重置、拒绝连接、读到 EOF 等均视为端点暂时不可用
		ie.Class = port.FailureUnavailable
		ie.Message = "transport error"
	}
	return ie
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// retryAfter 依次读取 Retry-After 头（秒数或 HTTP 日期）与响应体中的提示
func retryAfter(header http.Header, body []byte) time.Duration {
	if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		if t, err := http.ParseTime(v); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}
	return retryAfterFromText(string(body))
}

func retryAfterFromText(s string) time.Duration {
	if m := reTryAgainMin.FindStringSubmatch(s); len(m) == 3 {
		mins, _ := strconv.Atoi(m[1])
		secs, _ := strconv.ParseFloat(m[2], 64)
		return time.Duration(mins)*time.Minute + time.Duration(secs*float64(time.Second))
	}
	if m := reTryAgainIn.FindStringSubmatch(s); len(m) == 3 {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil && n > 0 {
			if strings.EqualFold(m[2], "ms") {
				return time.Duration(n * float64(time.Millisecond))
			}
			return time.Duration(n * float64(time.Second))
		}
	}
	if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
		if n, _ := strconv.Atoi(m[1]); n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 0
}

// errorMessage 提取端点错误描述，不回显请求内容
func errorMessage(body []byte, status int) string {
	var eb apiErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return node.TruncateByRunes(node.CollapseSpace(eb.Error.Message), maxErrorMessageRunes)
	}
	if text := node.CollapseSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		return node.TruncateByRunes(text, maxErrorMessageRunes)
	}
	return http.StatusText(status)
}
